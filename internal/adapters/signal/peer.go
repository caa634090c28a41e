package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

// handlePeerReady binds the client's signaling identity and user to the
// connection, then announces it to the rest of the room. A peer identity is
// held by at most one connection; rebinding steals it.
func (ctl *SignalWSController) handlePeerReady(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type readyPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		PeerID string `json:"peerId"`
		UserID string `json:"userId"`
	}
	var p readyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad peer ready payload")
		ctl.sendRoomError(conn, "bad payload")
		return
	}
	if p.RoomID == "" || p.PeerID == "" || p.UserID == "" {
		ctl.sendRoomError(conn, "missing roomId, peerId or userId")
		return
	}

	ctl.Orch.Registry.BindUser(sid, domain.UserID(p.UserID))
	ctl.Orch.Registry.BindPeer(sid, domain.PeerID(p.PeerID))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Str("peer", p.PeerID).Msg("peer ready")

	ctl.BroadcastOthers(domain.RoomID(p.RoomID), sid, map[string]any{
		"type":   "peer-joined",
		"userId": p.UserID,
		"peerId": p.PeerID,
	})
}

// handleChat relays the message to the whole transport room, sender included.
// Admission is not re-checked per message: join-time authorization is trusted
// for the connection's lifetime.
func (ctl *SignalWSController) handleChat(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type chatPayload struct {
		Type    string `json:"type"`
		RoomID  string `json:"roomId"`
		Message string `json:"message"`
		User    string `json:"user"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendRoomError(conn, "bad payload")
		return
	}
	if p.RoomID == "" {
		ctl.sendRoomError(conn, "missing roomId")
		return
	}

	ctl.BroadcastRoom(domain.RoomID(p.RoomID), map[string]any{
		"type":    "chat-message",
		"message": p.Message,
		"user":    p.User,
		"sid":     string(sid),
	})
}
