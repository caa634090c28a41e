package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

// handleAllowUser runs the admission algorithm. This is the only path that
// grows the persisted admitted set; clients call it right before join-room.
func (ctl *SignalWSController) handleAllowUser(
	ctx context.Context,
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type allowPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}
	var p allowPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad allow payload")
		ctl.sendRoomError(conn, "bad payload")
		return
	}
	if p.RoomID == "" || p.UserID == "" {
		ctl.sendRoomError(conn, "missing roomId or userId")
		return
	}

	room, user := domain.RoomID(p.RoomID), domain.UserID(p.UserID)
	err := ctl.Orch.Admission.Admit(ctx, room, user)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrUpstream):
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("admission check failed")
		ctl.sendRoomError(conn, "room access check failed")
		return
	default:
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Str("user", p.UserID).Str("reason", err.Error()).Msg("admission denied")
		ctl.sendRoomError(conn, err.Error())
		return
	}

	ctl.Orch.Registry.BindUser(sid, user)
	ctl.sendJSON(conn, map[string]any{
		"type":   "user-allowed",
		"roomId": p.RoomID,
		"userId": p.UserID,
	})
}

// handleJoinRoom is a pure membership check plus a transport-room join.
// It never grants admission.
func (ctl *SignalWSController) handleJoinRoom(
	ctx context.Context,
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type joinPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendRoomError(conn, "bad payload")
		return
	}
	if p.RoomID == "" || p.UserID == "" {
		ctl.sendRoomError(conn, "missing roomId or userId")
		return
	}

	room, user := domain.RoomID(p.RoomID), domain.UserID(p.UserID)
	allowed, err := ctl.Orch.Admission.IsAdmitted(ctx, room, user)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join admission check failed")
		ctl.sendRoomError(conn, "room access check failed")
		return
	}
	if !allowed {
		ctl.sendRoomError(conn, "you are not allowed in this room")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Str("user", p.UserID).Msg("join")
	if !ctl.Orch.Join(sid, room) {
		// Session vanished between dispatch and join; nothing to announce.
		return
	}

	ctl.BroadcastOthers(room, sid, map[string]any{
		"type":   "user-joined",
		"userId": p.UserID,
	})
}

// handleRoomUsers answers "who is here" with the fully-bound occupants only;
// connections that have not announced a peer identity cannot be called yet.
func (ctl *SignalWSController) handleRoomUsers(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type usersPayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p usersPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad room users payload")
		ctl.sendRoomError(conn, "bad payload")
		return
	}
	if p.RoomID == "" {
		ctl.sendRoomError(conn, "missing roomId")
		return
	}

	type userEntry struct {
		UserID domain.UserID `json:"userId"`
		PeerID domain.PeerID `json:"peerId"`
	}
	roster := ctl.Orch.Registry.RosterOf(domain.RoomID(p.RoomID))
	users := make([]userEntry, 0, len(roster))
	for _, occ := range roster {
		users = append(users, userEntry{UserID: occ.User, PeerID: occ.Peer})
	}

	ctl.sendJSON(conn, struct {
		Type   string      `json:"type"`
		RoomID string      `json:"roomId"`
		Users  []userEntry `json:"users"`
	}{
		Type:   "room-users",
		RoomID: p.RoomID,
		Users:  users,
	})
}
