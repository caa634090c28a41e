package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

// handleStartCall is the call-time re-authorization gate. On success the
// start-call event carries the caller's peer identity and is delivered to the
// target connection only, never broadcast.
func (ctl *SignalWSController) handleStartCall(
	ctx context.Context,
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	type callPayload struct {
		Type         string `json:"type"`
		RoomID       string `json:"roomId"`
		TargetPeerID string `json:"targetPeerId"`
	}
	var p callPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad start call payload")
		ctl.sendCallError(conn, "bad payload")
		return
	}
	if p.RoomID == "" || p.TargetPeerID == "" {
		ctl.sendCallError(conn, "missing roomId or targetPeerId")
		return
	}

	target, callerPeer, err := ctl.Orch.AuthorizeCall(ctx, sid, domain.RoomID(p.RoomID), domain.PeerID(p.TargetPeerID))
	if err != nil {
		if errors.Is(err, core.ErrUpstream) {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("call authorization failed")
			ctl.sendCallError(conn, "call authorization failed")
			return
		}
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Str("reason", err.Error()).Msg("call denied")
		ctl.sendCallError(conn, err.Error())
		return
	}

	ctl.sendJSON(target, map[string]any{
		"type":   "start-call",
		"peerId": string(callerPeer),
	})
}
