package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

// handleRelay forwards webrtc-offer/answer/ice-candidate frames to the other
// occupants of the named room. Payloads are opaque: only the envelope's
// roomId is read, the frame itself goes out unmodified.
func (ctl *SignalWSController) handleRelay(
	sid core.SessionID,
	conn core.SignalConnection,
	data []byte,
) {
	var env struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad relay envelope")
		return
	}
	if env.RoomID == "" {
		ctl.sendRoomError(conn, "missing roomId")
		return
	}
	ctl.RelayOthers(domain.RoomID(env.RoomID), sid, core.Frame(data))
}

// sendICEConfig pushes the STUN/TURN server list so clients can build their
// RTCPeerConnection without a second round trip.
func (ctl *SignalWSController) sendICEConfig(conn core.SignalConnection) {
	ctl.sendJSON(conn, map[string]any{
		"type":       "ice-servers",
		"iceServers": ctl.ICE.ICEServers,
	})
}
