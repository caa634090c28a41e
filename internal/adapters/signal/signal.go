package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/app"
	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type SignalWSController struct {
	Orch *app.Orchestrator
	ICE  webrtc.Configuration

	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(orch *app.Orchestrator, ice webrtc.Configuration, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	if readLimit <= 0 {
		readLimit = 32768
	}
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &SignalWSController{
		Orch:       orch,
		ICE:        ice,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// BroadcastRoom fans v out to every occupant of the transport room,
// the sender included.
func (ctl *SignalWSController) BroadcastRoom(room domain.RoomID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	for _, occ := range ctl.Orch.Registry.OccupantsOf(room) {
		_ = occ.Conn.TrySend(b)
	}
}

// BroadcastOthers fans v out to every occupant except from.
func (ctl *SignalWSController) BroadcastOthers(room domain.RoomID, from core.SessionID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	for _, occ := range ctl.Orch.Registry.OccupantsOf(room) {
		if occ.SID == from {
			continue
		}
		_ = occ.Conn.TrySend(b)
	}
}

// RelayOthers forwards a raw frame unmodified to every occupant except from.
func (ctl *SignalWSController) RelayOthers(room domain.RoomID, from core.SessionID, f core.Frame) {
	for _, occ := range ctl.Orch.Registry.OccupantsOf(room) {
		if occ.SID == from {
			continue
		}
		_ = occ.Conn.TrySend(f)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newSessionID mints an ephemeral identity for one upgrade. The cookie token
// is kept as a prefix for log correlation only: two tabs of the same browser
// share the token but must never share presence state.
func newSessionID(token string) core.SessionID {
	return core.SessionID(token + "/" + uuid.NewString())
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := newSessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)

	ctl.sendICEConfig(conn)
}
