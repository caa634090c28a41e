package app

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

type sessionEntry struct {
	Conn   core.SignalConnection
	User   domain.UserID
	Peer   domain.PeerID
	Rooms  map[domain.RoomID]struct{}
	Cancel context.CancelFunc
}

// Registry owns all live connection↔user↔peer state. It is rebuilt from zero
// on process restart; nothing here outlives the transport session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	byPeer   map[domain.PeerID]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		byPeer:   make(map[domain.PeerID]core.SessionID),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Conn:   conn,
		Rooms:  make(map[domain.RoomID]struct{}),
		Cancel: cancel,
	}
	log.Info().Str("module", "app.presence").Str("sid", string(sid)).Msg("bound signal")
}

// BindUser records sid→user. Last write wins.
func (r *Registry) BindUser(sid core.SessionID, user domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	e.User = user
	log.Info().Str("module", "app.presence").Str("sid", string(sid)).Str("user", string(user)).Msg("bound user")
}

// BindPeer records the bidirectional sid↔peer index. A peer identity belongs
// to at most one connection; rebinding steals it from the previous holder.
func (r *Registry) BindPeer(sid core.SessionID, peer domain.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	if e.Peer != "" && r.byPeer[e.Peer] == sid {
		delete(r.byPeer, e.Peer)
	}
	if prev, ok := r.byPeer[peer]; ok && prev != sid {
		if pe, ok := r.sessions[prev]; ok {
			pe.Peer = ""
		}
	}
	e.Peer = peer
	r.byPeer[peer] = sid
	log.Info().Str("module", "app.presence").Str("sid", string(sid)).Str("peer", string(peer)).Msg("bound peer")
}

// SessionByPeer resolves a signaling identity to its live connection.
func (r *Registry) SessionByPeer(peer domain.PeerID) (core.SessionID, core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.byPeer[peer]
	if !ok {
		return "", nil, false
	}
	e, ok := r.sessions[sid]
	if !ok {
		return "", nil, false
	}
	return sid, e.Conn, true
}

func (r *Registry) UserOf(sid core.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.User == "" {
		return "", false
	}
	return e.User, true
}

func (r *Registry) PeerOf(sid core.SessionID) (domain.PeerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Peer == "" {
		return "", false
	}
	return e.Peer, true
}

// JoinRoom adds sid to the transport-level room. Transport occupancy is
// distinct from the persisted admitted set and dies with the connection.
func (r *Registry) JoinRoom(sid core.SessionID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Rooms[room] = struct{}{}
	log.Info().Str("module", "app.presence").Str("sid", string(sid)).Str("room", string(room)).Msg("joined transport room")
	return true
}

// Occupant is a read-only presence snapshot.
type Occupant struct {
	SID  core.SessionID
	User domain.UserID
	Peer domain.PeerID
	Conn core.SignalConnection
}

// OccupantsOf returns every connection joined to the transport room,
// whether or not it has completed user/peer binding. Broadcast targets.
func (r *Registry) OccupantsOf(room domain.RoomID) []Occupant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Occupant, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if _, ok := e.Rooms[room]; ok {
			out = append(out, Occupant{SID: sid, User: e.User, Peer: e.Peer, Conn: e.Conn})
		}
	}
	return out
}

// RosterOf returns only occupants with both user and peer bound, sorted by
// user id. Connections without a signaling identity cannot be called yet and
// are excluded.
func (r *Registry) RosterOf(room domain.RoomID) []Occupant {
	all := r.OccupantsOf(room)
	out := all[:0]
	for _, occ := range all {
		if occ.User != "" && occ.Peer != "" {
			out = append(out, occ)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}

// Release drops every index entry for sid. Called exactly once on disconnect;
// safe when some bindings were never set or the sid is unknown.
func (r *Registry) Release(sid core.SessionID) {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	if !ok {
		r.mu.Unlock()
		return
	}
	if e.Peer != "" && r.byPeer[e.Peer] == sid {
		delete(r.byPeer, e.Peer)
	}
	delete(r.sessions, sid)
	r.mu.Unlock()

	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.presence").Str("sid", string(sid)).Msg("released session")
}
