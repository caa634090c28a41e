package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

// Call precondition failures, surfaced to the caller as call-error.
var (
	ErrCallRoomNotPair   = errors.New("calls are only available in rooms with exactly two participants")
	ErrCallTargetGone    = errors.New("target peer is not connected")
	ErrCallerNotReady    = errors.New("caller has no signaling identity")
	ErrCallNotAuthorized = errors.New("both participants must be admitted to the room")
)

// Orchestrator glues presence and admission for the signaling adapters.
type Orchestrator struct {
	Registry  *Registry
	Admission *AdmissionController
}

// Join adds an already-admitted connection to the transport room.
// It is a pure presence operation and never touches the admitted set.
func (o *Orchestrator) Join(sid core.SessionID, room domain.RoomID) bool {
	ok := o.Registry.JoinRoom(sid, room)
	if !ok {
		log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(room)).Msg("join for unknown session")
	}
	return ok
}

// AuthorizeCall re-checks call preconditions at call time: the transport room
// must hold exactly two occupants including both parties, the target peer must
// resolve to a live connection, and both bound users must still be admitted.
// Returns the target connection and the caller's peer identity for the
// start-call delivery. Upstream failure denies the call.
func (o *Orchestrator) AuthorizeCall(ctx context.Context, sid core.SessionID, room domain.RoomID, target domain.PeerID) (core.SignalConnection, domain.PeerID, error) {
	occupants := o.Registry.OccupantsOf(room)
	if len(occupants) != 2 {
		return nil, "", ErrCallRoomNotPair
	}
	callerPeer, ok := o.Registry.PeerOf(sid)
	if !ok {
		return nil, "", ErrCallerNotReady
	}
	targetSID, targetConn, ok := o.Registry.SessionByPeer(target)
	if !ok {
		return nil, "", ErrCallTargetGone
	}

	callerIn, targetIn := false, false
	for _, occ := range occupants {
		if occ.SID == sid {
			callerIn = true
		}
		if occ.SID == targetSID {
			targetIn = true
		}
	}
	if !targetIn {
		return nil, "", ErrCallTargetGone
	}
	if !callerIn {
		return nil, "", ErrCallNotAuthorized
	}

	callerUser, ok := o.Registry.UserOf(sid)
	if !ok {
		return nil, "", ErrCallNotAuthorized
	}
	targetUser, ok := o.Registry.UserOf(targetSID)
	if !ok {
		return nil, "", ErrCallNotAuthorized
	}
	for _, u := range []domain.UserID{callerUser, targetUser} {
		admitted, err := o.Admission.IsAdmitted(ctx, room, u)
		if err != nil {
			return nil, "", err
		}
		if !admitted {
			return nil, "", ErrCallNotAuthorized
		}
	}

	log.Info().Str("module", "app.orch").Str("room", string(room)).Str("caller", string(callerPeer)).Str("target", string(target)).Msg("call authorized")
	return targetConn, callerPeer, nil
}

// OnDisconnect releases all presence state for sid. Room admission is
// untouched: a disconnect ends presence, not membership.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Registry.Release(sid)
}
