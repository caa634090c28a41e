package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

// AdmissionController gates room membership on the friendship graph.
// The admitted set is a one-way ratchet: it grows only through Admit and
// shrinks only through Revoke, never from connection lifecycle.
type AdmissionController struct {
	Store   core.MembershipStore
	Graph   core.SocialGraph
	Timeout time.Duration
}

func NewAdmissionController(store core.MembershipStore, graph core.SocialGraph, timeout time.Duration) *AdmissionController {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AdmissionController{Store: store, Graph: graph, Timeout: timeout}
}

func (a *AdmissionController) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.Timeout)
}

// Admit decides whether user may occupy room and persists the decision.
// The first entrant of a room always succeeds. Joining a 1:1 room requires
// the existing member to be in the joiner's friend set; joining a group room
// requires every existing member there. Re-admitting an existing member is a
// no-op success.
func (a *AdmissionController) Admit(ctx context.Context, room domain.RoomID, user domain.UserID) error {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	members, err := a.Store.Members(ctx, room)
	if err != nil {
		return fmt.Errorf("%w: members of %q: %v", core.ErrUpstream, room, err)
	}
	if _, ok := members[user]; ok {
		return nil
	}
	if len(members) > 0 {
		friends, err := a.Graph.Friends(ctx, user)
		if err != nil {
			return fmt.Errorf("%w: friends of %q: %v", core.ErrUpstream, user, err)
		}
		for other := range members {
			if _, ok := friends[other]; ok {
				continue
			}
			if len(members) == 1 {
				return core.ErrNotMutualFriends
			}
			return core.ErrNotFriendsWithAll
		}
	}
	if err := a.Store.AddMembers(ctx, room, user); err != nil {
		return fmt.Errorf("%w: add member: %v", core.ErrUpstream, err)
	}
	log.Info().Str("module", "app.admission").Str("room", string(room)).Str("user", string(user)).Int("prior_members", len(members)).Msg("user admitted")
	return nil
}

// IsAdmitted is a pure membership test; an unknown room yields false.
func (a *AdmissionController) IsAdmitted(ctx context.Context, room domain.RoomID, user domain.UserID) (bool, error) {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	members, err := a.Store.Members(ctx, room)
	if err != nil {
		return false, fmt.Errorf("%w: members of %q: %v", core.ErrUpstream, room, err)
	}
	_, ok := members[user]
	return ok, nil
}

// Revoke removes user from the room's admitted set. Idempotent.
func (a *AdmissionController) Revoke(ctx context.Context, room domain.RoomID, user domain.UserID) error {
	ctx, cancel := a.deadline(ctx)
	defer cancel()

	if err := a.Store.RemoveMember(ctx, room, user); err != nil {
		return fmt.Errorf("%w: remove member: %v", core.ErrUpstream, err)
	}
	log.Info().Str("module", "app.admission").Str("room", string(room)).Str("user", string(user)).Msg("admission revoked")
	return nil
}
