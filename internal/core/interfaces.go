package core

import (
	"context"

	"github.com/studylink/gateway/internal/domain"
)

// SocialGraph is the read side of the application's friendship graph.
// The gateway never mutates edges; symmetry is enforced upstream.
type SocialGraph interface {
	Friends(ctx context.Context, user domain.UserID) (map[domain.UserID]struct{}, error)
}

// MembershipStore persists which users are admitted to a room.
// An absent room is indistinguishable from a room with an empty member set.
type MembershipStore interface {
	Members(ctx context.Context, room domain.RoomID) (map[domain.UserID]struct{}, error)
	// AddMembers must be an atomic add-to-set (union, not overwrite) so
	// concurrent admits for the same room never lose a member.
	AddMembers(ctx context.Context, room domain.RoomID, users ...domain.UserID) error
	RemoveMember(ctx context.Context, room domain.RoomID, user domain.UserID) error
}
