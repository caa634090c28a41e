package core

import "errors"

// Denial reasons surfaced to clients verbatim.
var (
	ErrNotMutualFriends  = errors.New("not mutual friends")
	ErrNotFriendsWithAll = errors.New("not friends with all members")
)

// ErrUpstream marks a failed or timed-out social-graph or membership-store
// query. Callers must treat it as a denial, never as a grant.
var ErrUpstream = errors.New("upstream unavailable")
