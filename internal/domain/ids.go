// Package domain contains entity without logic, just meta-data
package domain

type (
	// UserID identifies a user in the surrounding application.
	UserID string
	// PeerID is the opaque media-signaling identity a client announces
	// with peer-ready. Distinct from both UserID and the transport session.
	PeerID string
	// RoomID is the stable string key of a logical room.
	RoomID string
)
