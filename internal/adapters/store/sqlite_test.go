package store

import (
	"context"
	"testing"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	members, err := s.Members(ctx, "room")
	if err != nil {
		t.Fatalf("Members on absent room: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("absent room member count = %d; want 0", len(members))
	}

	if err := s.AddMembers(ctx, "room", "u1", "u2"); err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	// Overlapping add must union, not fail or overwrite.
	if err := s.AddMembers(ctx, "room", "u2", "u3"); err != nil {
		t.Fatalf("overlapping AddMembers: %v", err)
	}

	members, err = s.Members(ctx, "room")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("member count = %d; want 3", len(members))
	}

	if err := s.RemoveMember(ctx, "room", "u2"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := s.RemoveMember(ctx, "room", "u2"); err != nil {
		t.Fatalf("second RemoveMember: %v", err)
	}
	members, _ = s.Members(ctx, "room")
	if _, ok := members["u2"]; ok {
		t.Fatal("removed member still present")
	}
}
