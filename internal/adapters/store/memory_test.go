package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/studylink/gateway/internal/domain"
)

func TestMemoryAbsentRoomIsEmpty(t *testing.T) {
	m := NewMemory()
	members, err := m.Members(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("absent room member count = %d; want 0", len(members))
	}
}

func TestMemoryAddIsUnion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.AddMembers(ctx, "room", "u1", "u2"); err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	if err := m.AddMembers(ctx, "room", "u2", "u3"); err != nil {
		t.Fatalf("AddMembers: %v", err)
	}

	members, _ := m.Members(ctx, "room")
	if len(members) != 3 {
		t.Fatalf("member count = %d; want 3", len(members))
	}
	for _, u := range []domain.UserID{"u1", "u2", "u3"} {
		if _, ok := members[u]; !ok {
			t.Fatalf("member %s missing after union", u)
		}
	}
}

func TestMemoryRemoveIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.AddMembers(ctx, "room", "u1")
	if err := m.RemoveMember(ctx, "room", "u1"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := m.RemoveMember(ctx, "room", "u1"); err != nil {
		t.Fatalf("second RemoveMember: %v", err)
	}
	if err := m.RemoveMember(ctx, "ghost", "u1"); err != nil {
		t.Fatalf("RemoveMember on absent room: %v", err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.AddMembers(ctx, "room", "u1")

	members, _ := m.Members(ctx, "room")
	members["intruder"] = struct{}{}

	again, _ := m.Members(ctx, "room")
	if _, ok := again["intruder"]; ok {
		t.Fatal("Members must return a copy, not the live set")
	}
}

func TestMemoryConcurrentAdds(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.AddMembers(ctx, "room", domain.UserID(fmt.Sprintf("u%d", i)))
		}(i)
	}
	wg.Wait()

	members, _ := m.Members(ctx, "room")
	if len(members) != 50 {
		t.Fatalf("member count after concurrent adds = %d; want 50", len(members))
	}
}
