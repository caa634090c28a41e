package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/studylink/gateway/internal/core"
	"github.com/studylink/gateway/internal/domain"
)

type fakeStore struct {
	rooms map[domain.RoomID]map[domain.UserID]struct{}
	fail  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[domain.RoomID]map[domain.UserID]struct{})}
}

func (s *fakeStore) preload(room domain.RoomID, users ...domain.UserID) {
	set := make(map[domain.UserID]struct{})
	for _, u := range users {
		set[u] = struct{}{}
	}
	s.rooms[room] = set
}

func (s *fakeStore) Members(_ context.Context, room domain.RoomID) (map[domain.UserID]struct{}, error) {
	if s.fail {
		return nil, errors.New("store down")
	}
	out := make(map[domain.UserID]struct{}, len(s.rooms[room]))
	for u := range s.rooms[room] {
		out[u] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) AddMembers(_ context.Context, room domain.RoomID, users ...domain.UserID) error {
	if s.fail {
		return errors.New("store down")
	}
	set, ok := s.rooms[room]
	if !ok {
		set = make(map[domain.UserID]struct{})
		s.rooms[room] = set
	}
	for _, u := range users {
		set[u] = struct{}{}
	}
	return nil
}

func (s *fakeStore) RemoveMember(_ context.Context, room domain.RoomID, user domain.UserID) error {
	if s.fail {
		return errors.New("store down")
	}
	delete(s.rooms[room], user)
	return nil
}

type fakeGraph struct {
	friends map[domain.UserID][]domain.UserID
	fail    bool
}

func (g *fakeGraph) Friends(_ context.Context, user domain.UserID) (map[domain.UserID]struct{}, error) {
	if g.fail {
		return nil, errors.New("graph down")
	}
	out := make(map[domain.UserID]struct{})
	for _, f := range g.friends[user] {
		out[f] = struct{}{}
	}
	return out, nil
}

func newAdmission(store *fakeStore, graph *fakeGraph) *AdmissionController {
	return NewAdmissionController(store, graph, time.Second)
}

func TestAdmitFirstEntrant(t *testing.T) {
	store := newFakeStore()
	a := newAdmission(store, &fakeGraph{})

	if err := a.Admit(context.Background(), "room", "u1"); err != nil {
		t.Fatalf("Admit first entrant: %v", err)
	}
	ok, err := a.IsAdmitted(context.Background(), "room", "u1")
	if err != nil || !ok {
		t.Fatalf("IsAdmitted after first admit = %v, %v; want true", ok, err)
	}
}

func TestAdmitOneToOne(t *testing.T) {
	store := newFakeStore()
	store.preload("room", "u1")
	graph := &fakeGraph{friends: map[domain.UserID][]domain.UserID{
		"u2": {"u1"},
	}}
	a := newAdmission(store, graph)

	if err := a.Admit(context.Background(), "room", "u2"); err != nil {
		t.Fatalf("Admit friend into 1:1 room: %v", err)
	}

	if err := a.Admit(context.Background(), "room2", "u1"); err != nil {
		t.Fatalf("Admit first entrant: %v", err)
	}
	err := a.Admit(context.Background(), "room2", "u3")
	if !errors.Is(err, core.ErrNotMutualFriends) {
		t.Fatalf("Admit stranger into 1:1 room = %v; want ErrNotMutualFriends", err)
	}
	if ok, _ := a.IsAdmitted(context.Background(), "room2", "u3"); ok {
		t.Fatal("denied user must not be persisted")
	}
}

// The admission check reads only the joiner's friend set; symmetry of the
// edge is the external graph's responsibility.
func TestAdmitOneToOneReadsJoinerFriendSet(t *testing.T) {
	store := newFakeStore()
	store.preload("room", "u1")
	graph := &fakeGraph{friends: map[domain.UserID][]domain.UserID{
		"u2": {"u1"},
		"u1": nil,
	}}
	a := newAdmission(store, graph)

	if err := a.Admit(context.Background(), "room", "u2"); err != nil {
		t.Fatalf("Admit with joiner-side edge: %v", err)
	}
}

func TestAdmitGroup(t *testing.T) {
	store := newFakeStore()
	store.preload("room", "a", "b", "c")
	graph := &fakeGraph{friends: map[domain.UserID][]domain.UserID{
		"d": {"a", "b", "c"},
		"e": {"a", "b"},
	}}
	a := newAdmission(store, graph)

	if err := a.Admit(context.Background(), "room", "d"); err != nil {
		t.Fatalf("Admit full friend into group room: %v", err)
	}
	err := a.Admit(context.Background(), "room", "e")
	if !errors.Is(err, core.ErrNotFriendsWithAll) {
		t.Fatalf("Admit partial friend into group room = %v; want ErrNotFriendsWithAll", err)
	}
}

func TestAdmitIdempotent(t *testing.T) {
	store := newFakeStore()
	graph := &fakeGraph{}
	a := newAdmission(store, graph)

	if err := a.Admit(context.Background(), "room", "u1"); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	// Re-admitting must be a no-op success and must not need the graph.
	graph.fail = true
	if err := a.Admit(context.Background(), "room", "u1"); err != nil {
		t.Fatalf("second admit: %v", err)
	}
	if got := len(store.rooms["room"]); got != 1 {
		t.Fatalf("membership size after double admit = %d; want 1", got)
	}
}

func TestAdmitFailClosed(t *testing.T) {
	store := newFakeStore()
	store.fail = true
	a := newAdmission(store, &fakeGraph{})

	err := a.Admit(context.Background(), "room", "u1")
	if !errors.Is(err, core.ErrUpstream) {
		t.Fatalf("Admit with dead store = %v; want ErrUpstream", err)
	}

	store2 := newFakeStore()
	store2.preload("room", "u1")
	a2 := newAdmission(store2, &fakeGraph{fail: true})
	err = a2.Admit(context.Background(), "room", "u2")
	if !errors.Is(err, core.ErrUpstream) {
		t.Fatalf("Admit with dead graph = %v; want ErrUpstream", err)
	}
	if ok, _ := a2.IsAdmitted(context.Background(), "room", "u2"); ok {
		t.Fatal("upstream failure must never grant admission")
	}
}

func TestRevoke(t *testing.T) {
	store := newFakeStore()
	a := newAdmission(store, &fakeGraph{})

	if err := a.Admit(context.Background(), "room", "u1"); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if err := a.Revoke(context.Background(), "room", "u1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := a.IsAdmitted(context.Background(), "room", "u1"); ok {
		t.Fatal("IsAdmitted after revoke; want false")
	}
	if err := a.Revoke(context.Background(), "room", "u1"); err != nil {
		t.Fatalf("second revoke must be idempotent: %v", err)
	}
}

func TestIsAdmittedUnknownRoom(t *testing.T) {
	a := newAdmission(newFakeStore(), &fakeGraph{})
	ok, err := a.IsAdmitted(context.Background(), "never-seen", "u1")
	if err != nil {
		t.Fatalf("IsAdmitted: %v", err)
	}
	if ok {
		t.Fatal("unknown room must yield false")
	}
}
