package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFriendsDecodesSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/u1/friends" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id":"u2"},{"_id":"u3"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	friends, err := c.Friends(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Friends: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("friend count = %d; want 2", len(friends))
	}
	if _, ok := friends["u2"]; !ok {
		t.Fatal("u2 missing from friend set")
	}
}

func TestFriendsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Friends(context.Background(), "u1"); err == nil {
		t.Fatal("non-200 response must be an error")
	}
}

func TestFriendsRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL)
	if _, err := c.Friends(ctx, "u1"); err == nil {
		t.Fatal("canceled context must fail the query")
	}
}
