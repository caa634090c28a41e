package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studylink/gateway/internal/domain"
)

const membersSchema = `
CREATE TABLE IF NOT EXISTS room_members (
	room_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	PRIMARY KEY (room_id, user_id)
);`

// SQLite is the durable MembershipStore. Rooms exist implicitly: a room with
// no rows behaves exactly like an empty room, so first admission is a plain
// insert rather than a separate creation step.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open membership db: %w", err)
	}
	if _, err := db.Exec(membersSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init membership schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Members(ctx context.Context, room domain.RoomID) (map[domain.UserID]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id FROM room_members WHERE room_id = ?", string(room))
	if err != nil {
		return nil, fmt.Errorf("query members of %q: %w", room, err)
	}
	defer rows.Close()

	out := make(map[domain.UserID]struct{})
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan member of %q: %w", room, err)
		}
		out[domain.UserID(uid)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members of %q: %w", room, err)
	}
	return out, nil
}

// AddMembers performs the union with INSERT OR IGNORE inside one transaction,
// so concurrent admits for the same room never lose a member.
func (s *SQLite) AddMembers(ctx context.Context, room domain.RoomID, users ...domain.UserID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add members: %w", err)
	}
	for _, u := range users {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO room_members (room_id, user_id) VALUES (?, ?)",
			string(room), string(u),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert member %q into %q: %w", u, room, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add members: %w", err)
	}
	return nil
}

func (s *SQLite) RemoveMember(ctx context.Context, room domain.RoomID, user domain.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM room_members WHERE room_id = ? AND user_id = ?",
		string(room), string(user),
	); err != nil {
		return fmt.Errorf("remove member %q from %q: %w", user, room, err)
	}
	return nil
}
