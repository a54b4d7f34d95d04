// Package store persists room pairings in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/habibuoy/pairchat/backend/internal/chat"
)

// ErrDuplicateRoom is returned when a room id or identity pair is already stored.
var ErrDuplicateRoom = errors.New("room already stored")

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	pair_key   TEXT NOT NULL UNIQUE,
	members    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);`

// SQLite stores room records. Session state is never persisted.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens the database at path and creates the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	logger.Info("store.opened", "path", path)
	return &SQLite{db: db, log: logger}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRoom inserts rec.
func (s *SQLite) SaveRoom(ctx context.Context, rec chat.RoomRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("room id is required")
	}
	if len(rec.Members) == 0 {
		return fmt.Errorf("room %s has no members", rec.ID)
	}
	members, err := msgpack.Marshal(rec.Members)
	if err != nil {
		return fmt.Errorf("encode members: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, pair_key, members, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, pairKey(rec.Members), members, toMillis(createdAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("save room %s: %w", rec.ID, ErrDuplicateRoom)
	}
	if err != nil {
		return fmt.Errorf("save room %s: %w", rec.ID, err)
	}
	return nil
}

// LoadRooms returns every stored room, oldest first.
func (s *SQLite) LoadRooms(ctx context.Context) ([]chat.RoomRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, members, created_at FROM rooms ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var records []chat.RoomRecord
	for rows.Next() {
		var (
			id        string
			blob      []byte
			createdAt int64
		)
		if err := rows.Scan(&id, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		var members []string
		if err := msgpack.Unmarshal(blob, &members); err != nil {
			s.log.Warn("store.skip_room", "room", id, "err", err)
			continue
		}
		records = append(records, chat.RoomRecord{
			ID:        id,
			Members:   members,
			CreatedAt: fromMillis(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return records, nil
}

// pairKey is order independent so a reversed pair maps to the same row.
func pairKey(members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	var b strings.Builder
	for _, m := range sorted {
		fmt.Fprintf(&b, "%d:%s;", len(m), m)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ chat.RoomStore = (*SQLite)(nil)
