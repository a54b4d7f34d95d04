package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RoomRecord is the durable part of a room: its id and fixed membership.
type RoomRecord struct {
	ID        string
	Members   []string
	CreatedAt time.Time
}

// RoomStore persists room pairings across restarts.
type RoomStore interface {
	LoadRooms(ctx context.Context) ([]RoomRecord, error)
	SaveRoom(ctx context.Context, rec RoomRecord) error
}

// pairKey identifies an unordered pair of identities.
type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

func (k pairKey) String() string {
	return fmt.Sprintf("%d:%s|%s", len(k.a), k.a, k.b)
}

// Registry maps pairs of participant identities to rooms.
type Registry struct {
	log     *slog.Logger
	store   RoomStore
	metrics Recorder
	newID   func() string

	// flight serializes creation per identity pair.
	flight singleflight.Group

	mu    sync.RWMutex
	rooms map[string]*Room
	pairs map[pairKey]*Room
}

// NewRegistry creates an empty registry. store and rec may be nil.
func NewRegistry(logger *slog.Logger, store RoomStore, rec Recorder) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		log:     logger,
		store:   store,
		metrics: recorderOrNop(rec),
		newID:   uuid.NewString,
		rooms:   make(map[string]*Room),
		pairs:   make(map[pairKey]*Room),
	}
}

// Load restores previously saved rooms from the store.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	records, err := r.store.LoadRooms(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		room, err := NewRoom(rec.ID, rec.Members...)
		if err != nil {
			r.log.Warn("registry.skip_room", "room", rec.ID, "err", err)
			continue
		}
		if !rec.CreatedAt.IsZero() {
			room.createdAt = rec.CreatedAt
		}
		r.rooms[room.id] = room
		if len(rec.Members) == Capacity {
			r.pairs[newPairKey(rec.Members[0], rec.Members[1])] = room
		}
	}
	r.log.Info("registry.loaded", "rooms", len(records))
	return nil
}

// FindOrCreate returns the room whose members are exactly a and b, creating
// it on first request. Argument order does not matter.
func (r *Registry) FindOrCreate(ctx context.Context, a, b string) (*Room, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return nil, newError("find room", "", "", fmt.Errorf("%w: both identities are required", ErrInvalidRequest))
	}
	if a == b {
		return nil, newError("find room", "", a, fmt.Errorf("%w: identities must differ", ErrInvalidRequest))
	}

	key := newPairKey(a, b)
	if room := r.lookupPair(key); room != nil {
		return room, nil
	}

	v, err, _ := r.flight.Do(key.String(), func() (any, error) {
		if room := r.lookupPair(key); room != nil {
			return room, nil
		}
		// Waiting callers share this creation, so one caller going away
		// must not fail it for the rest.
		return r.create(context.WithoutCancel(ctx), key, a, b)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Room), nil
}

func (r *Registry) create(ctx context.Context, key pairKey, a, b string) (*Room, error) {
	room, err := NewRoom(r.newID(), a, b)
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		rec := RoomRecord{ID: room.id, Members: []string{a, b}, CreatedAt: room.createdAt}
		if err := r.store.SaveRoom(ctx, rec); err != nil {
			return nil, newError("save room", room.id, "", err)
		}
	}

	r.mu.Lock()
	r.rooms[room.id] = room
	r.pairs[key] = room
	r.mu.Unlock()

	r.metrics.RoomCreated()
	r.log.Info("registry.room_created", "room", room.id, "members", []string{a, b})
	return room, nil
}

// Lookup returns the room with the given id.
func (r *Registry) Lookup(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Room returns the room with the given id or ErrRoomNotFound.
func (r *Registry) Room(id string) (*Room, error) {
	room, ok := r.Lookup(id)
	if !ok {
		return nil, newError("lookup room", id, "", ErrRoomNotFound)
	}
	return room, nil
}

// Len returns the number of known rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) lookupPair(key pairKey) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pairs[key]
}
