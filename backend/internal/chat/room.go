package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Capacity is the maximum number of members a room can hold.
const Capacity = 2

// Peer is a live session handle attached to a room member.
type Peer interface {
	// Member returns the identity that owns the session.
	Member() string

	// SendText writes one complete text frame.
	SendText(payload string) error

	// IsOpen reports whether the session can still send and receive.
	IsOpen() bool
}

type member struct {
	name string
	peer Peer
}

// Room tracks which participants belong to it and which of them currently
// have a live session attached. Membership is fixed at creation; session
// handles attach and detach any number of times.
type Room struct {
	id        string
	createdAt time.Time

	// presence orders an attach or release together with its announcement.
	// Acquired before mu.
	presence sync.Mutex

	mu      sync.Mutex
	members []member // insertion order
}

// NewRoom creates a room with the given members and no attached sessions.
func NewRoom(id string, members ...string) (*Room, error) {
	if strings.TrimSpace(id) == "" {
		return nil, newError("create room", "", "", fmt.Errorf("%w: room id is required", ErrInvalidRequest))
	}
	if len(members) > Capacity {
		return nil, newError("create room", id, "", ErrRoomFull)
	}

	r := &Room{
		id:        id,
		createdAt: time.Now(),
		members:   make([]member, 0, Capacity),
	}
	for _, name := range members {
		if strings.TrimSpace(name) == "" {
			return nil, newError("create room", id, "", fmt.Errorf("%w: member identity is required", ErrInvalidRequest))
		}
		if r.indexOf(name) >= 0 {
			return nil, newError("create room", id, name, fmt.Errorf("%w: duplicate member", ErrInvalidRequest))
		}
		r.members = append(r.members, member{name: name})
	}
	return r, nil
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// CreatedAt returns the time the room was created.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Members returns the member identities in insertion order.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.members))
	for i, m := range r.members {
		names[i] = m.name
	}
	return names
}

// HasMember reports whether identity belongs to the room.
func (r *Room) HasMember(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(identity) >= 0
}

// CanAcceptSession reports whether fewer than Capacity attached sessions are
// still open. A closed handle awaiting release does not hold a slot.
func (r *Room) CanAcceptSession() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attachedLocked() < Capacity
}

// HasLiveSession reports whether identity has an attached session that is still open.
func (r *Room) HasLiveSession(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(identity)
	return i >= 0 && r.members[i].peer != nil && r.members[i].peer.IsOpen()
}

// AttachSession records peer as the live session of identity. A previous
// handle is replaced only once it is no longer open; attaching over an open
// session fails with ErrSessionActive.
func (r *Room) AttachSession(identity string, peer Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(identity)
	if i < 0 {
		return newError("attach session", r.id, identity, ErrUnknownMember)
	}
	if current := r.members[i].peer; current != nil && current != peer && current.IsOpen() {
		return newError("attach session", r.id, identity, ErrSessionActive)
	}
	r.members[i].peer = peer
	return nil
}

// DetachSession clears the live session of identity. Detaching a member
// without an attached session fails with ErrNotAttached.
func (r *Room) DetachSession(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(identity)
	if i < 0 {
		return newError("detach session", r.id, identity, ErrUnknownMember)
	}
	if r.members[i].peer == nil {
		return newError("detach session", r.id, identity, ErrNotAttached)
	}
	r.members[i].peer = nil
	return nil
}

// release detaches peer only if it is still the handle recorded for its
// member, so a stale session never clears its replacement.
func (r *Room) release(peer Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity := peer.Member()
	i := r.indexOf(identity)
	if i < 0 {
		return newError("detach session", r.id, identity, ErrUnknownMember)
	}
	if r.members[i].peer != peer {
		return newError("detach session", r.id, identity, ErrNotAttached)
	}
	r.members[i].peer = nil
	return nil
}

// LiveSessions returns a snapshot of the attached session handles in member order.
func (r *Room) LiveSessions() []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]Peer, 0, len(r.members))
	for _, m := range r.members {
		if m.peer != nil {
			peers = append(peers, m.peer)
		}
	}
	return peers
}

func (r *Room) indexOf(identity string) int {
	for i, m := range r.members {
		if m.name == identity {
			return i
		}
	}
	return -1
}

func (r *Room) attachedLocked() int {
	n := 0
	for _, m := range r.members {
		if m.peer != nil && m.peer.IsOpen() {
			n++
		}
	}
	return n
}
