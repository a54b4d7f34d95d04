package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for requests rejected before any state changes,
	// such as a blank identity.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownMember is returned when a session is attached to or detached from
	// an identity that is not a member of the room.
	ErrUnknownMember = errors.New("unknown member")

	ErrRoomFull      = fmt.Errorf("%w: room is full", ErrInvalidRequest)
	ErrRoomNotFound  = errors.New("room not found")
	ErrSessionActive = fmt.Errorf("%w: member already has a live session", ErrUnknownMember)
	ErrNotAttached   = fmt.Errorf("%w: member has no live session", ErrUnknownMember)
	ErrSessionClosed = errors.New("session closed")
)

// Error describes a failed room or session operation.
type Error struct {
	Op     string
	Room   string
	Member string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Room != "" && e.Member != "":
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Room, e.Member, e.Err)
	case e.Member != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Member, e.Err)
	case e.Room != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Room, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, room, member string, err error) *Error {
	return &Error{Op: op, Room: room, Member: member, Err: err}
}
