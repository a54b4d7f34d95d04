package chat

import (
	"fmt"
	"time"
)

const chatTimeLayout = "15:04"

// JoinAnnouncement is broadcast when member attaches a session.
func JoinAnnouncement(member string, at time.Time) string {
	return fmt.Sprintf("(%s) User %s has joined the chat", at.Format(chatTimeLayout), member)
}

// LeaveAnnouncement is broadcast when member's session ends.
func LeaveAnnouncement(member string, at time.Time) string {
	return fmt.Sprintf("(%s) User %s has left the chat", at.Format(chatTimeLayout), member)
}

// ChatLine formats a relayed message.
func ChatLine(member, text string) string {
	return member + ": " + text
}

// HeartbeatLine is written periodically on the heartbeat socket.
func HeartbeatLine(at time.Time) string {
	return "Hello darkness, my old friend! Current time is: " + at.Format(time.DateTime)
}
