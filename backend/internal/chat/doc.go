// Package chat implements two-party rooms and the relay that moves text
// messages between the websocket sessions attached to them.
package chat
