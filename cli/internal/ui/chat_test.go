package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m *ChatModel, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestChatModelSendsAndEchoesLocally(t *testing.T) {
	var sent []string
	m := NewChatModel("alice", "r1", make(chan string), func(s string) error {
		sent = append(sent, s)
		return nil
	}, nil)

	typeText(m, "hello bob")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(sent) != 1 || sent[0] != "hello bob" {
		t.Fatalf("expected one sent line, got %v", sent)
	}
	if lines := m.Lines(); len(lines) != 1 || lines[0] != "alice: hello bob" {
		t.Fatalf("unexpected lines %v", lines)
	}
	if m.input.Value() != "" {
		t.Fatalf("input should be cleared, got %q", m.input.Value())
	}
}

func TestChatModelIgnoresBlankInput(t *testing.T) {
	called := false
	m := NewChatModel("alice", "r1", make(chan string), func(string) error {
		called = true
		return nil
	}, nil)

	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if called {
		t.Fatal("blank input must not be sent")
	}
}

func TestChatModelSendFailure(t *testing.T) {
	m := NewChatModel("alice", "r1", make(chan string), func(string) error {
		return errors.New("send: connection closed")
	}, nil)

	typeText(m, "hi")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Status() != "send: connection closed" {
		t.Fatalf("unexpected status %q", m.Status())
	}
	if len(m.Lines()) != 0 {
		t.Fatal("failed send must not be shown as sent")
	}
}

func TestChatModelReceivesLines(t *testing.T) {
	incoming := make(chan string, 2)
	m := NewChatModel("alice", "r1", incoming, func(string) error { return nil }, func() string { return "Client is disconnected" })

	incoming <- "(12:00) User bob has joined the chat"
	msg := m.waitForLine()()
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected the model to keep listening")
	}
	if lines := m.Lines(); len(lines) != 1 || !strings.Contains(lines[0], "bob has joined") {
		t.Fatalf("unexpected lines %v", lines)
	}

	close(incoming)
	m.Update(m.waitForLine()())
	if !m.Closed() || m.Status() != "Disconnected: Client is disconnected" {
		t.Fatalf("unexpected close state %v %q", m.Closed(), m.Status())
	}
}

func TestChatModelQuitKeys(t *testing.T) {
	m := NewChatModel("alice", "r1", make(chan string), func(string) error { return nil }, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("esc should quit")
	}
	if m.View() != "" {
		t.Fatal("view should be empty after quitting")
	}
}

func TestStyleFor(t *testing.T) {
	if got := styleFor("(09:15) User bob has left the chat")("x"); got != AnnouncementStyle.Render("x") {
		t.Fatalf("expected announcement style")
	}
	if got := styleFor("bob: (not) User text")("x"); got != PeerLineStyle.Render("x") {
		t.Fatalf("expected peer style")
	}
}

func TestRoomInfoView(t *testing.T) {
	view := RoomInfo{RoomID: "room-7", Members: []string{"alice", "bob"}, Server: "http://localhost:7000"}.View()
	for _, want := range []string{"room-7", "alice", "bob", "Member"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in room view", want)
		}
	}
}
