package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultChatWidth  = 80
	defaultChatHeight = 20
	chatChrome        = 5 // header, input and footer rows
)

type lineMsg string

type disconnectedMsg struct{}

// ChatModel is the interactive chat view: received lines scroll in a
// viewport above a single-line input.
type ChatModel struct {
	me       string
	roomID   string
	incoming <-chan string
	send     func(string) error
	reason   func() string

	viewport viewport.Model
	input    textinput.Model
	lines    []string
	rendered []string

	status   string
	closed   bool
	quitting bool
}

// NewChatModel creates a chat view. send delivers a line to the server;
// reason, if set, describes why the connection ended.
func NewChatModel(me, roomID string, incoming <-chan string, send func(string) error, reason func() string) *ChatModel {
	input := textinput.New()
	input.Placeholder = "Type a message and press Enter"
	input.Prompt = "› "
	input.CharLimit = 4096
	input.Width = defaultChatWidth - 4
	input.Focus()

	return &ChatModel{
		me:       me,
		roomID:   roomID,
		incoming: incoming,
		send:     send,
		reason:   reason,
		viewport: viewport.New(defaultChatWidth, defaultChatHeight-chatChrome),
		input:    input,
	}
}

func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForLine())
}

func (m *ChatModel) waitForLine() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.incoming
		if !ok {
			return disconnectedMsg{}
		}
		return lineMsg(line)
	}
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chatChrome)
		m.input.Width = max(10, msg.Width-4)
		m.refresh()
		return m, nil

	case lineMsg:
		m.appendLine(string(msg), styleFor(string(msg)))
		return m, m.waitForLine()

	case disconnectedMsg:
		m.closed = true
		m.status = "Disconnected"
		if m.reason != nil {
			if r := m.reason(); r != "" {
				m.status = "Disconnected: " + r
			}
		}
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *ChatModel) submit() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.closed {
		return
	}
	if err := m.send(text); err != nil {
		m.status = err.Error()
		return
	}
	m.input.Reset()
	m.status = ""
	// The relay does not echo our own lines back.
	m.appendLine(m.me+": "+text, OwnLineStyle.Render)
}

func (m *ChatModel) appendLine(line string, render func(...string) string) {
	m.lines = append(m.lines, line)
	m.rendered = append(m.rendered, render(line))
	m.refresh()
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(strings.Join(m.rendered, "\n"))
	m.viewport.GotoBottom()
}

// Lines returns every line shown so far, unstyled.
func (m *ChatModel) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Status returns the footer message.
func (m *ChatModel) Status() string { return m.status }

// Closed reports whether the server ended the session.
func (m *ChatModel) Closed() bool { return m.closed }

func (m *ChatModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s\n", IconChat, TitleStyle.Render("pairchat"), MutedStyle.Render("room "+m.roomID+" as "+m.me))
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(WarningStyle.Render(m.status))
	} else {
		b.WriteString(MutedStyle.Render("Enter to send • Esc to leave"))
	}
	return b.String()
}

// styleFor picks a renderer for a line received from the server.
func styleFor(line string) func(...string) string {
	if strings.HasPrefix(line, "(") && strings.Contains(line, ") User ") {
		return AnnouncementStyle.Render
	}
	return PeerLineStyle.Render
}

// RunChat runs the chat view until the user leaves or the server closes
// the session.
func RunChat(m *ChatModel) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
