package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RoomInfo describes a paired room for display.
type RoomInfo struct {
	RoomID  string
	Members []string
	Server  string
}

// MembersTable renders the room members using lipgloss/table.
func (r RoomInfo) MembersTable() string {
	rows := make([][]string, 0, len(r.Members))
	for i, m := range r.Members {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), m})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "Member").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

func (r RoomInfo) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Room Ready!\n\n", IconSuccess)
	fmt.Fprintf(&b, "%s Room ID:  %s\n", IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID))
	if r.Server != "" {
		fmt.Fprintf(&b, "%s Server:   %s\n", IconWeb, MutedStyle.Render(r.Server))
	}
	b.WriteString("\n")
	b.WriteString(r.MembersTable())
	return RoomBoxStyle.Render(b.String())
}

// Render outputs the room box to Output.
func (r RoomInfo) Render() {
	fmt.Fprintln(Output, r.View())
}
