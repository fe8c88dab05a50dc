// Package report renders scan results and stored applications for the
// terminal, and exports records as CSV or JSON.
package report

import (
	"github.com/charmbracelet/lipgloss"

	"jobmail-engine/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("45")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Width(22)

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	statusColors = map[domain.Status]lipgloss.Color{
		domain.StatusApplied:      lipgloss.Color("250"),
		domain.StatusInterviewing: lipgloss.Color("46"),
		domain.StatusRejected:     lipgloss.Color("203"),
		domain.StatusOffer:        lipgloss.Color("226"),
	}
)

func statusStyle(s domain.Status) lipgloss.Style {
	st := cellStyle
	if c, ok := statusColors[s]; ok {
		st = st.Foreground(c)
	}
	return st
}
