package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cohabs/stripesync/pkg/reconcile"
)

var (
	green  = lipgloss.Color("76")
	white  = lipgloss.Color("252")
	cyan   = lipgloss.Color("51")
	red    = lipgloss.Color("204")
	bright = lipgloss.Color("120")
)

// badge is how one event kind is printed on the console.
type badge struct {
	Symbol string
	Label  string
	Style  lipgloss.Style
}

var badges = map[reconcile.EventKind]badge{
	reconcile.EventStart:    {"⏩", "START", lipgloss.NewStyle().Foreground(green)},
	reconcile.EventInfo:     {"⏳", "INFO", lipgloss.NewStyle().Foreground(white)},
	reconcile.EventWarning:  {"👋", "WARNING", lipgloss.NewStyle().Foreground(cyan)},
	reconcile.EventDanger:   {"🛑", "DANGER", lipgloss.NewStyle().Foreground(red).Bold(true)},
	reconcile.EventSuccess:  {"👌", "SUCCESS", lipgloss.NewStyle().Foreground(bright)},
	reconcile.EventFailure:  {"🚫", "FAILURE", lipgloss.NewStyle().Foreground(red)},
	reconcile.EventComplete: {"✅", "COMPLETE", lipgloss.NewStyle().Foreground(green).Bold(true)},
}

func badgeFor(kind reconcile.EventKind) badge {
	if b, ok := badges[kind]; ok {
		return b
	}
	return badges[reconcile.EventInfo]
}
