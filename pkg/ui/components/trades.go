package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// TradeRow represents a simulated fill in the list.
type TradeRow struct {
	Time      string
	Pair      string
	Route     string
	NetProfit string
	Positive  bool
}

// TradesComponent renders recent simulated fills.
type TradesComponent struct {
	rows    []TradeRow
	maxRows int
}

// NewTradesComponent creates a trades component keeping the most recent
// maxRows entries.
func NewTradesComponent(maxRows int) *TradesComponent {
	return &TradesComponent{
		rows:    make([]TradeRow, 0),
		maxRows: maxRows,
	}
}

// Add prepends a new trade.
func (t *TradesComponent) Add(row TradeRow) {
	t.rows = append([]TradeRow{row}, t.rows...)
	if len(t.rows) > t.maxRows {
		t.rows = t.rows[:t.maxRows]
	}
}

// View renders the component.
func (t *TradesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	gainStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	lossStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	result := headerStyle.Render("TRADES (simulated)") + "\n"

	if len(t.rows) == 0 {
		return result + mutedStyle.Render("  no trades executed yet")
	}

	for _, row := range t.rows {
		style := gainStyle
		if !row.Positive {
			style = lossStyle
		}
		result += fmt.Sprintf("  %s  %-10s %-22s %s\n",
			mutedStyle.Render(row.Time),
			row.Pair,
			row.Route,
			style.Render(row.NetProfit+" ETH"),
		)
	}

	return result
}
