// Package components provides reusable console components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// OpportunityRow represents a detected divergence in the list.
type OpportunityRow struct {
	Time          string
	Pair          string
	Route         string
	ProfitPercent string
}

// OpportunitiesComponent renders the opportunities list.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
}

// NewOpportunitiesComponent creates an opportunities component keeping
// the most recent maxRows entries.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
	}
}

// Add prepends a new opportunity.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Clear drops all rows.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
}

// View renders the component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	result := headerStyle.Render("OPPORTUNITIES") + "\n"

	if len(o.rows) == 0 {
		return result + mutedStyle.Render("  none detected yet")
	}

	for _, row := range o.rows {
		result += fmt.Sprintf("  %s  %-10s %-22s %s\n",
			mutedStyle.Render(row.Time),
			row.Pair,
			row.Route,
			profitStyle.Render(row.ProfitPercent+"%"),
		)
	}

	return result
}
