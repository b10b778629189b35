package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	arbapp "github.com/LaurieHoff/MEVBot/business/arbitrage/app"
	arbdomain "github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	execdomain "github.com/LaurieHoff/MEVBot/business/execution/domain"
)

var _ arbapp.Reporter = (*Reporter)(nil)

// Reporter bridges scan results into the running Bubble Tea program.
type Reporter struct {
	program *tea.Program
}

// NewReporter creates a reporter for a running program.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{program: program}
}

// ReportOpportunities forwards a cycle's opportunities to the console.
func (r *Reporter) ReportOpportunities(opps []arbdomain.Opportunity) {
	if len(opps) == 0 {
		return
	}
	r.program.Send(OpportunitiesMsg{Opportunities: opps})
}

// ReportTrade forwards a simulated fill to the console.
func (r *Reporter) ReportTrade(result execdomain.TradeResult) {
	r.program.Send(TradeMsg{Result: result})
}
