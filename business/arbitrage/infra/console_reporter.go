// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/LaurieHoff/MEVBot/business/arbitrage/app"
	"github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	execdomain "github.com/LaurieHoff/MEVBot/business/execution/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter prints scan results to stdout for headless runs.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// ReportOpportunities prints the ranked opportunity list for a cycle.
func (r *ConsoleReporter) ReportOpportunities(opps []domain.Opportunity) {
	if len(opps) == 0 {
		return
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "ARBITRAGE OPPORTUNITIES (%d)  %s\n", len(opps), time.Now().Format(time.RFC3339))
	fmt.Fprintln(r.out, "================================================================================")
	for i, opp := range opps {
		fmt.Fprintf(r.out, "%2d. %-12s %-24s  profit %s%%\n",
			i+1, opp.Pair(), opp.Route(), opp.ProfitPercent.StringFixed(4))
		fmt.Fprintf(r.out, "    %s: %s   %s: %s\n",
			opp.PoolA.Exchange, opp.PoolA.Price.StringFixed(6),
			opp.PoolB.Exchange, opp.PoolB.Price.StringFixed(6))
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// ReportTrade prints a simulated fill.
func (r *ConsoleReporter) ReportTrade(result execdomain.TradeResult) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "TRADE EXECUTED (simulated)")
	fmt.Fprintf(r.out, "  Pair:           %s\n", result.Pair)
	fmt.Fprintf(r.out, "  Route:          %s\n", result.Route)
	fmt.Fprintf(r.out, "  Size:           %s ETH\n", result.Amount.StringFixed(4))
	fmt.Fprintf(r.out, "  Gross Profit:   %s ETH\n", result.EstimatedProfit.StringFixed(6))
	fmt.Fprintf(r.out, "  Gas Cost:       %s ETH\n", result.GasCost.StringFixed(6))
	fmt.Fprintf(r.out, "  Net Profit:     %s ETH\n", result.NetProfit().StringFixed(6))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
}
