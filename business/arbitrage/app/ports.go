package app

import (
	"github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	execdomain "github.com/LaurieHoff/MEVBot/business/execution/domain"
)

// Reporter receives scan results for presentation. Implementations must
// not block; the scan loop calls them inline.
type Reporter interface {
	ReportOpportunities(opps []domain.Opportunity)
	ReportTrade(result execdomain.TradeResult)
}
