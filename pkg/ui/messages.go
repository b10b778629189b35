// Package ui provides the Bubble Tea console for the bot.
package ui

import (
	arbdomain "github.com/LaurieHoff/MEVBot/business/arbitrage/domain"
	execdomain "github.com/LaurieHoff/MEVBot/business/execution/domain"
)

// Message types for console updates

// OpportunitiesMsg carries the opportunities from a finished scan cycle.
type OpportunitiesMsg struct {
	Opportunities []arbdomain.Opportunity
}

// TradeMsg is sent when a simulated trade fills.
type TradeMsg struct {
	Result execdomain.TradeResult
}

// LogMsg mirrors a log record into the console viewport.
type LogMsg struct {
	Level   string // "debug", "info", "warn", "error"
	Message string
}

// TickMsg drives periodic redraws (status bar clocks, spinners).
type TickMsg struct{}
