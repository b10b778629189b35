package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	arbapp "github.com/LaurieHoff/MEVBot/business/arbitrage/app"
	"github.com/LaurieHoff/MEVBot/pkg/ui/components"
)

const (
	scrollbackMax = 200
	visibleLines  = 14
)

// Model is the Bubble Tea model for the command console.
type Model struct {
	ctx  context.Context
	core Core

	input textinput.Model
	keys  KeyMap

	opportunities *components.OpportunitiesComponent
	trades        *components.TradesComponent

	scrollback []string
	width      int
	height     int
	quitting   bool
}

// NewModel creates the console model.
func NewModel(ctx context.Context, core Core) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, e.g. help"
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.Focus()

	return Model{
		ctx:           ctx,
		core:          core,
		input:         ti,
		keys:          DefaultKeyMap(),
		opportunities: components.NewOpportunitiesComponent(8),
		trades:        components.NewTradesComponent(8),
		scrollback:    []string{"Type 'help' for available commands."},
	}
}

// Init starts the redraw ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// gasMsg is the async result of the gas command.
type gasMsg struct {
	gwei float64
	err  error
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.core.StopScanner()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Execute):
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			return m.dispatch(line)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tickCmd()

	case OpportunitiesMsg:
		for _, opp := range msg.Opportunities {
			m.opportunities.Add(components.OpportunityRow{
				Time:          opp.DetectedAt.Format("15:04:05"),
				Pair:          opp.Pair(),
				Route:         opp.Route(),
				ProfitPercent: opp.ProfitPercent.StringFixed(4),
			})
		}

	case TradeMsg:
		m.trades.Add(components.TradeRow{
			Time:      msg.Result.ExecutedAt.Format("15:04:05"),
			Pair:      msg.Result.Pair,
			Route:     msg.Result.Route,
			NetProfit: msg.Result.NetProfit().StringFixed(6),
			Positive:  msg.Result.NetProfit().IsPositive(),
		})

	case LogMsg:
		m = m.print(fmt.Sprintf("[%s] %s", msg.Level, msg.Message))

	case gasMsg:
		if msg.err != nil {
			m = m.print(fmt.Sprintf("gas: %v", msg.err))
		} else {
			m = m.print(fmt.Sprintf("gas price: %.2f gwei", msg.gwei))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// dispatch executes one typed command.
func (m Model) dispatch(line string) (Model, tea.Cmd) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	m = m.print("> " + line)

	switch cmd {
	case "start":
		if err := m.core.StartScanner(m.ctx); err != nil {
			return m.print(fmt.Sprintf("start: %v", err)), nil
		}
		return m.print("scanner started"), nil

	case "stop":
		m.core.StopScanner()
		return m.print("scanner stopped"), nil

	case "status":
		return m.printStatus(), nil

	case "stats":
		return m.printStats(), nil

	case "pairs":
		return m.printPairs(), nil

	case "gas":
		core, ctx := m.core, m.ctx
		return m, func() tea.Msg {
			price, err := core.GasPrice(ctx)
			if err != nil {
				return gasMsg{err: err}
			}
			return gasMsg{gwei: price.Gwei()}
		}

	case "risk":
		return m.printRisk(), nil

	case "loglevel":
		if len(args) != 1 {
			return m.print("usage: loglevel <debug|info|warn|error>"), nil
		}
		if err := m.core.SetLogLevel(args[0]); err != nil {
			return m.print(fmt.Sprintf("loglevel: %v", err)), nil
		}
		return m.print("log level set to " + args[0]), nil

	case "help":
		return m.printHelp(), nil

	case "exit", "quit":
		m.quitting = true
		m.core.StopScanner()
		return m, tea.Quit

	default:
		return m.print(fmt.Sprintf("unknown command %q, try 'help'", cmd)), nil
	}
}

func (m Model) print(lines ...string) Model {
	for _, line := range lines {
		m.scrollback = append(m.scrollback, line)
	}
	if len(m.scrollback) > scrollbackMax {
		m.scrollback = m.scrollback[len(m.scrollback)-scrollbackMax:]
	}
	return m
}

func (m Model) printStatus() Model {
	st := m.core.ScannerStatus(m.ctx)

	state := "stopped"
	if st.Running {
		state = "running"
	}
	if st.Halted {
		state += " (trading halted: daily loss limit)"
	}

	m = m.print(
		"scanner:     "+state,
		fmt.Sprintf("cycles:      %d", st.CycleCount),
	)
	if !st.LastCycleAt.IsZero() {
		m = m.print("last cycle:  " + st.LastCycleAt.Format(time.RFC3339))
	}
	if st.LastError != nil {
		m = m.print(fmt.Sprintf("last error:  %v", st.LastError))
	}
	return m
}

func (m Model) printStats() Model {
	stats := m.core.DailyStats()
	return m.print(
		"day:         "+stats.Day,
		fmt.Sprintf("trades:      %d", stats.TradeCount),
		"profit:      "+stats.CumulativeProfit.StringFixed(6)+" ETH",
		"loss:        "+stats.CumulativeLoss.StringFixed(6)+" ETH",
	)
}

func (m Model) printPairs() Model {
	pools := m.core.Pools()
	m = m.print(fmt.Sprintf("watching %d pools:", len(pools)))
	for _, p := range pools {
		m = m.print(fmt.Sprintf("  %-12s %-12s %s", p.Pair(), p.Exchange, p.Address.Hex()))
	}
	return m
}

func (m Model) printRisk() Model {
	cfg := m.core.RiskConfig()
	return m.print(
		"min profit threshold:    "+cfg.MinProfitThreshold.String(),
		"max slippage tolerance:  "+cfg.MaxSlippageTolerance.String()+"%",
		"max gas price:           "+cfg.MaxGasPriceGwei.String()+" gwei",
		"max trade size:          "+cfg.MaxTradeSize.String()+" ETH",
		"max daily loss:          "+cfg.MaxDailyLoss.String()+" ETH",
		"suspicious profit bound: "+cfg.SuspiciousProfitBound.String()+"%",
	)
}

func (m Model) printHelp() Model {
	return m.print(
		"commands:",
		"  start     start the scan loop",
		"  stop      stop the scan loop (finishes the in-flight cycle)",
		"  status    scanner state and cycle counters",
		"  stats     today's trading stats",
		"  pairs     watched pools",
		"  gas       current gas price",
		"  risk      risk thresholds",
		"  loglevel  change log verbosity",
		"  exit      stop and quit",
	)
}

// View renders the console.
func (m Model) View() string {
	if m.quitting {
		return "\n  bye\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" MEV Bot "))
	b.WriteString("\n\n")

	st := m.core.ScannerStatus(m.ctx)
	b.WriteString(m.renderStatusBar(st))
	b.WriteString("\n\n")

	// Scrollback on the left, live panels on the right.
	tail := m.scrollback
	if len(tail) > visibleLines {
		tail = tail[len(tail)-visibleLines:]
	}
	leftCol := strings.Join(tail, "\n")

	rightCol := m.opportunities.View() + "\n" + m.trades.View()

	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 20 {
			width = 76
		}
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("enter: run command • ctrl+c: quit • 'help' for commands"))

	return b.String()
}

func (m Model) renderStatusBar(st arbapp.ScannerStatus) string {
	var parts []string

	switch {
	case st.Halted:
		parts = append(parts, StatusHalted.Render("⏸ HALTED"))
	case st.Running:
		parts = append(parts, StatusRunning.Render("● RUNNING"))
	default:
		parts = append(parts, StatusStopped.Render("○ STOPPED"))
	}

	parts = append(parts, fmt.Sprintf("cycles: %d", st.CycleCount))

	if !st.LastCycleAt.IsZero() {
		ago := time.Since(st.LastCycleAt).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("last cycle: %s ago", ago)))
	}
	if st.LastError != nil {
		parts = append(parts, NegativeValue.Render("last cycle errored"))
	}

	return strings.Join(parts, "  │  ")
}
