package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joeunion/pidog/internal/behavior"
	"github.com/joeunion/pidog/internal/brain"
	"github.com/joeunion/pidog/internal/capability"
	"github.com/joeunion/pidog/internal/config"
	"github.com/joeunion/pidog/internal/maintainer"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/reasoner"
	"github.com/joeunion/pidog/internal/store"
	"github.com/joeunion/pidog/internal/templates"
	"github.com/joeunion/pidog/internal/tools"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Run the cognitive core with a live status dashboard",
	RunE:  runStatus,
}

const statusRefresh = 500 * time.Millisecond

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f2f2f2"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#101F38")).Foreground(lipgloss.Color("#f2f2f2"))
)

type tickMsg time.Time

const (
	statusHeaderHeight = 6
	statusFooterHeight = 2
	statusLogCapacity  = 200
)

// statusModel drives the live dashboard: a fixed header of health/maintainer
// rows plus a scrolling event log rendered in a viewport, the way the
// teacher's chat UI pairs a fixed header with a scrolling viewport
// (cmd/nerd/chat.go). A spinner substitutes for the static "last think"
// line while a think cycle is actually in flight.
type statusModel struct {
	name  string
	b     *brain.Brain
	maint *maintainer.Maintainer

	spinner spinner.Model
	vp      viewport.Model
	ready   bool

	log          []string
	lastThinkAt  time.Time
	lastMaintAt  time.Time
	lastObserved brain.State
}

func newStatusModel(name string, b *brain.Brain, maint *maintainer.Maintainer) statusModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = okStyle
	return statusModel{name: name, b: b, maint: maint, spinner: sp}
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(
		tea.Tick(statusRefresh, func(t time.Time) tea.Msg { return tickMsg(t) }),
		m.spinner.Tick,
	)
}

func (m *statusModel) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > statusLogCapacity {
		m.log = m.log[len(m.log)-statusLogCapacity:]
	}
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		vpHeight := msg.Height - statusHeaderHeight - statusFooterHeight
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = vpHeight
		}
		m.vp.SetContent(strings.Join(m.log, "\n"))
		m.vp.GotoBottom()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tickMsg:
		h := m.b.HealthStatus()
		if h.LastThinkSeen && h.LastThinkAt.After(m.lastThinkAt) {
			m.lastThinkAt = h.LastThinkAt
			if h.LastThinkOK {
				m.appendLog(fmt.Sprintf("[%s] think cycle ok", h.LastThinkAt.Format(time.Kitchen)))
			} else {
				m.appendLog(fmt.Sprintf("[%s] think cycle failed", h.LastThinkAt.Format(time.Kitchen)))
			}
		}
		if m.maint != nil {
			s := m.maint.LastStats()
			if !s.Skipped && !s.Timestamp.IsZero() && s.Timestamp.After(m.lastMaintAt) {
				m.lastMaintAt = s.Timestamp
				m.appendLog(fmt.Sprintf("[%s] maintenance %s decayed=%d consolidated=%d pruned=%d merged_faces=%d",
					s.Timestamp.Format(time.Kitchen), s.CycleID,
					s.DecayedCount, s.ConsolidatedCount, s.PrunedCount, s.MergedFacesCount))
			}
		}
		if h.State != m.lastObserved {
			m.lastObserved = h.State
			m.appendLog(fmt.Sprintf("[%s] state -> %s", time.Now().Format(time.Kitchen), h.State))
		}
		if m.ready {
			m.vp.SetContent(strings.Join(m.log, "\n"))
			m.vp.GotoBottom()
		}
		return m, tea.Tick(statusRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m statusModel) View() string {
	h := m.b.HealthStatus()

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
	}

	var thinkLine string
	switch {
	case h.State == brain.StateThinking:
		thinkLine = fmt.Sprintf("%s %s", m.spinner.View(), valueStyle.Render("thinking..."))
	case !h.LastThinkSeen:
		thinkLine = valueStyle.Render("no cycle yet")
	case h.LastThinkOK:
		thinkLine = okStyle.Render(fmt.Sprintf("ok @ %s", h.LastThinkAt.Format(time.Kitchen)))
	default:
		thinkLine = badStyle.Render(fmt.Sprintf("failed @ %s", h.LastThinkAt.Format(time.Kitchen)))
	}

	out := titleStyle.Render(fmt.Sprintf(" %s — cognitive core ", m.name)) + "\n\n"
	out += row("state", string(h.State))
	out += row("uptime", h.Uptime.Round(time.Second).String())
	out += row("queue depth", fmt.Sprintf("%d", h.QueueDepth))
	out += fmt.Sprintf("%s %s\n", labelStyle.Render("last think:"), thinkLine)

	if m.ready {
		out += "\n" + m.vp.View()
	}

	out += "\n" + valueStyle.Render("press q to quit")
	return out
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	pers, err := personality.Load(cfg.PersonalityPath)
	if err != nil {
		return fmt.Errorf("load personality: %w", err)
	}

	lib := templates.New()
	tree := behavior.New(lib)
	var vision capability.Vision
	dispatch := tools.New(st, pers, vision)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var brainReasoner reasoner.ExternalReasoner
	if !cfg.LocalOnly {
		genaiReasoner, err := reasoner.NewGenAIReasoner(ctx, cfg.ReasonerAPIKey, cfg.ReasonerModel)
		if err != nil {
			return fmt.Errorf("init reasoner: %w", err)
		}
		brainReasoner = reasoner.NewCachingReasoner(reasoner.NewRetryingReasoner(genaiReasoner))
	}

	b := brain.New(brain.Config{
		Store:             st,
		Pers:              pers,
		Lib:               lib,
		Dispatch:          dispatch,
		LocalOnly:         cfg.LocalOnly,
		Tree:              tree,
		Reasoner:          brainReasoner,
		MaxCallsPerMinute: cfg.MaxCallsPerMinute,
		MinThinkInterval:  cfg.MinThinkInterval,
		QueueCapacity:     100,
	})

	var maint *maintainer.Maintainer
	if cfg.MaintenanceEnabled {
		maint = maintainer.New(maintainer.Config{
			Store:    st,
			Reasoner: brainReasoner,
			IsBusy:   b.IsBusy,
			Interval: cfg.MaintenanceInterval,
		})
		go maint.Run(ctx)
	}

	go b.Run(ctx)

	p := tea.NewProgram(newStatusModel(cfg.Name, b, maint))
	_, err = p.Run()

	cancel()
	b.Stop(brainStopTimeout)
	if maint != nil {
		maint.Stop(brainStopTimeout)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return nil
}
