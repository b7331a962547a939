// Package tui implements the terminal monitor shown while a run is generating
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oisee/oscgen/pkg/audio"
	"github.com/oisee/oscgen/pkg/patch"
)

// Progress is the part of a Generator the monitor reads
type Progress interface {
	State() audio.State
	Ticks() int64
	Total() int64
}

// DoneMsg tells the monitor the run has ended
type DoneMsg struct {
	Err error
}

// Model is the monitor TUI model
type Model struct {
	Config   *patch.RunConfig
	Progress Progress
	Tap      *Tap
	Stop     func() // Cancels the run, called on quit

	// View state
	Width    int
	Height   int
	ShowHelp bool
	Frozen   bool

	// Last polled run state
	State   audio.State
	Ticks   int64
	Total   int64
	Scope   []byte
	Started time.Time
	Elapsed time.Duration
	Done    bool
	Err     error
}

// NewModel creates a monitor for a run
func NewModel(cfg *patch.RunConfig, progress Progress, tap *Tap, stop func()) Model {
	return Model{
		Config:   cfg,
		Progress: progress,
		Tap:      tap,
		Stop:     stop,
		Width:    80,
		Height:   24,
		Total:    -1,
		Started:  time.Now(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
	)
}

// tickMsg is sent periodically to poll the generator
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		m.poll(time.Time(msg))
		if m.Done {
			return m, nil
		}
		return m, tickCmd()

	case DoneMsg:
		m.poll(time.Now())
		m.Done = true
		m.Err = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) poll(now time.Time) {
	if m.Progress != nil {
		m.State = m.Progress.State()
		m.Ticks = m.Progress.Ticks()
		m.Total = m.Progress.Total()
	}
	if m.Tap != nil && !m.Frozen {
		m.Scope = m.Tap.Snapshot()
	}
	if !m.Done {
		m.Elapsed = now.Sub(m.Started)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.Stop != nil {
			m.Stop()
		}
		return m, tea.Quit

	case "f1", "?":
		m.ShowHelp = !m.ShowHelp

	case " ":
		m.Frozen = !m.Frozen
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	if m.ShowHelp {
		return m.helpView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.wavesView())
	b.WriteString("\n")
	b.WriteString(m.progressView())
	b.WriteString("\n\n")
	b.WriteString(m.scopeView())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("14")).
		Render("OSCGEN")

	state := strings.ToUpper(m.State.String())
	stateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	switch {
	case m.Err != nil:
		state = "FAILED"
		stateStyle = stateStyle.Foreground(lipgloss.Color("9"))
	case m.State == audio.StateRunning:
		stateStyle = stateStyle.Foreground(lipgloss.Color("10"))
	}

	output := m.Config.Output
	if output == "" || output == "-" {
		output = "stdout"
	}
	info := fmt.Sprintf(" │ %d Hz │ %s │ %s │ ", m.Config.SampleRate, m.Config.Container, output)

	return title + info + stateStyle.Render(state)
}

func (m Model) wavesView() string {
	if len(m.Config.Waves) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("  no waves\n")
	}

	head := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("  %-3s %-10s %12s %8s  %s", "#", "GENERATOR", "FREQUENCY", "OFFSET", "NOTE")))
	b.WriteString("\n")
	for i, w := range m.Config.Waves {
		fmt.Fprintf(&b, "  %-3d %-10s %9.2f Hz %7.1f°  %s\n", i+1, w.Generator, w.Frequency, w.Offset, w.Note)
	}
	return b.String()
}

func (m Model) progressView() string {
	seconds := float64(m.Ticks) / float64(max(m.Config.SampleRate, 1))
	if m.Total < 0 {
		return fmt.Sprintf("  %d samples (%.2fs of audio) in %s, unbounded",
			m.Ticks, seconds, m.Elapsed.Truncate(time.Millisecond))
	}

	width := max(m.Width-30, 10)
	frac := 1.0
	if m.Total > 0 {
		frac = min(float64(m.Ticks)/float64(m.Total), 1)
	}
	filled := int(frac * float64(width))
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(strings.Repeat("░", width-filled))

	return fmt.Sprintf("  %s %3.0f%% %s/%s", bar, frac*100,
		strconv.FormatInt(m.Ticks, 10), strconv.FormatInt(m.Total, 10))
}

// scopeView plots the most recent samples, one column per sample
func (m Model) scopeView() string {
	rows := max(m.Height-12-len(m.Config.Waves), 5)
	cols := max(m.Width-4, 10)

	samples := m.Scope
	if len(samples) > cols {
		samples = samples[len(samples)-cols:]
	}

	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", cols))
	}
	mid := rows / 2
	for c := range cols {
		grid[mid][c] = '·'
	}
	for c, s := range samples {
		r := (255 - int(s)) * rows / 256
		grid[r][c] = '•'
	}

	trace := lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	var b strings.Builder
	for _, row := range grid {
		b.WriteString("  ")
		b.WriteString(trace.Render(string(row)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) footerView() string {
	keys := " [Space]Freeze scope [F1]Help [Q]Quit"
	if m.Done {
		keys = " Run finished. [Q]Quit"
		if m.Err != nil {
			keys = fmt.Sprintf(" Run failed: %v. [Q]Quit", m.Err)
		}
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(keys)
}

func (m Model) helpView() string {
	help := `
╔════════════════════════════════════════════╗
║                OSCGEN MONITOR              ║
╠════════════════════════════════════════════╣
║   Space     Freeze / resume the scope      ║
║   F1 ?      Toggle this help               ║
║   Q Esc     Stop generating and quit       ║
║                                            ║
║   The scope shows the latest 8-bit         ║
║   samples; the dotted line is silence.     ║
║                                            ║
║                        [F1] Close help     ║
╚════════════════════════════════════════════╝
`
	return lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Render(help)
}
