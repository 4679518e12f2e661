// Package tui is a terminal console for the rig: a live view of the
// shared state with hotkeys for the common operator actions. It talks to
// the same engine the web front end does.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/physlab/atomrig/internal/engine"
	"github.com/physlab/atomrig/internal/state"
)

const historyCapacity = 120

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(36)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 2)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

var modeNames = map[int]string{
	1: "orbital browser",
	2: "excitation",
	3: "thermodynamics",
	4: "photoelectric",
	5: "band theory",
	6: "radioactive decay",
}

type TickMsg time.Time

type Model struct {
	engine  *engine.Engine
	store   *state.Store
	history []float64
}

func NewModel(eng *engine.Engine, st *state.Store) Model {
	return Model{
		engine:  eng,
		store:   st,
		history: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1", "2", "3", "4", "5", "6":
			m.engine.SetMode(int(msg.String()[0] - '0'))
		case "s":
			m.engine.StartDecay()
		case "d":
			m.engine.SetMode2Kind(!m.store.Mode2Demo())
		case "+":
			m.engine.SetHalfLife(m.store.DecayHalfLife() + 5)
		case "-":
			m.engine.SetHalfLife(m.store.DecayHalfLife() - 5)
		}
		return m, nil

	case TickMsg:
		count := float64(m.store.DecayCount())
		m.history = append(m.history, count)
		if len(m.history) > historyCapacity {
			m.history = m.history[len(m.history)-historyCapacity:]
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	snap := m.store.Snapshot()

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}

	running := "idle"
	if snap.DecayRunning {
		running = activeStyle.Render("running")
	}
	demo := "live"
	if snap.Mode2Demo {
		demo = "demo"
	}

	stats := headerStyle.Render(fmt.Sprintf("mode %d: %s", snap.Mode, modeNames[snap.Mode])) + "\n" +
		row("temperature", fmt.Sprintf("%.1f °C", snap.Temperature)) +
		row("light", fmt.Sprintf("%d", snap.LightLevel)) +
		row("photo current", fmt.Sprintf("%.1f µA", snap.PhotoCurrent)) +
		row("base element", snap.Mode2Base) +
		row("mode 2 input", demo) +
		row("half-life", fmt.Sprintf("%d s", snap.DecayHalfLife)) +
		row("population", fmt.Sprintf("%d / %d", snap.DecayCount, state.InitialPopulation)) +
		row("decay run", running)

	graph := ""
	if len(m.history) > 1 {
		graph = graphStyle.Render(asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("decay population"),
		))
	}

	help := helpStyle.Render("1-6 mode · s start decay · d toggle demo/live · +/- half-life · q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, statsStyle.Render(stats), graph),
		help,
	)
}

// Run blocks until the operator quits the console.
func Run(eng *engine.Engine, st *state.Store) error {
	p := tea.NewProgram(NewModel(eng, st))
	_, err := p.Run()
	return err
}
