// Package tui implements tbmeter's live dashboard: a terminal view of a
// running guest's instruction counter, syscall tally, and mmap/heap
// gauges, refreshed by ticking the engine's own Snapshot rather than by
// re-deriving state from the host.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"

	"github.com/duskforge/tbmeter/internal/engine"
)

const tickInterval = 200 * time.Millisecond

// Model is the dashboard's Elm-architecture state. It holds a reference to
// the live engine so every tick can pull a fresh Snapshot, plus the
// progress-bar widgets bubbles needs to animate smoothly between ticks.
type Model struct {
	engine *engine.Engine
	snap   engine.Snapshot

	insnBar progress.Model
	mmapBar progress.Model

	quitting bool
}

// NewModel builds a dashboard bound to a live engine. Run the returned
// model with tea.NewProgram while host.Run executes in its own goroutine.
func NewModel(e *engine.Engine) Model {
	return Model{
		engine:  e,
		insnBar: progress.New(progress.WithDefaultGradient()),
		mmapBar: progress.New(progress.WithSolidFill("63")),
	}
}

// Init starts the refresh tick.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type tickMsg time.Time

// Run launches the dashboard against a live engine and blocks until the
// operator quits it with q/ctrl+c/esc or the instruction limit is reached.
// A guest that exits on its own does not close the dashboard.
func Run(e *engine.Engine) error {
	_, err := tea.NewProgram(NewModel(e)).Run()
	return err
}
