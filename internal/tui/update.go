package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"

	"github.com/duskforge/tbmeter/internal/engine"
)

// Update handles key presses, the refresh tick, and the bubbles progress
// widgets' own frame-animation messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.snap = m.engine.Snapshot()
		if m.snap.LimitReached {
			return m, tea.Quit
		}
		return m, tea.Batch(tickCmd(), m.insnBar.SetPercent(insnFraction(m.snap)), m.mmapBar.SetPercent(mmapFraction(m.snap)))

	case progress.FrameMsg:
		insnModel, insnCmd := m.insnBar.Update(msg)
		m.insnBar = insnModel.(progress.Model)
		mmapModel, mmapCmd := m.mmapBar.Update(msg)
		m.mmapBar = mmapModel.(progress.Model)
		return m, tea.Batch(insnCmd, mmapCmd)
	}
	return m, nil
}

// insnFraction reports how close the guest is to its instruction ceiling,
// 0 when no limit was configured (an unbounded run has nothing to fill).
func insnFraction(s engine.Snapshot) float64 {
	if s.InsnLimit == 0 {
		return 0
	}
	f := float64(s.InsnCount) / float64(s.InsnLimit)
	if f > 1 {
		f = 1
	}
	return f
}

// mmapFraction shows mmap usage relative to its own peak, so the bar is
// meaningful even without a configured ceiling.
func mmapFraction(s engine.Snapshot) float64 {
	if s.GuestMmapPeak == 0 {
		return 0
	}
	f := float64(s.GuestMmapBytes) / float64(s.GuestMmapPeak)
	if f > 1 {
		f = 1
	}
	return f
}
