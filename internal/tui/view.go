package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/duskforge/tbmeter/internal/engine"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// View renders the dashboard: instruction progress, syscall tally, and
// mmap/heap gauges, refreshed from the engine's Snapshot on every tick.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{
		headerStyle.Render("tbmeter watch"),
		"",
		fmt.Sprintf("%s %s", labelStyle.Render("instructions:"), insnLabel(m.snap)),
		m.insnBar.View(),
		"",
		fmt.Sprintf("%s %d", labelStyle.Render("syscalls:"), m.snap.SyscallCount),
		fmt.Sprintf("%s %d bytes (peak %d)", labelStyle.Render("mmap:"), m.snap.GuestMmapBytes, m.snap.GuestMmapPeak),
		m.mmapBar.View(),
		fmt.Sprintf("%s %d bytes", labelStyle.Render("heap:"), m.snap.GuestHeapBytes),
	}

	if m.snap.LimitReached {
		lines = append(lines, "", alertStyle.Render("instruction limit reached, guest aborted"))
	}

	lines = append(lines, "", labelStyle.Render("press q to quit"))
	return strings.Join(lines, "\n")
}

func insnLabel(s engine.Snapshot) string {
	if s.InsnLimit == 0 {
		return fmt.Sprintf("%d", s.InsnCount)
	}
	return fmt.Sprintf("%d / %d", s.InsnCount, s.InsnLimit)
}
