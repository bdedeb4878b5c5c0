package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mergeguard/mergeguard/internal/types"
)

// Run starts the interactive finding browser for one reviewed file.
func Run(filename, language, source string, findings []types.Finding) error {
	m := NewModel(filename, language, source, findings)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
