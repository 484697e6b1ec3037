package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const logoASCII = `
 _ _                         _
| (_)_ __   __ _  ___  _ __ (_)_ __   ___
| | | '_ \ / _' |/ _ \| '_ \| | '_ \ / _ \
| | | | | | (_| | (_) | |_) | | |_) |  __/
|_|_|_| |_|\__, |\___/| .__/|_| .__/ \___|
           |___/      |_|     |_|         `

// Logo returns the lingopipe ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
