package tui

import (
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"
)

// Snowflake brand blue for the banner.
const snowBlue = "#29B5E8"

// SNOWCHAT banner (filled block style).
var snowchatArt = []string{
	"  ███████╗███╗   ██╗ ██████╗ ██╗    ██╗ ██████╗██╗  ██╗ █████╗ ████████╗",
	"  ██╔════╝████╗  ██║██╔═══██╗██║    ██║██╔════╝██║  ██║██╔══██╗╚══██╔══╝",
	"  ███████╗██╔██╗ ██║██║   ██║██║ █╗ ██║██║     ███████║███████║   ██║   ",
	"  ╚════██║██║╚██╗██║██║   ██║██║███╗██║██║     ██╔══██║██╔══██║   ██║   ",
	"  ███████║██║ ╚████║╚██████╔╝╚███╔███╔╝╚██████╗██║  ██║██║  ██║   ██║   ",
	"  ╚══════╝╚═╝  ╚═══╝ ╚═════╝  ╚══╝╚══╝  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(snowBlue)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

// RenderBanner returns the SNOWCHAT ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range snowchatArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips contains getting started tips displayed under the banner.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Ask about your staged documents - answers come from their content",
	"  • Use /upload <path> to stage a document, /docs to list them",
	"  • Use /help to see all commands",
	"  • Press Ctrl+C to cancel, Ctrl+D to exit",
}

// RenderWelcomeTips returns the styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// trimBase returns the file name component of a local path, so staged
// documents keep their original names rather than local directory layout.
func trimBase(path string) string {
	return filepath.Base(path)
}
