package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// App-level styles
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	// List styles
	ListItemTitle   lipgloss.Style
	ListItemDesc    lipgloss.Style
	SelectedTitle   lipgloss.Style
	SelectedDesc    lipgloss.Style
	SelectionMarker lipgloss.Style
	ID              lipgloss.Style
	Published       lipgloss.Style
	Unpublished     lipgloss.Style
	FilterLabel     lipgloss.Style

	// Form styles
	FormBox    lipgloss.Style
	FormLabel  lipgloss.Style
	FocusLabel lipgloss.Style
	FieldError lipgloss.Style
	Checkbox   lipgloss.Style

	// Detail view
	DetailTitle lipgloss.Style
	DetailBody  lipgloss.Style

	// Status styles
	Spinner lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Confirm lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}
	highlight := lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8CFF"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F5F", Dark: "#FF8888"}
	text := lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#fafafa"}

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		Footer: lipgloss.NewStyle().
			Foreground(subtle).
			MarginTop(1),

		ListItemTitle: lipgloss.NewStyle().
			Foreground(text),

		ListItemDesc: lipgloss.NewStyle().
			Foreground(subtle),

		SelectedTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		SelectedDesc: lipgloss.NewStyle().
			Foreground(highlight),

		SelectionMarker: lipgloss.NewStyle().
			Foreground(highlight).
			SetString("› "),

		ID: lipgloss.NewStyle().
			Foreground(subtle).
			Width(6),

		Published: lipgloss.NewStyle().
			Foreground(special).
			SetString("● published"),

		Unpublished: lipgloss.NewStyle().
			Foreground(subtle).
			SetString("○ draft"),

		FilterLabel: lipgloss.NewStyle().
			Foreground(subtle).
			Italic(true),

		FormBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1),

		FormLabel: lipgloss.NewStyle().
			Foreground(subtle),

		FocusLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		FieldError: lipgloss.NewStyle().
			Foreground(errorColor),

		Checkbox: lipgloss.NewStyle().
			Foreground(text),

		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(text).
			MarginBottom(1),

		DetailBody: lipgloss.NewStyle().
			Foreground(text),

		Spinner: lipgloss.NewStyle().
			Foreground(special),

		Error: lipgloss.NewStyle().
			Foreground(errorColor),

		Success: lipgloss.NewStyle().
			Foreground(special),

		Muted: lipgloss.NewStyle().
			Foreground(subtle),

		Confirm: lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor),
	}
}
