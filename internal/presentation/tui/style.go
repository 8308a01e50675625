package tui

import (
	"github.com/aretw0/lao/pkg/domain"
	"github.com/muesli/termenv"
)

// Style colours status words. The zero value prints plain text.
type Style struct {
	profile termenv.Profile
	enabled bool
}

// NewStyle returns a Style that colours only when color is true.
func NewStyle(color bool) Style {
	if !color {
		return Style{profile: termenv.Ascii}
	}
	return Style{profile: termenv.ColorProfile(), enabled: true}
}

var statusColors = map[domain.Status]string{
	domain.StatusPending: "#9e9e9e",
	domain.StatusRunning: "#2196f3",
	domain.StatusSuccess: "#4caf50",
	domain.StatusCache:   "#ab47bc",
	domain.StatusError:   "#f44336",
}

// Status colours s by the given status.
func (st Style) Status(status domain.Status, s string) string {
	if !st.enabled {
		return s
	}
	c, ok := statusColors[status]
	if !ok {
		return s
	}
	return termenv.String(s).Foreground(st.profile.Color(c)).String()
}

// Faint dims s.
func (st Style) Faint(s string) string {
	if !st.enabled {
		return s
	}
	return termenv.String(s).Faint().String()
}

// Bold emphasises s.
func (st Style) Bold(s string) string {
	if !st.enabled {
		return s
	}
	return termenv.String(s).Bold().String()
}
