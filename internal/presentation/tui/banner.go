package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the LAO banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _        _    ___  ", "#34d399"},
		{" | |      /_\\  / _ \\ ", "#2dd4bf"},
		{" | |__   / _ \\| (_) |", "#22d3ee"},
		{" |____| /_/ \\_\\\\___/ ", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(" local plugin workflows").Faint())
	fmt.Fprintln(w)
}
