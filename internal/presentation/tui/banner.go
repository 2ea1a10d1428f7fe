package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chatflow banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	lines := []struct {
		text  string
		color string
	}{
		{"        _           _    __ _               ", "#38bdf8"},
		{"   ___ | |__   __ _| |_ / _| | _____      __", "#60a5fa"},
		{"  / __|| '_ \\ / _` | __| |_| |/ _ \\ \\ /\\ / /", "#818cf8"},
		{" | (__ | | | | (_| | |_|  _| | (_) \\ V  V / ", "#a78bfa"},
		{"  \\___||_| |_|\\__,_|\\__|_| |_|\\___/ \\_/\\_/  ", "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}

// Dim renders s in a faint style, for status lines in the REPL.
func Dim(w io.Writer, s string) string {
	return termenv.NewOutput(w).String(s).Faint().String()
}
