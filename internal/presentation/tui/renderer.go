package tui

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns assistant markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour-backed Renderer wrapped at width columns.
// If glamour cannot be initialised, the returned Renderer passes text through.
func NewRenderer(width int) Renderer {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return Plain
	}
	return r.Render
}

// Plain is the pass-through Renderer used when output is not a terminal.
func Plain(markdown string) (string, error) {
	return markdown + "\n", nil
}
