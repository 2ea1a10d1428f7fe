package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMermaid(t *testing.T) {
	b := graph.NewBuilder()
	require.NoError(t, b.AddNode("respond", passthrough(nil)))
	require.NoError(t, b.AddNode("tool-call", passthrough(nil)))
	require.NoError(t, b.AddConditionalEdges("respond", constRouter("done"), map[string]string{
		"done":           domain.Terminal,
		"needs \"tool\"": "tool-call",
	}))
	require.NoError(t, b.AddEdge("tool-call", "respond"))
	require.NoError(t, b.SetEntry("respond"))
	g := compile(t, b)

	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes and Edges",
			contains: []string{
				"graph TD\n",
				"respond((\"respond\"))",
				"tool_call[\"tool-call\"]",
				"respond -- \"done\" --> END",
				"respond -- \"needs 'tool'\" --> tool_call",
				"tool_call --> respond",
				"END([\"end\"])",
			},
			excludes: []string{"classDef"},
		},
		{
			name:    "Overlay",
			overlay: &graph.Overlay{Visited: []string{"respond", "tool-call", "respond"}, Current: "respond"},
			contains: []string{
				"classDef visited",
				"class respond visited;",
				"class tool_call visited;",
				"class respond current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := g.MermaidOverlay(tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
			if tt.overlay != nil {
				assert.Equal(t, 1, strings.Count(out, "class respond visited;"))
			}
		})
	}

	assert.Equal(t, g.MermaidOverlay(nil), g.Mermaid())
}
