package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Overlay highlights walk progress on a rendered diagram.
type Overlay struct {
	Visited []string
	Current string
}

// Mermaid renders the graph as a Mermaid flowchart.
func (g *Graph) Mermaid() string {
	return g.MermaidOverlay(nil)
}

// MermaidOverlay renders the graph as a Mermaid flowchart with visited and
// current steps styled.
//
// Shapes: the entry step is a circle, the terminal marker a stadium, every
// other step a rectangle. Conditional edges are labelled with their branch key.
func (g *Graph) MermaidOverlay(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, name := range g.Nodes() {
		opener, closer := "[", "]"
		if name == g.entry {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(name), opener, name, closer)
	}

	terminal := false
	for _, e := range g.Edges() {
		if e.To == domain.Terminal {
			terminal = true
		}
		arrow := "-->"
		if e.Conditional {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(e.Branch, "\"", "'"))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", mermaidID(e.From), arrow, mermaidID(e.To))
	}
	if terminal {
		fmt.Fprintf(&sb, "    %s([\"end\"])\n", mermaidID(domain.Terminal))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Visited {
			id := mermaidID(name)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", mermaidID(overlay.Current))
		}
	}

	return sb.String()
}

var mermaidReplacer = strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")

func mermaidID(name string) string {
	if name == domain.Terminal {
		return "END"
	}
	return mermaidReplacer.Replace(name)
}
