package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation graph",
	Long: `Outputs a Mermaid diagram (graph TD) of the conversation graph, or its JSON
description with --json. --visited and --current highlight a walk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := chatflow.New()
		if err != nil {
			return err
		}
		g := bot.Graph()
		out := cmd.OutOrStdout()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(map[string]any{
				"entry": g.Entry(),
				"nodes": g.Nodes(),
				"edges": g.Edges(),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		visited, _ := cmd.Flags().GetStringSlice("visited")
		current, _ := cmd.Flags().GetString("current")
		if len(visited) == 0 && current == "" {
			fmt.Fprint(out, g.Mermaid())
			return nil
		}
		fmt.Fprint(out, g.MermaidOverlay(&graph.Overlay{Visited: visited, Current: current}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("json", false, "Print the graph as JSON")
	graphCmd.Flags().StringSlice("visited", nil, "Nodes to highlight as visited")
	graphCmd.Flags().String("current", "", "Node to highlight as current")
}
