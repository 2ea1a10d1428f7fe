/*
Package graph implements the turn-execution engine of chatflow.

A Graph is a closed set of named nodes (pure State -> State functions) and an
edge table that says where each node continues: a fixed destination, the
Terminal marker, or a router that picks a branch from the node's output.
Graphs are assembled with a Builder, validated once by Compile, and are
read-only afterwards, so a single Graph can serve any number of concurrent
walks.

An Executor walks a Graph for one conversation turn:

	b := graph.NewBuilder()
	_ = b.AddNode("respond", respond)
	_ = b.AddEdge("respond", domain.Terminal)
	_ = b.SetEntry("respond")
	g, err := b.Compile()
	...
	exec, err := graph.NewExecutor(g, graph.WithMaxSteps(10))
	final, err := exec.Run(ctx, initial)

Every walk is bounded by a finite step budget, checks for cancellation
between steps, and reports failures with the typed errors of package domain.
*/
package graph
