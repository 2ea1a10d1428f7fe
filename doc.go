/*
Package chatflow is a graph-based turn-execution engine for conversational assistants.

A conversation turn is a walk through a small compiled graph of nodes. Each
node receives an immutable State (the transcript plus metadata) and returns a
new one. The executor follows fixed and conditional edges until the walk
reaches the terminal marker or exhausts its step budget.

# Concept

The core (pkg/domain, pkg/graph) knows nothing about models, storage or user
interfaces. Completion providers, session stores and locks are plugged in
through the interfaces in pkg/ports, and the Bot type in this package wires
them together with sensible defaults.

# Usage

	bot, err := chatflow.New(
		chatflow.WithCompleter(echo.New()),
		chatflow.WithSystemPrompt("You are a helpful assistant."),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer bot.Close()

	reply, err := bot.Reply(ctx, "session-123", "Hello!")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Content)

Sessions are serialised per ID: concurrent turns on the same session run one
after the other, while different sessions proceed in parallel. A failed turn
leaves the stored transcript untouched.
*/
package chatflow
