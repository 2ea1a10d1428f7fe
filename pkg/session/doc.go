/*
Package session implements session management and persistence orchestration.

A Manager serializes access to each conversation with reference-counted
in-process mutexes and, optionally, a ports.DistributedLocker shared by
every replica. Turn is the single entry point used by the CLI, the HTTP API
and the MCP server: it loads a transcript, appends the user's message, runs
one walk of the conversation graph and saves the result only when the walk
reaches the terminal step.
*/
package session
