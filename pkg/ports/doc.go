/*
Package ports defines the driven ports (interfaces) of the chatflow engine.

These interfaces decouple the conversation graph and the session layer from
concrete model providers and storage backends.

# Key Interfaces

  - Completer: produces the assistant's reply for a transcript (OpenAI, Gemini, Echo).
  - StateStore: persists the terminal State of each session (Memory, File, Redis).
  - DistributedLocker: serializes turns of one session across replicas (Redis).
*/
package ports
