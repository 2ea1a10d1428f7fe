/*
Package domain contains the core domain models for the chatflow engine.

It defines the values that flow through a conversation turn: Messages, the
per-walk State, lifecycle events, and the typed error taxonomy shared by the
graph runtime and its callers. This package is kept pure and free of I/O,
following Hexagonal Architecture principles.

# Key Entities

  - Message: a single transcript entry (role + text).
  - State: the immutable snapshot a node receives and returns (transcript,
    current step, metadata).
  - StateDiff: what changed between two States (appended messages, metadata).
  - LifecycleHooks: callbacks fired by the executor for observability.
*/
package domain
