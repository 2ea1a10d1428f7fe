package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventWalkStart EventType = "walk_start"
	EventWalkEnd   EventType = "walk_end"
)

// WalkStatus is the executor's state for a single walk.
type WalkStatus string

const (
	WalkRunning  WalkStatus = "running"
	WalkTerminal WalkStatus = "terminal"
	WalkFailed   WalkStatus = "failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	WalkID    string    `json:"walk_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	Node string `json:"node"`
	// Step is the 1-based position of the node within the walk.
	Step int `json:"step"`
	// Next is the resolved destination; only set on leave.
	Next     string        `json:"next,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// WalkEvent represents the start or end of a walk.
type WalkEvent struct {
	EventBase
	Status WalkStatus `json:"status"`
	Steps  int        `json:"steps"`
	Err    error      `json:"-"`
}

// LifecycleHooks defines callbacks for executor observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnWalkStart func(context.Context, *WalkEvent)
	OnWalkEnd   func(context.Context, *WalkEvent)
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnWalkStart: chainWalk(h.OnWalkStart, other.OnWalkStart),
		OnWalkEnd:   chainWalk(h.OnWalkEnd, other.OnWalkEnd),
		OnNodeEnter: chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave: chainNode(h.OnNodeLeave, other.OnNodeLeave),
	}
}

func chainWalk(a, b func(context.Context, *WalkEvent)) func(context.Context, *WalkEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *WalkEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
