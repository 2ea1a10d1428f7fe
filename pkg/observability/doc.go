/*
Package observability turns executor lifecycle events into Prometheus
metrics and structured log lines.

Both are delivered as domain.LifecycleHooks and can be combined with
LifecycleHooks.Merge before being passed to graph.WithLifecycleHooks.
*/
package observability
