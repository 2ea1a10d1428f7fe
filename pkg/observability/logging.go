package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failed walks
// at warn. A nil logger discards everything.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		logger = logging.NewNop()
	}
	return domain.LifecycleHooks{
		OnWalkStart: func(ctx context.Context, e *domain.WalkEvent) {
			logger.DebugContext(ctx, "walk_start", "walk_id", e.WalkID)
		},
		OnWalkEnd: func(ctx context.Context, e *domain.WalkEvent) {
			if e.Status == domain.WalkFailed {
				logger.WarnContext(ctx, "walk_end", "walk_id", e.WalkID, "status", e.Status, "steps", e.Steps, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "walk_end", "walk_id", e.WalkID, "status", e.Status, "steps", e.Steps)
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "walk_id", e.WalkID, "node", e.Node, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "walk_id", e.WalkID, "node", e.Node, "next", e.Next, "duration", e.Duration)
		},
	}
}
