// Package app contains the circuit breaker service for the risk context.
package app

import "context"

// Notifier is a fire-and-forget notification sink. Implementations
// must not block; delivery is best effort and never awaited.
type Notifier interface {
	Notify(ctx context.Context, level, message string, data map[string]any)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, level, message string, data map[string]any) {}
