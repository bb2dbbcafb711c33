// Package infra provides notification sinks for the risk context.
package infra

import (
	"context"

	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

// LogNotifier writes breaker notifications to the structured log. It
// never blocks and never fails.
type LogNotifier struct {
	log logger.LoggerInterface
}

func NewLogNotifier(log logger.LoggerInterface) *LogNotifier {
	return &LogNotifier{log: log.With("component", "risk-notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, level, message string, data map[string]any) {
	args := make([]any, 0, len(data)*2)
	for k, v := range data {
		args = append(args, k, v)
	}

	switch level {
	case "critical", "error":
		n.log.Error(ctx, message, args...)
	case "warning", "warn":
		n.log.Warn(ctx, message, args...)
	default:
		n.log.Info(ctx, message, args...)
	}
}
