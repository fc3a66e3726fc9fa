package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/EgorLis/afkbot/internal/durfmt"
	"github.com/EgorLis/afkbot/internal/gateway"
	"github.com/EgorLis/afkbot/internal/metrics"
)

const (
	statusInterval = 60 * time.Second
	rateLimitWait  = 300 * time.Second
	notReadyWait   = 10 * time.Second
	closedWait     = 30 * time.Second
)

// runStatus — StatusRotator. Живёт до отмены ctx.
func (b *Bot) runStatus(ctx context.Context) {
	log := b.log.With("component", "status")

	for !b.session.IsReady() {
		if b.wait(ctx, notReadyWait) != nil {
			return
		}
	}

	b.mu.Lock()
	b.startTime = b.clock.Now()
	b.mu.Unlock()
	log.Info("status rotation started", "kind", b.cfg.Activity.String())

	for {
		if b.wait(ctx, b.rotateOnce(ctx, log)) != nil {
			log.Info("status rotation stopped")
			return
		}
	}
}

// rotateOnce ставит статус и возвращает, сколько ждать до следующей попытки.
// Время считается от b.startTime: свежий Ready его сбрасывает.
func (b *Bot) rotateOnce(ctx context.Context, log *slog.Logger) (next time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("status update panicked", "panic", r, "stack", string(debug.Stack()))
			next = statusInterval
		}
	}()

	if !b.session.IsReady() {
		metrics.PresenceUpdates.WithLabelValues(metrics.ResultNotReady).Inc()
		return notReadyWait
	}

	minutes := int(b.clock.Since(b.StartTime()) / time.Minute)
	act := &gateway.Activity{
		Kind: b.cfg.Activity,
		Name: b.statusText(minutes),
		URL:  b.cfg.StreamURL,
	}

	err := b.session.UpdatePresence(ctx, act)
	switch {
	case err == nil:
		metrics.PresenceUpdates.WithLabelValues(metrics.ResultOK).Inc()
		log.Debug("status updated", "status", act.String())
		return statusInterval
	case ctx.Err() != nil:
		return 0
	case gateway.IsRateLimited(err):
		metrics.PresenceUpdates.WithLabelValues(metrics.ResultRateLimited).Inc()
		log.Warn("status update rate limited", "backoff", rateLimitWait)
		return rateLimitWait
	case gateway.IsNotReady(err):
		metrics.PresenceUpdates.WithLabelValues(metrics.ResultNotReady).Inc()
		log.Debug("session not ready, status postponed")
		return notReadyWait
	case gateway.IsConnClosed(err):
		metrics.PresenceUpdates.WithLabelValues(metrics.ResultClosed).Inc()
		log.Warn("connection closed during status update", "backoff", closedWait, "error", err)
		return closedWait
	default:
		metrics.PresenceUpdates.WithLabelValues(metrics.ResultError).Inc()
		log.Warn("status update failed", "error", err)
		return statusInterval
	}
}

func (b *Bot) statusText(minutes int) string {
	return b.cfg.StatusPrefix + " " + durfmt.Format(minutes)
}
