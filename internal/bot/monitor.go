package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/EgorLis/afkbot/internal/gateway"
)

const monitorInterval = 30 * time.Second

// runMonitor — ConnectionMonitor: живёт до отмены ctx.
func (b *Bot) runMonitor(ctx context.Context) {
	log := b.log.With("component", "monitor")
	log.Info("voice monitor started", "every", monitorInterval)

	for {
		if b.wait(ctx, monitorInterval) != nil {
			log.Info("voice monitor stopped")
			return
		}
		b.checkVoice(ctx, log)
	}
}

func (b *Bot) checkVoice(ctx context.Context, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("voice check panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if vc := b.Voice(); vc != nil && vc.IsConnected() {
		return
	}

	// эпизод уже идёт (Ready или прошлая проверка) — не мешаем ему
	if !b.episodeMu.TryLock() {
		log.Debug("voice connect in progress, check skipped")
		return
	}
	defer b.episodeMu.Unlock()

	if vc := b.Voice(); vc != nil && vc.IsConnected() {
		return
	}
	if !b.session.IsReady() {
		log.Debug("gateway not ready, check skipped")
		return
	}

	ch, err := b.session.Channel(b.cfg.ChannelID)
	if err != nil {
		log.Warn("target channel unavailable, check skipped", "channel", b.cfg.ChannelID, "error", err)
		return
	}
	if ch.Kind != gateway.ChannelVoice {
		log.Warn("target channel is no longer a voice channel", "channel", ch.ID, "kind", ch.Kind.String())
		return
	}

	log.Warn("voice connection lost, reconnecting", "channel", ch.ID)
	if _, err := b.connectLocked(ctx, ch, b.cfg.MaxRetries, "monitor"); err != nil && ctx.Err() == nil {
		log.Warn("voice reconnect failed", "channel", ch.ID, "error", err)
	}
}
