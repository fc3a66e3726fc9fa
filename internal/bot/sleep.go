package bot

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// sleepFunc ждёт d или отмены ctx.
type sleepFunc func(ctx context.Context, d time.Duration) error

func clockSleep(clock clockwork.Clock) sleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		t := clock.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
			return nil
		}
	}
}

func (b *Bot) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return b.sleep(ctx, d)
}
