package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

var routeOnce sync.Once

// routeLibraryLogs перенаправляет внутренний логгер discordgo в slog.
// discordgo.Logger глобальный, поэтому ставится один раз на процесс.
func routeLibraryLogs(logger *slog.Logger) {
	routeOnce.Do(func() {
		lib := logger.With("component", "discordgo")
		discordgo.Logger = func(msgL, _ int, format string, a ...interface{}) {
			lib.Log(context.Background(), slogLevel(msgL), fmt.Sprintf(format, a...))
		}
	})
}

func slogLevel(l int) slog.Level {
	switch l {
	case discordgo.LogError:
		return slog.LevelError
	case discordgo.LogWarning:
		return slog.LevelWarn
	case discordgo.LogInformational:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// discordgo на уровне informational пишет "called" на каждый вызов,
// поэтому при info у нас — только предупреждения библиотеки.
func libraryLogLevel(logger *slog.Logger) int {
	ctx := context.Background()
	switch {
	case logger.Enabled(ctx, slog.LevelDebug):
		return discordgo.LogDebug
	case logger.Enabled(ctx, slog.LevelWarn):
		return discordgo.LogWarning
	default:
		return discordgo.LogError
	}
}
