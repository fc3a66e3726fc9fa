package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/afkbot/internal/gateway"
	"github.com/EgorLis/afkbot/internal/metrics"
)

// ErrVoiceGaveUp — все попытки эпизода исчерпаны. Не фатально: монитор
// запустит новый эпизод на следующей проверке.
var ErrVoiceGaveUp = errors.New("bot: voice connect gave up")

const (
	joinTimeout     = 60 * time.Second
	switchSettle    = 2 * time.Second
	warmupStep      = 2 * time.Second
	disconnectLimit = 10 * time.Second

	staleBackoffCap   = 120 * time.Second
	genericBackoffCap = 60 * time.Second
)

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetry
	outcomeGiveUp
)

// outcome — итог одной попытки входа.
type outcome struct {
	kind  outcomeKind
	conn  gateway.VoiceConn // outcomeSuccess
	delay time.Duration     // outcomeRetry
	err   error
}

// ConnectVoice — VoiceConnector: заходит в голосовой канал ch не более чем
// за maxRetries попыток (<= 0 — DefaultMaxRetries). Если мы уже в этом
// канале, возвращает текущий хендл без обращения к шлюзу.
func (b *Bot) ConnectVoice(ctx context.Context, ch *gateway.Channel, maxRetries int) (gateway.VoiceConn, error) {
	return b.connect(ctx, ch, maxRetries, "manual")
}

func (b *Bot) connect(ctx context.Context, ch *gateway.Channel, maxRetries int, trigger string) (gateway.VoiceConn, error) {
	b.episodeMu.Lock()
	defer b.episodeMu.Unlock()
	return b.connectLocked(ctx, ch, maxRetries, trigger)
}

// connectLocked вызывается под episodeMu.
func (b *Bot) connectLocked(ctx context.Context, ch *gateway.Channel, maxRetries int, trigger string) (gateway.VoiceConn, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	log := b.log.With("component", "voice", "episode", uuid.NewString(), "channel", ch.ID)
	metrics.VoiceReconnectEpisodes.WithLabelValues(trigger).Inc()

	if vc := b.Voice(); vc != nil {
		switch {
		case vc.IsConnected() && vc.ChannelID() == ch.ID:
			log.Debug("already in target voice channel")
			return vc, nil
		case vc.IsConnected():
			log.Info("switching voice channel", "from", vc.ChannelID())
			b.dropVoice(ctx, vc, log)
			if err := b.wait(ctx, switchSettle); err != nil {
				return nil, err
			}
		default:
			b.dropVoice(ctx, vc, log)
		}
	}

	log.Info("joining voice channel", "name", ch.Name, "trigger", trigger)
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := b.wait(ctx, time.Duration(attempt)*warmupStep); err != nil {
			return nil, err
		}

		out := b.tryJoin(ctx, ch, attempt)
		switch out.kind {
		case outcomeSuccess:
			b.setVoice(out.conn)
			log.Info("joined voice channel", "attempt", attempt)
			return out.conn, nil
		case outcomeGiveUp:
			return nil, out.err
		}

		if attempt == maxRetries-1 {
			log.Warn("voice connect failed", "attempt", attempt, "error", out.err)
			break
		}
		log.Warn("voice connect failed, retrying", "attempt", attempt, "backoff", out.delay, "error", out.err)
		if err := b.wait(ctx, out.delay); err != nil {
			return nil, err
		}
	}

	log.Warn("voice connect gave up", "attempts", maxRetries)
	return nil, fmt.Errorf("%w after %d attempts", ErrVoiceGaveUp, maxRetries)
}

func (b *Bot) tryJoin(ctx context.Context, ch *gateway.Channel, attempt int) outcome {
	conn, err := b.session.JoinVoice(ctx, ch, gateway.JoinOptions{
		Timeout:       joinTimeout,
		SelfDeaf:      true,
		SelfMute:      false,
		AutoReconnect: false,
	})

	var already *gateway.AlreadyConnectedError
	switch {
	case err == nil:
		metrics.VoiceConnectAttempts.WithLabelValues(metrics.ResultOK).Inc()
		return outcome{kind: outcomeSuccess, conn: conn}
	case errors.As(err, &already):
		metrics.VoiceConnectAttempts.WithLabelValues(metrics.ResultAlready).Inc()
		return outcome{kind: outcomeSuccess, conn: already.Conn}
	case ctx.Err() != nil:
		return outcome{kind: outcomeGiveUp, err: ctx.Err()}
	case errors.Is(err, gateway.ErrSessionClosed):
		metrics.VoiceConnectAttempts.WithLabelValues(metrics.ResultClosed).Inc()
		return outcome{kind: outcomeGiveUp, err: err}
	case gateway.IsStaleVoiceSession(err):
		metrics.VoiceConnectAttempts.WithLabelValues(metrics.ResultStale).Inc()
		return outcome{kind: outcomeRetry, delay: staleBackoff(attempt), err: err}
	default:
		metrics.VoiceConnectAttempts.WithLabelValues(metrics.ResultError).Inc()
		return outcome{kind: outcomeRetry, delay: genericBackoff(attempt), err: err}
	}
}

func (b *Bot) setVoice(vc gateway.VoiceConn) {
	b.mu.Lock()
	b.voice = vc
	b.mu.Unlock()
	metrics.VoiceConnected.Set(1)
}

// dropVoice принудительно отключает vc и забывает его.
func (b *Bot) dropVoice(ctx context.Context, vc gateway.VoiceConn, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, disconnectLimit)
	defer cancel()
	if err := vc.Disconnect(ctx); err != nil {
		log.Warn("voice disconnect failed", "error", err)
	}

	b.mu.Lock()
	if b.voice == vc {
		b.voice = nil
	}
	b.mu.Unlock()
	metrics.VoiceConnected.Set(0)
}

// staleBackoff — сервер помнит старую голосовую сессию, ему нужно время её забыть.
func staleBackoff(attempt int) time.Duration { return capPow(3, attempt, staleBackoffCap) }

func genericBackoff(attempt int) time.Duration { return capPow(2, attempt, genericBackoffCap) }

// capPow — min(base^n секунд, limit) без переполнения при больших n.
func capPow(base, n int, limit time.Duration) time.Duration {
	d := time.Second
	for i := 0; i < n; i++ {
		d *= time.Duration(base)
		if d >= limit {
			return limit
		}
	}
	return d
}
