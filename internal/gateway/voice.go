package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
)

// JoinOptions — параметры входа в голосовой канал.
//
// AutoReconnect=false означает, что восстановлением занимается вызывающий:
// discordgo не даёт выключить собственный реконнект голоса, поэтому обёртка
// "защёлкивается" — после первой потери соединения IsConnected навсегда
// возвращает false, и хозяин хендла обязан переподключиться сам.
type JoinOptions struct {
	Timeout       time.Duration
	SelfMute      bool
	SelfDeaf      bool
	AutoReconnect bool
}

// VoiceConn — активное голосовое соединение с одним каналом.
type VoiceConn interface {
	ChannelID() string
	IsConnected() bool
	// Disconnect всегда принудительный.
	Disconnect(ctx context.Context) error
}

// JoinVoice входит в голосовой канал ch с жёстким таймаутом opts.Timeout.
// Если мы уже в этом канале — *AlreadyConnectedError с текущим хендлом.
func (s *Session) JoinVoice(ctx context.Context, ch *Channel, opts JoinOptions) (VoiceConn, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	if existing := s.voiceIn(ch.GuildID); existing != nil {
		existing.RLock()
		same := existing.ChannelID == ch.ID && existing.Ready
		existing.RUnlock()
		if same {
			return nil, &AlreadyConnectedError{Conn: s.wrapVoice(existing, opts)}
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	done := make(chan result, 1)
	go func() {
		vc, err := s.dg.ChannelVoiceJoin(ch.GuildID, ch.ID, opts.SelfMute, opts.SelfDeaf)
		done <- result{vc: vc, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("join voice channel %s: %w", ch.ID, r.err)
		}
		return s.wrapVoice(r.vc, opts), nil
	case <-ctx.Done():
		// discordgo всё равно может успеть подключиться — уберём за ним
		go func() {
			if r := <-done; r.err == nil && r.vc != nil {
				_ = r.vc.Disconnect()
			}
		}()
		return nil, fmt.Errorf("join voice channel %s: %w", ch.ID, ctx.Err())
	}
}

func (s *Session) voiceIn(guildID string) *discordgo.VoiceConnection {
	s.dg.RLock()
	defer s.dg.RUnlock()
	return s.dg.VoiceConnections[guildID]
}

func (s *Session) wrapVoice(vc *discordgo.VoiceConnection, opts JoinOptions) *voiceConn {
	return &voiceConn{
		vc:            vc,
		autoReconnect: opts.AutoReconnect,
		log:           s.log,
	}
}

type voiceConn struct {
	vc            *discordgo.VoiceConnection
	autoReconnect bool
	dropped       atomic.Bool
	log           *slog.Logger
}

func (v *voiceConn) ChannelID() string {
	v.vc.RLock()
	defer v.vc.RUnlock()
	return v.vc.ChannelID
}

func (v *voiceConn) IsConnected() bool {
	if v.dropped.Load() {
		return false
	}
	v.vc.RLock()
	ready := v.vc.Ready
	v.vc.RUnlock()
	if !ready && !v.autoReconnect {
		v.dropped.Store(true)
	}
	return ready
}

func (v *voiceConn) Disconnect(ctx context.Context) error {
	v.dropped.Store(true)
	done := make(chan error, 1)
	go func() { done <- v.vc.Disconnect() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("disconnect voice: %w", err)
		}
		return nil
	case <-ctx.Done():
		v.log.Warn("voice disconnect still in progress", "error", ctx.Err())
		return ctx.Err()
	}
}
