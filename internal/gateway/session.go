package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Options — настройки сессии, не относящиеся к учётке.
type Options struct {
	Intents          discordgo.Intent
	HandshakeTimeout time.Duration // таймаут рукопожатия websocket'а шлюза

	// Локальный лимитер смены статуса: Discord режет частые presence update'ы,
	// лучше отказать самим, чем ловить закрытие соединения.
	PresenceEvery time.Duration
	PresenceBurst int

	EventBuffer int // ёмкость канала Events()
}

func DefaultOptions() Options {
	return Options{
		Intents:          discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates,
		HandshakeTimeout: 45 * time.Second,
		PresenceEvery:    12 * time.Second,
		PresenceBurst:    5,
		EventBuffer:      16,
	}
}

// Session — сессия шлюза Discord. Создаётся один раз на процесс и
// закрывается один раз; после Close все методы безопасно возвращают
// ErrSessionClosed.
type Session struct {
	dg      *discordgo.Session
	log     *slog.Logger
	limiter *rate.Limiter

	ready  atomic.Bool
	closed atomic.Bool

	mu       sync.Mutex // events, identity, removers
	events   chan Event
	identity string
	removers []func()
}

// New создаёт сессию, но не подключается. Токен передаётся как есть:
// для бот-аккаунта он должен начинаться с "Bot ".
func New(token string, opts Options, logger *slog.Logger) (*Session, error) {
	if token == "" {
		return nil, errors.New("gateway: empty token")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 1
	}
	if opts.PresenceBurst <= 0 {
		opts.PresenceBurst = 1
	}

	dg, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = opts.Intents
	dg.ShouldReconnectOnError = true
	dg.StateEnabled = true
	dg.Dialer = &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	dg.LogLevel = libraryLogLevel(logger)
	routeLibraryLogs(logger)

	limit := rate.Inf
	if opts.PresenceEvery > 0 {
		limit = rate.Every(opts.PresenceEvery)
	}

	s := &Session{
		dg:      dg,
		log:     logger.With("component", "gateway"),
		limiter: rate.NewLimiter(limit, opts.PresenceBurst),
		events:  make(chan Event, opts.EventBuffer),
	}
	s.removers = []func(){
		dg.AddHandler(s.onConnect),
		dg.AddHandler(s.onDisconnect),
		dg.AddHandler(s.onReady),
		dg.AddHandler(s.onResumed),
	}
	return s, nil
}

// Open — логин и запуск websocket'а. Отказ в авторизации возвращается как ошибка.
func (s *Session) Open() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if err := s.dg.Open(); err != nil {
		return fmt.Errorf("open gateway session: %w", err)
	}
	return nil
}

// Close идемпотентен. Канал Events() закрывается.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return nil
	}
	s.closed.Store(true)
	s.ready.Store(false)
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
	close(s.events)
	s.mu.Unlock()

	if err := s.dg.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) IsReady() bool { return s.ready.Load() && !s.closed.Load() }

func (s *Session) IsClosed() bool { return s.closed.Load() }

// Identity — "username (id)" из последнего Ready.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Channel ищет канал сначала в кеше State, затем через REST.
func (s *Session) Channel(id string) (*Channel, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if c, err := s.dg.State.Channel(id); err == nil {
		return newChannel(c), nil
	}
	c, err := s.dg.Channel(id)
	if err != nil {
		var re *discordgo.RESTError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusNotFound || re.Response.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
		}
		return nil, fmt.Errorf("fetch channel %s: %w", id, err)
	}
	return newChannel(c), nil
}

// UpdatePresence меняет активность; nil очищает её (и не тратит лимит).
func (s *Session) UpdatePresence(ctx context.Context, a *Activity) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if !s.ready.Load() {
		return ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if a != nil && !s.limiter.Allow() {
		return ErrRateLimited
	}
	if err := s.dg.UpdateStatusComplex(a.statusData()); err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}

// ========================= хендлеры discordgo =========================

func (s *Session) onConnect(_ *discordgo.Session, _ *discordgo.Connect) {
	s.emit(Event{Kind: EventConnect})
}

func (s *Session) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	s.ready.Store(false)
	s.emit(Event{Kind: EventDisconnect})
}

func (s *Session) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	var user string
	if r.User != nil {
		user = fmt.Sprintf("%s (%s)", r.User.Username, r.User.ID)
	}
	s.mu.Lock()
	s.identity = user
	s.mu.Unlock()

	s.ready.Store(true)
	s.emit(Event{Kind: EventReady, User: user, SessionID: r.SessionID})
}

func (s *Session) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	s.ready.Store(true)
	s.emit(Event{Kind: EventResumed})
}

// emit никогда не блокирует читателя websocket'а: если потребитель отстал,
// событие теряется с предупреждением.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("lifecycle event dropped, consumer is behind", "event", ev.Kind.String())
	}
}
