package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/EgorLis/afkbot/internal/gateway"
	"github.com/EgorLis/afkbot/internal/metrics"
)

// Session — то, что боту нужно от сессии шлюза (см. gateway.Session).
type Session interface {
	Open() error
	Close() error
	Events() <-chan gateway.Event
	IsReady() bool
	IsClosed() bool
	Identity() string
	Channel(id string) (*gateway.Channel, error)
	UpdatePresence(ctx context.Context, a *gateway.Activity) error
	JoinVoice(ctx context.Context, ch *gateway.Channel, opts gateway.JoinOptions) (gateway.VoiceConn, error)
}

const (
	DefaultMaxRetries   = 10
	DefaultStatusPrefix = "афкшу уже"

	shutdownTimeout = 5 * time.Second
)

type Config struct {
	ChannelID    string // "" — без целевого канала, только статус
	Activity     gateway.ActivityKind
	StatusPrefix string
	StreamURL    string
	MaxRetries   int // попыток на один эпизод подключения к голосу
}

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateResumed
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateResumed:
		return "resumed"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

type Option func(*Bot)

// WithClock подменяет часы (время старта статуса и все ожидания).
func WithClock(c clockwork.Clock) Option {
	return func(b *Bot) {
		b.clock = c
		b.sleep = clockSleep(c)
	}
}

func withSleep(fn sleepFunc) Option {
	return func(b *Bot) { b.sleep = fn }
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *task) running() bool {
	if t == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

type Bot struct {
	session Session
	cfg     Config
	log     *slog.Logger
	clock   clockwork.Clock
	sleep   sleepFunc

	// ctx живёт до Shutdown; от него отходят все фоновые горутины
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	voice     gateway.VoiceConn
	startTime time.Time
	status    *task
	monitor   *task
	stopping  bool
	wg        sync.WaitGroup

	// один эпизод подключения к голосу за раз
	episodeMu sync.Mutex

	shutdownOnce sync.Once
}

func New(session Session, cfg Config, logger *slog.Logger, opts ...Option) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.StatusPrefix == "" {
		cfg.StatusPrefix = DefaultStatusPrefix
	}

	clock := clockwork.NewRealClock()
	b := &Bot{
		session: session,
		cfg:     cfg,
		log:     logger,
		clock:   clock,
		sleep:   clockSleep(clock),
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return b
}

// Run поднимает сессию и разбирает её события, пока не отменят ctx или
// пока сессия не закроет канал событий. Перед выходом вызывает Shutdown.
// Ошибка возвращается только если сессию не удалось открыть (например,
// токен отвергнут).
func (b *Bot) Run(ctx context.Context) error {
	defer b.Shutdown(context.WithoutCancel(ctx))

	b.setState(StateConnecting)
	if err := b.session.Open(); err != nil {
		b.setState(StateError)
		return fmt.Errorf("start session: %w", err)
	}

	events := b.session.Events()
	for {
		select {
		case <-ctx.Done():
			b.log.Info("shutdown requested")
			return nil
		case <-b.ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				b.log.Info("session event stream closed")
				return nil
			}
			b.dispatch(ev)
		}
	}
}

func (b *Bot) dispatch(ev gateway.Event) {
	defer b.recoverHandler(ev.Kind.String())

	metrics.LifecycleEvents.WithLabelValues(ev.Kind.String()).Inc()
	log := b.log.With("component", "lifecycle")

	switch ev.Kind {
	case gateway.EventConnect:
		b.setState(StateConnecting)
		log.Info("gateway connected, waiting for ready")
	case gateway.EventReady:
		b.setState(StateReady)
		log.Info("logged in", "user", b.session.Identity())
		// обработчик не должен блокировать поток событий
		b.spawn("ready", b.handleReady)
	case gateway.EventResumed:
		b.setState(StateResumed)
		log.Info("gateway session resumed")
	case gateway.EventDisconnect:
		b.setState(StateDisconnected)
		log.Warn("gateway disconnected, the library will reconnect")
	}
}

func (b *Bot) recoverHandler(name string) {
	if r := recover(); r != nil {
		b.setState(StateError)
		b.log.Error("lifecycle handler panicked",
			"component", "lifecycle",
			"handler", name,
			"panic", r,
			"stack", string(debug.Stack()),
		)
	}
}

// spawn запускает fn в отдельной горутине, если бот ещё не останавливается.
func (b *Bot) spawn(name string, fn func(ctx context.Context)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopping {
		return false
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.recoverHandler(name)
		fn(b.ctx)
	}()
	return true
}

func (b *Bot) handleReady(ctx context.Context) {
	log := b.log.With("component", "lifecycle")
	b.resetStartTime()

	if b.cfg.ChannelID == "" {
		log.Info("no target channel configured, rotating status only")
		b.startStatus()
		return
	}

	ch, err := b.session.Channel(b.cfg.ChannelID)
	if err != nil {
		log.Warn("target channel unavailable, rotating status only", "channel", b.cfg.ChannelID, "error", err)
		b.startStatus()
		return
	}

	switch ch.Kind {
	case gateway.ChannelVoice:
		if _, err := b.connect(ctx, ch, b.cfg.MaxRetries, "ready"); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("voice channel not joined, the monitor will keep trying", "channel", ch.ID, "error", err)
		}
		b.startStatus()
		b.startMonitor()
	case gateway.ChannelText:
		log.Info("target is a text channel, rotating status only", "channel", ch.ID, "name", ch.Name)
		b.startStatus()
	default:
		log.Warn("target channel is neither text nor voice, nothing to do", "channel", ch.ID, "kind", ch.Kind.String())
	}
}

// resetStartTime — свежий Ready (новая сессия, не resume) обнуляет аптайм
// в статусе. Если цикл ещё не запущен, время выставит сам runStatus.
func (b *Bot) resetStartTime() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status.running() {
		b.startTime = b.clock.Now()
	}
}

func (b *Bot) startStatus() { b.startLoop(&b.status, metrics.LoopStatus, b.runStatus) }

func (b *Bot) startMonitor() { b.startLoop(&b.monitor, metrics.LoopMonitor, b.runMonitor) }

// startLoop запускает цикл, если он ещё не крутится. Повторный Ready
// второго экземпляра не создаёт.
func (b *Bot) startLoop(slot **task, name string, run func(ctx context.Context)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopping || (*slot).running() {
		return
	}

	ctx, cancel := context.WithCancel(b.ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	*slot = t

	gauge := metrics.BackgroundLoops.WithLabelValues(name)
	gauge.Inc()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(t.done)
		defer gauge.Dec()
		defer cancel()
		run(ctx)
	}()
}

func (b *Bot) StatusRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status.running()
}

func (b *Bot) MonitorRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.monitor.running()
}

// Shutdown останавливает циклы, выходит из голосового канала, очищает статус
// и закрывает сессию. Идемпотентен и никогда не падает: ошибки только логируются.
func (b *Bot) Shutdown(ctx context.Context) {
	b.shutdownOnce.Do(func() {
		log := b.log.With("component", "lifecycle")
		log.Info("shutting down")

		b.mu.Lock()
		b.stopping = true
		b.mu.Unlock()

		b.cancel()
		b.wg.Wait()

		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		b.mu.Lock()
		vc := b.voice
		b.voice = nil
		b.mu.Unlock()
		// защёлкнутый хендл мог быть поднят библиотекой заново, отключаем в любом случае
		if vc != nil {
			if err := vc.Disconnect(ctx); err != nil {
				log.Warn("voice disconnect failed", "error", err)
			}
		}
		metrics.VoiceConnected.Set(0)

		if !b.session.IsClosed() {
			if err := b.session.UpdatePresence(ctx, nil); err != nil {
				log.Debug("presence not cleared", "error", err)
			}
			if err := b.session.Close(); err != nil {
				log.Warn("session close failed", "error", err)
			}
		}

		b.setState(StateClosed)
		log.Info("stopped")
	})
}

func (b *Bot) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Voice — текущий голосовой хендл (может быть nil).
func (b *Bot) Voice() gateway.VoiceConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.voice
}

// StartTime — от него считается время в статусе; нулевой, пока статус не запущен.
func (b *Bot) StartTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startTime
}
