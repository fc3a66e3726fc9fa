package bot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/EgorLis/afkbot/internal/gateway"
)

// fakeSession — управляемая из теста сессия шлюза.
type fakeSession struct {
	mu sync.Mutex

	ready      bool
	closed     bool
	openErr    error
	openCalls  int
	closeCalls int

	channels      map[string]*gateway.Channel
	channelCalls  int
	channelPanic  bool
	identityPanic bool

	presence     []*gateway.Activity
	presenceErrs []error

	joinErrs  []error
	joinCalls int
	joinOpts  []gateway.JoinOptions
	joinBlock chan struct{}

	events    chan gateway.Event
	closeOnce sync.Once
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		ready:    true,
		channels: map[string]*gateway.Channel{},
		events:   make(chan gateway.Event, 8),
	}
}

func (f *fakeSession) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	return f.openErr
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	f.closeCalls++
	f.closed = true
	f.ready = false
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

func (f *fakeSession) Events() <-chan gateway.Event { return f.events }

func (f *fakeSession) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready && !f.closed
}

func (f *fakeSession) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSession) Identity() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.identityPanic {
		panic("identity exploded")
	}
	return "afk (1)"
}

func (f *fakeSession) Channel(id string) (*gateway.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelCalls++
	if f.channelPanic {
		panic("channel lookup exploded")
	}
	ch, ok := f.channels[id]
	if !ok {
		return nil, gateway.ErrChannelNotFound
	}
	return ch, nil
}

func (f *fakeSession) UpdatePresence(_ context.Context, a *gateway.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return gateway.ErrSessionClosed
	}
	f.presence = append(f.presence, a)
	if len(f.presenceErrs) > 0 {
		err := f.presenceErrs[0]
		f.presenceErrs = f.presenceErrs[1:]
		return err
	}
	return nil
}

func (f *fakeSession) JoinVoice(ctx context.Context, ch *gateway.Channel, opts gateway.JoinOptions) (gateway.VoiceConn, error) {
	f.mu.Lock()
	f.joinCalls++
	f.joinOpts = append(f.joinOpts, opts)
	block := f.joinBlock
	var err error
	if len(f.joinErrs) > 0 {
		err = f.joinErrs[0]
		f.joinErrs = f.joinErrs[1:]
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return newFakeVoice(ch.ID), nil
}

func (f *fakeSession) setReady(v bool) {
	f.mu.Lock()
	f.ready = v
	f.mu.Unlock()
}

func (f *fakeSession) setJoinErrs(errs ...error) {
	f.mu.Lock()
	f.joinErrs = errs
	f.mu.Unlock()
}

func (f *fakeSession) joins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joinCalls
}

func (f *fakeSession) channelLookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channelCalls
}

func (f *fakeSession) presenceLog() []*gateway.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gateway.Activity(nil), f.presence...)
}

func (f *fakeSession) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

type fakeVoice struct {
	mu              sync.Mutex
	channel         string
	connected       bool
	disconnectCalls int
}

func newFakeVoice(channel string) *fakeVoice {
	return &fakeVoice{channel: channel, connected: true}
}

func (v *fakeVoice) ChannelID() string { return v.channel }

func (v *fakeVoice) IsConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

func (v *fakeVoice) Disconnect(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disconnectCalls++
	v.connected = false
	return nil
}

func (v *fakeVoice) drop() {
	v.mu.Lock()
	v.connected = false
	v.mu.Unlock()
}

func (v *fakeVoice) disconnects() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disconnectCalls
}

type advancer interface {
	Advance(d time.Duration)
}

// sleepRecorder записывает ожидания и возвращается сразу. Если задан limit,
// на limit-м ожидании отменяет cancel.
type sleepRecorder struct {
	mu     sync.Mutex
	waits  []time.Duration
	clock  advancer
	limit  int
	cancel context.CancelFunc
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.waits = append(r.waits, d)
	n := len(r.waits)
	r.mu.Unlock()

	if r.clock != nil {
		r.clock.Advance(d)
	}
	if r.limit > 0 && n >= r.limit && r.cancel != nil {
		r.cancel()
		return context.Canceled
	}
	return nil
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

// blockingSleep ждёт только отмены: фоновые циклы делают одну итерацию и засыпают.
func blockingSleep(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func seconds(ns ...int) []time.Duration {
	out := make([]time.Duration, len(ns))
	for i, n := range ns {
		out[i] = time.Duration(n) * time.Second
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBot(t *testing.T, fs *fakeSession, cfg Config, opts ...Option) *Bot {
	t.Helper()
	b := New(fs, cfg, discardLogger(), opts...)
	t.Cleanup(func() { b.Shutdown(context.Background()) })
	return b
}

var (
	voiceChannel = &gateway.Channel{ID: "10", GuildID: "1", Name: "afk", Kind: gateway.ChannelVoice}
	textChannel  = &gateway.Channel{ID: "11", GuildID: "1", Name: "general", Kind: gateway.ChannelText}
	otherChannel = &gateway.Channel{ID: "12", GuildID: "1", Name: "category", Kind: gateway.ChannelOther}
)
