package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения меток result.
const (
	ResultOK          = "ok"
	ResultRateLimited = "rate_limited"
	ResultNotReady    = "not_ready"
	ResultClosed      = "closed"
	ResultError       = "error"
	ResultAlready     = "already_connected"
	ResultStale       = "stale_session"
)

// Фоновые циклы.
const (
	LoopStatus  = "status"
	LoopMonitor = "monitor"
)

var (
	// PresenceUpdates — попытки смены статуса по результату.
	PresenceUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afkbot_presence_updates_total",
			Help: "Presence updates by result",
		},
		[]string{"result"},
	)

	// VoiceConnectAttempts — отдельные попытки входа в голосовой канал.
	VoiceConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afkbot_voice_connect_attempts_total",
			Help: "Voice connect attempts by result",
		},
		[]string{"result"},
	)

	// VoiceReconnectEpisodes — серии попыток по тому, кто их запустил (ready/monitor).
	VoiceReconnectEpisodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afkbot_voice_reconnect_episodes_total",
			Help: "Voice connect episodes by trigger",
		},
		[]string{"trigger"},
	)

	VoiceConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "afkbot_voice_connected",
			Help: "1 while the voice handle is connected",
		},
	)

	BackgroundLoops = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "afkbot_background_loops",
			Help: "Running background loops (status/monitor)",
		},
		[]string{"loop"},
	)

	LifecycleEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afkbot_lifecycle_events_total",
			Help: "Gateway lifecycle events handled by the orchestrator",
		},
		[]string{"event"},
	)
)
