package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionUp - состояние соединения с чатом.
	ConnectionUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connection_up",
		Help: "Whether the chat connection is established (1) or not (0)",
	})

	// Reconnects - количество переподключений.
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_reconnects_total",
		Help: "Total number of reconnect attempts",
	})

	// PingLatency - задержка последнего PING/PONG.
	PingLatency = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ping_latency_seconds",
		Help: "Round-trip latency of the last keepalive ping",
	})

	// JoinedChannels - количество каналов, в которых состоит сессия.
	JoinedChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_joined_channels",
		Help: "Current number of joined channels",
	})

	// LinesReceived - количество принятых строк протокола.
	LinesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_lines_received_total",
		Help: "Total number of protocol lines received",
	})

	// MessagesReceived - количество принятых сообщений по командам.
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_received_total",
			Help: "Total number of parsed messages per protocol command",
		},
		[]string{"command"},
	)

	// MessagesSent - количество отправленных сообщений.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Total number of chat messages sent",
	})

	// CommandsSent - количество отправленных модераторских команд.
	CommandsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_sent_total",
			Help: "Total number of correlated commands sent per operation",
		},
		[]string{"operation"},
	)
)
