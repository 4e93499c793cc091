package chat

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tmi/config"
	"tmi/internal/app/adapters/metrics"
	"tmi/internal/app/domain/session"
	"tmi/internal/app/infrastructure/events"
	"tmi/internal/app/infrastructure/irc"
	"tmi/internal/app/ports"
	"tmi/pkg/logger"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateEstablished
	StateClosing
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	case StateReconnecting:
		return "reconnecting"
	}
	return "disconnected"
}

const (
	dialTimeout    = 10 * time.Second
	welcomeTimeout = 15 * time.Second
	baseCmdTimeout = 600 * time.Millisecond
	joinTimeout    = 10 * time.Second
)

var _ ports.ChatPort = (*Chat)(nil)

// Chat owns the websocket, the authentication handshake, the keepalive
// cycle and the reconnect policy, and feeds every inbound line through the
// dispatcher. One logical connection at a time; the socket is touched only
// here.
type Chat struct {
	log     logger.Logger
	manager *config.Manager
	session *session.Session
	bus     *events.Bus
	waiter  *Waiter
	limiter *rate.Limiter

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	joins      *joinQueue
	welcome    chan error
	login      string
	anonymous  bool
	lastJoined []string

	closing           bool
	reconnectDisabled bool
	attempts          int
	delay             time.Duration
	reconnectTimer    *time.Timer

	pingStop   chan struct{}
	pingTicker *time.Ticker
	pongTimer  *time.Timer
	lastPingAt time.Time
	latency    time.Duration

	writeMu sync.Mutex
}

func New(log logger.Logger, manager *config.Manager, st *session.Session) *Chat {
	return &Chat{
		log:     log,
		manager: manager,
		session: st,
		bus:     events.NewBus(),
		waiter:  NewWaiter(),
		// 20 messages per 30s is the documented limit for a regular user
		limiter: rate.NewLimiter(rate.Every(30*time.Second/20), 20),
		welcome: make(chan error, 1),
	}
}

// On subscribes a handler to a semantic event type ("*" for everything).
func (c *Chat) On(eventType string, handler func(ports.Event)) (unsubscribe func()) {
	return c.bus.Subscribe(eventType, events.Handler(handler))
}

// State reports the connection lifecycle state.
func (c *Chat) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Login reports the identity of the current session, throwaway logins
// included.
func (c *Chat) Login() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login
}

// Latency reports the last measured keepalive round trip.
func (c *Chat) Latency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

// Connect opens the connection and blocks until the session is established
// or the first attempt fails. Later reconnects run in the background.
func (c *Chat) Connect() error {
	cfg := c.manager.Get()

	c.mu.Lock()
	if c.conn != nil || c.state == StateConnecting || c.state == StateAuthenticating {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.closing = false
	c.reconnectDisabled = false
	c.attempts = 0
	c.delay = time.Duration(cfg.Connection.ReconnectIntervalSec * float64(time.Second))
	c.login, c.anonymous = effectiveLogin(cfg)
	c.mu.Unlock()

	return c.connectOnce()
}

// connectOnce performs a single attempt: dial, handshake, wait for the
// welcome. Dial failures feed the reconnect policy.
func (c *Chat) connectOnce() error {
	cfg := c.manager.Get()

	scheme := "ws"
	if cfg.Connection.Secure {
		scheme = "wss"
	}
	url := fmt.Sprintf("%s://%s:%d", scheme, cfg.Connection.Server, cfg.Connection.Port)

	c.mu.Lock()
	login := c.login
	anonymous := c.anonymous
	c.state = StateConnecting
	c.mu.Unlock()

	c.log.Info("Connecting to chat", slog.String("url", url), slog.String("login", login))

	dialer := websocket.Dialer{
		HandshakeTimeout: dialTimeout,
		Subprotocols:     []string{"irc"},
	}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		c.log.Error("Failed to connect to chat", err, slog.String("url", url))
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		c.maybeReconnect()
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateAuthenticating
	c.welcome = make(chan error, 1)
	c.joins = newJoinQueue(time.Duration(cfg.Connection.JoinIntervalMs)*time.Millisecond, func(channel string) {
		_ = c.write("JOIN " + channel)
	})
	welcome := c.welcome
	c.mu.Unlock()

	go c.readLoop(conn)

	_ = c.write("CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership")
	if !anonymous {
		_ = c.write("PASS oauth:" + irc.NormalizeToken(cfg.App.OAuth))
	}
	_ = c.write("NICK " + login)

	select {
	case err := <-welcome:
		if err != nil {
			return err
		}
	case <-time.After(welcomeTimeout):
		_ = conn.Close()
		return ErrNoResponse
	}

	c.established(cfg)
	return nil
}

// established flips to the steady state: counters reset, keepalive started,
// the join queue rebuilt from the configured channels plus whatever the
// previous session was in.
func (c *Chat) established(cfg *config.Config) {
	c.mu.Lock()
	c.state = StateEstablished
	c.attempts = 0
	c.delay = time.Duration(cfg.Connection.ReconnectIntervalSec * float64(time.Second))
	c.startKeepaliveLocked(cfg)
	joins := c.joins
	rejoin := c.lastJoined
	c.lastJoined = nil
	login := c.login
	c.mu.Unlock()

	c.log.Info("Connected to chat", slog.String("login", login))
	metrics.ConnectionUp.Set(1)
	c.bus.Emit(ports.Event{Type: ports.EventConnected})

	enqueueUnion(joins, cfg.App.Channels, rejoin)
}

func (c *Chat) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		// inbound frames may carry several lines
		for _, line := range strings.Split(string(payload), "\r\n") {
			line = strings.TrimSuffix(line, "\r")
			if line == "" {
				continue
			}
			metrics.LinesReceived.Inc()
			c.handleLine(line)
		}
	}
}

// handleDisconnect runs once per connection teardown: stop timers, drop the
// live caches, settle outstanding operations, then decide on a reconnect.
func (c *Chat) handleDisconnect(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.stopKeepaliveLocked()
	if c.joins != nil {
		c.joins.shutdown()
	}
	c.lastJoined = c.session.Joined()
	closing := c.closing
	disabled := c.reconnectDisabled
	welcome := c.welcome
	c.state = StateDisconnected
	c.mu.Unlock()

	_ = conn.Close()
	c.session.Reset()
	c.waiter.RejectAll(ErrConnClosed)
	metrics.ConnectionUp.Set(0)
	metrics.JoinedChannels.Set(0)

	// settle a Connect still waiting on the welcome
	select {
	case welcome <- fmt.Errorf("connection failed: %w", err):
	default:
	}

	reason := ""
	if err != nil {
		reason = err.Error()
	}
	c.log.Warn("Disconnected from chat", slog.String("reason", reason), slog.Bool("deliberate", closing))
	c.bus.Emit(ports.Event{Type: ports.EventDisconnected, Text: reason})

	if closing || disabled {
		return
	}
	c.maybeReconnect()
}

// maybeReconnect applies the backoff policy: the delay grows by the decay
// factor up to the cap, attempts are budgeted, and a deliberate disconnect
// or terminal failure suppresses everything.
func (c *Chat) maybeReconnect() {
	cfg := c.manager.Get()
	if !cfg.Connection.Reconnect {
		return
	}

	c.mu.Lock()
	if c.closing || c.reconnectDisabled || c.reconnectTimer != nil {
		c.mu.Unlock()
		return
	}

	if max := cfg.Connection.MaxReconnectAttempts; max > 0 && c.attempts >= max {
		c.reconnectDisabled = true
		c.mu.Unlock()
		c.log.Error("Max reconnect attempts reached", ErrMaxReconnect, slog.Int("attempts", cfg.Connection.MaxReconnectAttempts))
		c.bus.Emit(ports.Event{Type: ports.EventMaxReconnect, Text: ErrMaxReconnect.Error()})
		return
	}

	c.attempts++
	c.delay = nextDelay(c.delay, cfg.Connection.ReconnectDecay,
		time.Duration(cfg.Connection.MaxReconnectIntervalSec*float64(time.Second)))
	delay := c.delay
	attempt := c.attempts
	c.state = StateReconnecting
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		c.mu.Unlock()
		c.bus.Emit(ports.Event{Type: ports.EventReconnect})
		_ = c.connectOnce()
	})
	c.mu.Unlock()

	metrics.Reconnects.Inc()
	c.log.Info("Reconnecting to chat", slog.Int("attempt", attempt), slog.Duration("delay", delay))
}

// nextDelay is the backoff step: delay*decay capped at max.
func nextDelay(delay time.Duration, decay float64, max time.Duration) time.Duration {
	next := time.Duration(float64(delay) * decay)
	if next > max {
		return max
	}
	return next
}

// Disconnect closes the connection deliberately: no reconnect follows and
// the pending reconnect timer, if armed, is cancelled.
func (c *Chat) Disconnect() error {
	c.mu.Lock()
	c.closing = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	if conn != nil {
		c.state = StateClosing
	} else {
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}
	return nil
}

// authFailure is terminal: the credentials are wrong, retrying would only
// repeat the refusal.
func (c *Chat) authFailure(reason string) {
	err := &AuthError{Reason: reason}

	c.mu.Lock()
	c.reconnectDisabled = true
	conn := c.conn
	welcome := c.welcome
	c.mu.Unlock()

	c.log.Error("Login authentication failed", err)
	select {
	case welcome <- err:
	default:
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Chat) startKeepaliveLocked(cfg *config.Config) {
	interval := time.Duration(cfg.Connection.PingIntervalSec) * time.Second
	timeout := time.Duration(cfg.Connection.PingTimeoutSec) * time.Second

	stop := make(chan struct{})
	ticker := time.NewTicker(interval)
	c.pingStop = stop
	c.pingTicker = ticker
	conn := c.conn

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.sendPing(conn, timeout)
			}
		}
	}()
}

// sendPing writes a PING and arms the pong deadline; a missing PONG is the
// only signal of a half-open transport, so the deadline force-closes the
// socket and lets the reconnect policy take over.
func (c *Chat) sendPing(conn *websocket.Conn, timeout time.Duration) {
	c.mu.Lock()
	c.lastPingAt = time.Now()
	if c.pongTimer != nil {
		c.pongTimer.Stop()
	}
	c.pongTimer = time.AfterFunc(timeout, func() {
		c.log.Warn("Ping timeout, closing connection")
		_ = conn.Close()
	})
	c.mu.Unlock()

	_ = c.write("PING")
}

// handlePong cancels the pong deadline and records the measured latency.
func (c *Chat) handlePong() {
	c.mu.Lock()
	if c.pongTimer != nil {
		c.pongTimer.Stop()
		c.pongTimer = nil
	}
	c.latency = time.Since(c.lastPingAt)
	latency := c.latency
	c.mu.Unlock()

	metrics.PingLatency.Set(latency.Seconds())
}

func (c *Chat) stopKeepaliveLocked() {
	if c.pingTicker != nil {
		c.pingTicker.Stop()
		c.pingTicker = nil
	}
	if c.pingStop != nil {
		close(c.pingStop)
		c.pingStop = nil
	}
	if c.pongTimer != nil {
		c.pongTimer.Stop()
		c.pongTimer = nil
	}
}

// cmdTimeout scales the correlated-command deadline with the measured
// latency, floored at the base.
func (c *Chat) cmdTimeout() time.Duration {
	c.mu.Lock()
	latency := c.latency
	c.mu.Unlock()

	if latency+100*time.Millisecond < baseCmdTimeout {
		return baseCmdTimeout
	}
	return latency + 100*time.Millisecond
}

func (c *Chat) write(line string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n"))
}

// effectiveLogin picks the configured identity or a throwaway justinfan
// login for an anonymous read-only session.
func effectiveLogin(cfg *config.Config) (login string, anonymous bool) {
	if cfg.App.Username == "" || cfg.App.OAuth == "" {
		return fmt.Sprintf("justinfan%d", 10000+rand.Intn(80000)), true
	}
	return strings.ToLower(cfg.App.Username), false
}
