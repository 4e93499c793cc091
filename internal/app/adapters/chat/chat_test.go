package chat

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmi/config"
	"tmi/internal/app/domain/session"
	"tmi/pkg/logger"
)

func newTestChat(t *testing.T) *Chat {
	t.Helper()

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	return New(logger.NewNop(), manager, session.New())
}

func TestNextDelayGrowsAndCaps(t *testing.T) {
	max := 10 * time.Second

	delay := time.Second
	var seen []time.Duration
	for i := 0; i < 10; i++ {
		delay = nextDelay(delay, 1.5, max)
		seen = append(seen, delay)
	}

	assert.Equal(t, 1500*time.Millisecond, seen[0])
	assert.Equal(t, 2250*time.Millisecond, seen[1])
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "delay must be non-decreasing")
	}
	assert.Equal(t, max, seen[len(seen)-1])
}

func TestEffectiveLogin(t *testing.T) {
	cfg := config.Default()
	login, anonymous := effectiveLogin(cfg)
	assert.True(t, anonymous)
	assert.True(t, strings.HasPrefix(login, "justinfan"))

	cfg.App.Username = "SomeBot"
	cfg.App.OAuth = "oauth:secret"
	login, anonymous = effectiveLogin(cfg)
	assert.False(t, anonymous)
	assert.Equal(t, "somebot", login)
}

func TestCmdTimeoutScalesWithLatency(t *testing.T) {
	c := newTestChat(t)

	assert.Equal(t, baseCmdTimeout, c.cmdTimeout())

	c.mu.Lock()
	c.latency = 2 * time.Second
	c.mu.Unlock()
	assert.Equal(t, 2*time.Second+100*time.Millisecond, c.cmdTimeout())
}

func TestCommandsRequireConnection(t *testing.T) {
	c := newTestChat(t)

	assert.ErrorIs(t, c.Say("#chan", "hi"), ErrNotConnected)
	assert.ErrorIs(t, c.Ban("#chan", "user", ""), ErrNotConnected)
	assert.ErrorIs(t, c.Join("#chan"), ErrNotConnected)
	assert.ErrorIs(t, c.Part("#chan"), ErrNotConnected)
}

func TestCommandsRejectAnonymous(t *testing.T) {
	c := newTestChat(t)
	c.mu.Lock()
	c.state = StateEstablished
	c.anonymous = true
	c.mu.Unlock()

	assert.ErrorIs(t, c.Say("#chan", "hi"), ErrAnonymous)
	assert.ErrorIs(t, c.Timeout("#chan", "user", time.Minute, ""), ErrAnonymous)
}

func TestSayRejectsOversizedMessage(t *testing.T) {
	c := newTestChat(t)
	c.mu.Lock()
	c.state = StateEstablished
	c.mu.Unlock()

	err := c.Say("#chan", strings.Repeat("a", maxMessageLen+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "authenticating", StateAuthenticating.String())
	assert.Equal(t, "established", StateEstablished.String())
	assert.Equal(t, "closing", StateClosing.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
}
