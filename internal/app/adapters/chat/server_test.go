package chat

import (
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmi/config"
	"tmi/internal/app/domain/session"
	"tmi/internal/app/ports"
	"tmi/pkg/logger"
)

// lineLog collects every line the fake server reads off the socket.
type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) add(line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
}

func (l *lineLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.lines...)
}

// fakeServer speaks just enough of the chat protocol to drive the client
// through handshake, joins and moderation commands.
func fakeServer(t *testing.T) (*httptest.Server, *lineLog) {
	t.Helper()
	upgrader := websocket.Upgrader{Subprotocols: []string{"irc"}}
	wire := &lineLog{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		nick := ""
		send := func(lines ...string) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(strings.Join(lines, "\r\n")+"\r\n"))
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			for _, line := range strings.Split(string(payload), "\r\n") {
				if line == "" {
					continue
				}
				wire.add(line)

				switch {
				case strings.HasPrefix(line, "NICK "):
					nick = strings.TrimPrefix(line, "NICK ")
					send(
						":tmi.twitch.tv 001 "+nick+" :Welcome, GLHF!",
						":tmi.twitch.tv 376 "+nick+" :>",
						"@badges=;color=;display-name="+nick+";emote-sets=0;user-id=42 :tmi.twitch.tv GLOBALUSERSTATE",
					)
				case strings.HasPrefix(line, "JOIN "):
					channel := strings.TrimPrefix(line, "JOIN ")
					send(
						":"+nick+"!"+nick+"@"+nick+".tmi.twitch.tv JOIN "+channel,
						"@badges=;color=;display-name="+nick+";mod=0;subscriber=0 :tmi.twitch.tv USERSTATE "+channel,
					)
				case strings.HasPrefix(line, "PART "):
					channel := strings.TrimPrefix(line, "PART ")
					send(":" + nick + "!" + nick + "@" + nick + ".tmi.twitch.tv PART " + channel)
				case line == "PING":
					send("PONG")
				case strings.Contains(line, ":/ban "+nick):
					channel := strings.Fields(line)[1]
					send("@msg-id=bad_ban_self :tmi.twitch.tv NOTICE " + channel + " :You cannot ban yourself.")
				case strings.Contains(line, ":/ban "):
					channel := strings.Fields(line)[1]
					send("@msg-id=ban_success :tmi.twitch.tv NOTICE " + channel + " :spammer is now banned from this channel.")
				case strings.Contains(line, ":/slow "):
					channel := strings.Fields(line)[1]
					send("@msg-id=slow_on :tmi.twitch.tv NOTICE " + channel + " :This room is now in slow mode.")
				}
			}
		}
	})), wire
}

func newConnectedChat(t *testing.T, srv *httptest.Server) *Chat {
	t.Helper()

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.Username = "botto"
		cfg.App.OAuth = "oauth:secret"
		cfg.Connection.Secure = false
		cfg.Connection.Server = host
		cfg.Connection.Port = port
		cfg.Connection.Reconnect = false
	}))

	c := New(logger.NewNop(), manager, session.New())
	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func TestConnectHandshake(t *testing.T) {
	srv, _ := fakeServer(t)
	defer srv.Close()

	c := newConnectedChat(t, srv)
	assert.Equal(t, StateEstablished, c.State())
	assert.Equal(t, "botto", c.Login())
}

func TestJoinAndModeration(t *testing.T) {
	srv, _ := fakeServer(t)
	defer srv.Close()

	c := newConnectedChat(t, srv)

	require.NoError(t, c.Join("#somechannel"))
	assert.True(t, c.session.IsJoined("#somechannel"))

	// joining again is a no-op, not a pending-command conflict
	require.NoError(t, c.Join("#somechannel"))

	require.NoError(t, c.Ban("#somechannel", "spammer", "spam"))
	require.NoError(t, c.Slow("#somechannel", 30*time.Second))

	err := c.Ban("#somechannel", "botto", "")
	var nErr *NoticeError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "bad_ban_self", nErr.MsgID)

	require.NoError(t, c.Part("#somechannel"))
	assert.False(t, c.session.IsJoined("#somechannel"))
}

func TestActionWireFraming(t *testing.T) {
	srv, wire := fakeServer(t)
	defer srv.Close()

	c := newConnectedChat(t, srv)
	require.NoError(t, c.Join("#somechannel"))
	require.NoError(t, c.Action("#somechannel", "waves"))

	// the /me body must be wrapped in 0x01 markers on the wire
	waitFor(t, 2*time.Second, func() bool {
		for _, line := range wire.all() {
			if strings.HasSuffix(line, "PRIVMSG #somechannel :\x01ACTION waves\x01") {
				return true
			}
		}
		return false
	})
}

func TestConfiguredChannelsAutoJoin(t *testing.T) {
	srv, _ := fakeServer(t)
	defer srv.Close()

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	port, _ := strconv.Atoi(portStr)

	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.Username = "botto"
		cfg.App.OAuth = "oauth:secret"
		cfg.App.Channels = []string{"#one", "#two"}
		cfg.Connection.Secure = false
		cfg.Connection.Server = host
		cfg.Connection.Port = port
		cfg.Connection.JoinIntervalMs = 1 // floors at the protocol minimum
	}))

	c := New(logger.NewNop(), manager, session.New())
	joins := recordEvents(c, ports.EventJoin)
	require.NoError(t, c.Connect())
	defer func() { _ = c.Disconnect() }()

	waitFor(t, 5*time.Second, func() bool {
		return c.session.IsJoined("#one") && c.session.IsJoined("#two")
	})

	events := joins.all()
	require.Len(t, events, 2)
	assert.Equal(t, "#one", events[0].Channel)
	assert.Equal(t, "#two", events[1].Channel)
}

func TestUnroutedCommandTimesOut(t *testing.T) {
	srv, _ := fakeServer(t)
	defer srv.Close()

	c := newConnectedChat(t, srv)
	require.NoError(t, c.Join("#somechannel"))

	// the fake server never answers /clear
	assert.ErrorIs(t, c.Clear("#somechannel"), ErrNoResponse)
}

func TestDeliberateDisconnectSuppressesReconnect(t *testing.T) {
	srv, _ := fakeServer(t)
	defer srv.Close()

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	port, _ := strconv.Atoi(portStr)

	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.Connection.Secure = false
		cfg.Connection.Server = host
		cfg.Connection.Port = port
		cfg.Connection.ReconnectIntervalSec = 0.01
		cfg.Connection.MaxReconnectIntervalSec = 0.05
	}))

	c := New(logger.NewNop(), manager, session.New())
	require.NoError(t, c.Connect())

	disconnects := recordEvents(c, ports.EventDisconnected)
	require.NoError(t, c.Disconnect())

	waitFor(t, 2*time.Second, func() bool { return len(disconnects.all()) > 0 })
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestConnectTwiceRejected(t *testing.T) {
	srv, _ := fakeServer(t)
	defer srv.Close()

	c := newConnectedChat(t, srv)
	assert.ErrorIs(t, c.Connect(), ErrAlreadyConnected)
}
