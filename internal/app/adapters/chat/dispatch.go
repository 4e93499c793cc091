package chat

import (
	"log/slog"
	"strconv"
	"strings"

	"tmi/internal/app/adapters/metrics"
	"tmi/internal/app/infrastructure/irc"
	"tmi/internal/app/ports"
)

// handleLine routes one parsed line: session state update, semantic event
// emission, correlated-operation settlement. Runs on the reader goroutine,
// so dispatch order is delivery order.
func (c *Chat) handleLine(line string) {
	msg := irc.ParseLine(line)
	if msg == nil {
		c.log.Debug("Dropping malformed line", slog.String("line", line))
		c.bus.Emit(ports.Event{Type: ports.EventMalformed, Text: line})
		return
	}

	metrics.MessagesReceived.WithLabelValues(msg.Command).Inc()

	switch msg.Command {
	case "PING":
		// keep-alive
		_ = c.write("PONG :tmi.twitch.tv")
	case "PONG":
		c.handlePong()
	case "001":
		c.handleWelcome(msg)
	case "002", "003", "004", "353", "366", "372", "375", "376", "CAP":
		// greeting noise
	case "GLOBALUSERSTATE":
		c.handleGlobalUserState(msg)
	case "USERSTATE":
		c.handleUserState(msg)
	case "ROOMSTATE":
		c.bus.Emit(ports.Event{Type: ports.EventRoomState, Channel: msg.Channel, Msg: msg})
	case "NOTICE":
		c.handleNotice(msg)
	case "USERNOTICE":
		c.handleUserNotice(msg)
	case "JOIN":
		c.handleJoin(msg)
	case "PART":
		c.handlePart(msg)
	case "MODE":
		c.handleMode(msg)
	case "PRIVMSG":
		c.handlePrivmsg(msg)
	case "WHISPER":
		c.handleWhisper(msg)
	case "CLEARCHAT":
		c.handleClearChat(msg)
	case "CLEARMSG":
		c.bus.Emit(ports.Event{
			Type:    ports.EventMessageDeleted,
			Channel: msg.Channel,
			Login:   msg.TagString("login"),
			Text:    msg.Trailing(),
			MsgID:   msg.TagString("target-msg-id"),
			Msg:     msg,
		})
	case "RECONNECT":
		// graceful migration: the server asks us to move; close and let
		// the backoff policy bring the connection back
		c.log.Info("Server requested reconnect")
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
	default:
		c.log.Trace("Unrecognized command", slog.String("command", msg.Command), slog.String("line", line))
		c.bus.Emit(ports.Event{Type: ports.EventRaw, Channel: msg.Channel, Text: msg.Trailing(), Msg: msg})
	}
}

func (c *Chat) handleWelcome(msg *irc.Message) {
	c.mu.Lock()
	// the server's view of the login is authoritative
	if nick := msg.Param(0); nick != "" && nick != "*" {
		c.login = nick
	}
	welcome := c.welcome
	c.mu.Unlock()

	select {
	case welcome <- nil:
	default:
	}
}

func (c *Chat) handleGlobalUserState(msg *irc.Message) {
	changed, sets := c.session.ApplyGlobalUserState(msg.Tags)
	c.bus.Emit(ports.Event{Type: ports.EventUserState, Msg: msg})
	if changed {
		c.bus.Emit(ports.Event{Type: ports.EventEmoteSets, Text: sets, Msg: msg})
	}
}

func (c *Chat) handleUserState(msg *irc.Message) {
	if msg.Channel == "" {
		return
	}

	c.mu.Lock()
	login := c.login
	c.mu.Unlock()

	first := c.session.ApplyUserState(msg.Channel, login, msg.Tags)
	if first {
		channel := irc.NormalizeChannel(msg.Channel)
		metrics.JoinedChannels.Set(float64(len(c.session.Joined())))
		c.log.Debug("Joined channel", slog.String("channel", channel))
		c.bus.Emit(ports.Event{Type: ports.EventJoin, Channel: channel, Login: login, Self: true, Msg: msg})
		c.waiter.Notify("join", "", msg)
	}
	c.bus.Emit(ports.Event{Type: ports.EventUserState, Channel: msg.Channel, Msg: msg})
}

func (c *Chat) handleNotice(msg *irc.Message) {
	msgID := msg.TagString("msg-id")
	text := msg.Trailing()

	if c.State() != StateEstablished && msgID == "" && isAuthFailure(text) {
		c.authFailure(text)
		return
	}

	// rate limit is worth shouting about
	if strings.Contains(text, "sending messages too quickly") {
		c.log.Warn("Rate limit exceeded", slog.String("line", msg.Raw))
	}

	if op, ok := noticeOps[msgID]; ok {
		c.waiter.Notify(op, msgID, msg)
	}

	c.bus.Emit(ports.Event{Type: ports.EventNotice, Channel: msg.Channel, Text: text, MsgID: msgID, Msg: msg})
}

func (c *Chat) handleUserNotice(msg *irc.Message) {
	c.bus.Emit(ports.Event{
		Type:    ports.EventUserNotice,
		Channel: msg.Channel,
		Login:   msg.TagString("login"),
		Text:    msg.Trailing(),
		MsgID:   msg.TagString("msg-id"),
		Msg:     msg,
	})
}

func (c *Chat) handleJoin(msg *irc.Message) {
	if msg.Prefix == nil || msg.Channel == "" {
		return
	}
	login := msg.Prefix.Nick

	c.mu.Lock()
	self := login == c.login
	anonymous := c.anonymous
	c.mu.Unlock()

	if self && anonymous {
		// anonymous sessions get no USERSTATE; the JOIN echo is the only
		// join signal
		if first := c.session.MarkJoined(msg.Channel); first {
			channel := irc.NormalizeChannel(msg.Channel)
			metrics.JoinedChannels.Set(float64(len(c.session.Joined())))
			c.bus.Emit(ports.Event{Type: ports.EventJoin, Channel: channel, Login: login, Self: true, Msg: msg})
			c.waiter.Notify("join", "", msg)
		}
		return
	}
	if !self {
		c.bus.Emit(ports.Event{Type: ports.EventJoin, Channel: msg.Channel, Login: login, Msg: msg})
	}
}

func (c *Chat) handlePart(msg *irc.Message) {
	if msg.Prefix == nil || msg.Channel == "" {
		return
	}
	login := msg.Prefix.Nick

	c.mu.Lock()
	self := login == c.login
	c.mu.Unlock()

	if self {
		c.session.ApplyPart(msg.Channel)
		metrics.JoinedChannels.Set(float64(len(c.session.Joined())))
		c.waiter.Notify("part", "", msg)
	}
	c.bus.Emit(ports.Event{Type: ports.EventPart, Channel: msg.Channel, Login: login, Self: self, Msg: msg})
}

func (c *Chat) handleMode(msg *irc.Message) {
	op := msg.Param(1)
	login := msg.Param(2)
	if msg.Channel == "" || login == "" {
		return
	}

	c.session.ApplyMode(msg.Channel, op, login)
	c.bus.Emit(ports.Event{
		Type:    ports.EventMode,
		Channel: msg.Channel,
		Login:   login,
		Text:    op,
		Msg:     msg,
	})
}

func (c *Chat) handlePrivmsg(msg *irc.Message) {
	if msg.Channel == "" {
		return
	}
	cm := buildChatMessage(msg)
	cm.Channel = irc.NormalizeChannel(msg.Channel)

	c.bus.Emit(ports.Event{
		Type:    ports.EventMessage,
		Channel: cm.Channel,
		Login:   cm.Login,
		Text:    cm.Text,
		MsgID:   cm.ID,
		Msg:     msg,
		Data:    map[string]any{"message": cm},
	})
}

func (c *Chat) handleWhisper(msg *irc.Message) {
	cm := buildChatMessage(msg)

	c.bus.Emit(ports.Event{
		Type:  ports.EventWhisper,
		Login: cm.Login,
		Text:  cm.Text,
		MsgID: msg.TagString("message-id"),
		Msg:   msg,
		Data:  map[string]any{"message": cm},
	})
}

func (c *Chat) handleClearChat(msg *irc.Message) {
	// CLEARCHAT without a target clears the room; with a target it is a
	// ban or, with ban-duration, a timeout
	if len(msg.Params) < 2 {
		c.bus.Emit(ports.Event{Type: ports.EventClearChat, Channel: msg.Channel, Msg: msg})
		c.waiter.Notify("clear", "clearchat", msg)
		return
	}

	target := msg.Params[len(msg.Params)-1]
	if seconds, ok := msg.TagInt("ban-duration"); ok {
		c.bus.Emit(ports.Event{
			Type:    ports.EventTimeout,
			Channel: msg.Channel,
			Login:   target,
			Text:    strconv.Itoa(seconds),
			Msg:     msg,
		})
		return
	}
	c.bus.Emit(ports.Event{Type: ports.EventBan, Channel: msg.Channel, Login: target, Msg: msg})
}

// buildChatMessage flattens a PRIVMSG/WHISPER for consumers, unwrapping
// the \x01ACTION framing of /me.
func buildChatMessage(msg *irc.Message) *ports.ChatMessage {
	text := msg.Trailing()
	action := false
	if strings.HasPrefix(text, "\x01ACTION ") && strings.HasSuffix(text, "\x01") {
		action = true
		text = strings.TrimSuffix(strings.TrimPrefix(text, "\x01ACTION "), "\x01")
	}

	login := ""
	if msg.Prefix != nil {
		login = msg.Prefix.Nick
	}
	username := msg.TagString("display-name")
	if username == "" {
		username = login
	}

	return &ports.ChatMessage{
		ID:         msg.TagString("id"),
		UserID:     msg.TagString("user-id"),
		Login:      login,
		Username:   username,
		Text:       text,
		Action:     action,
		Mod:        msg.TagBool("mod"),
		Subscriber: msg.TagBool("subscriber"),
		FirstMsg:   msg.TagBool("first-msg"),
		Badges:     msg.Badges(),
		Emotes:     msg.Emotes(),
		Tags:       msg.Tags,
	}
}
