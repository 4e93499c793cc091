package chat

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"tmi/internal/app/adapters/metrics"
	"tmi/internal/app/infrastructure/irc"
)

const maxMessageLen = 500

// ready rejects commands that need an authenticated, established session.
func (c *Chat) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEstablished {
		return ErrNotConnected
	}
	if c.anonymous {
		return ErrAnonymous
	}
	return nil
}

// settleOn treats every routed notification as terminal: ids from the
// success set resolve, anything else rejects with the server's text.
func settleOn(success ...string) validateFunc {
	ok := make(map[string]struct{}, len(success))
	for _, id := range success {
		ok[id] = struct{}{}
	}
	return func(msgID string, msg *irc.Message) (bool, error) {
		if _, found := ok[msgID]; found {
			return true, nil
		}
		text := ""
		if msg != nil {
			text = msg.Trailing()
		}
		return true, &NoticeError{MsgID: msgID, Text: text}
	}
}

// roomCommand sends a slash command into the channel and blocks until the
// settling NOTICE or the latency-scaled timeout.
func (c *Chat) roomCommand(op, channel, command string, success ...string) error {
	channel = irc.NormalizeChannel(channel)
	if err := c.ready(); err != nil {
		return err
	}

	p, err := c.waiter.Register(op, channel, settleOn(success...))
	if err != nil {
		return err
	}
	if err := c.write("PRIVMSG " + channel + " :" + command); err != nil {
		p.Cancel()
		return err
	}
	metrics.CommandsSent.WithLabelValues(op).Inc()
	return p.Await(c.cmdTimeout())
}

// Join enters a channel through the throttled queue and blocks until the
// server confirms membership or refuses it.
func (c *Chat) Join(channel string) error {
	channel = irc.NormalizeChannel(channel)

	c.mu.Lock()
	if c.state != StateEstablished {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.session.IsJoined(channel) {
		c.mu.Unlock()
		return nil
	}
	joins := c.joins
	c.mu.Unlock()

	// the join confirmation carries no msg-id; any routed id is a refusal
	p, err := c.waiter.Register("join", channel, settleOn(""))
	if err != nil {
		return err
	}
	joins.enqueue(channel)
	return p.Await(joinTimeout)
}

// Part leaves a channel and blocks until the PART echo.
func (c *Chat) Part(channel string) error {
	channel = irc.NormalizeChannel(channel)

	c.mu.Lock()
	if c.state != StateEstablished {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.mu.Unlock()

	p, err := c.waiter.Register("part", channel, settleOn(""))
	if err != nil {
		return err
	}
	if err := c.write("PART " + channel); err != nil {
		p.Cancel()
		return err
	}
	return p.Await(c.cmdTimeout())
}

// Say sends a chat line. Uncorrelated: the server stays silent on success,
// so only the write outcome is reported.
func (c *Chat) Say(channel, message string) error {
	return c.privmsg(channel, message, nil)
}

// Action sends a /me framed line.
func (c *Chat) Action(channel, message string) error {
	return c.privmsg(channel, "\x01ACTION "+message+"\x01", nil)
}

// Reply sends a threaded reply to an earlier message.
func (c *Chat) Reply(channel, parentMsgID, message string) error {
	return c.privmsg(channel, message, map[string]string{
		"reply-parent-msg-id": parentMsgID,
	})
}

// Whisper sends a direct message. Refusals come back as plain notices.
func (c *Chat) Whisper(login, message string) error {
	c.mu.Lock()
	own := c.login
	c.mu.Unlock()
	return c.privmsg("#"+own, "/w "+irc.NormalizeUsername(login)+" "+message, nil)
}

func (c *Chat) privmsg(channel, text string, tags map[string]string) error {
	channel = irc.NormalizeChannel(channel)
	if err := c.ready(); err != nil {
		return err
	}
	if len(text) > maxMessageLen {
		return fmt.Errorf("message exceeds %d characters", maxMessageLen)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	if tags == nil {
		tags = make(map[string]string, 1)
	}
	tags["client-nonce"] = nonce()

	line := irc.FormTags(tags) + " PRIVMSG " + channel + " :" + text
	if err := c.write(line); err != nil {
		return err
	}
	metrics.MessagesSent.Inc()
	return nil
}

func nonce() string {
	return fmt.Sprintf("%016x%016x", rand.Uint64(), rand.Uint64())
}

func (c *Chat) Ban(channel, login, reason string) error {
	cmd := strings.TrimSpace("/ban " + irc.NormalizeUsername(login) + " " + reason)
	return c.roomCommand("ban", channel, cmd, "ban_success", "already_banned")
}

func (c *Chat) Unban(channel, login string) error {
	return c.roomCommand("unban", channel, "/unban "+irc.NormalizeUsername(login),
		"unban_success", "bad_unban_no_ban")
}

func (c *Chat) Timeout(channel, login string, duration time.Duration, reason string) error {
	seconds := int(duration.Seconds())
	if seconds <= 0 {
		seconds = 300
	}
	cmd := strings.TrimSpace(fmt.Sprintf("/timeout %s %d %s", irc.NormalizeUsername(login), seconds, reason))
	return c.roomCommand("timeout", channel, cmd, "timeout_success")
}

func (c *Chat) Untimeout(channel, login string) error {
	return c.roomCommand("untimeout", channel, "/untimeout "+irc.NormalizeUsername(login),
		"untimeout_success")
}

func (c *Chat) Mod(channel, login string) error {
	return c.roomCommand("mod", channel, "/mod "+irc.NormalizeUsername(login), "mod_success")
}

func (c *Chat) Unmod(channel, login string) error {
	return c.roomCommand("unmod", channel, "/unmod "+irc.NormalizeUsername(login), "unmod_success")
}

func (c *Chat) VIP(channel, login string) error {
	return c.roomCommand("vip", channel, "/vip "+irc.NormalizeUsername(login), "vip_success")
}

func (c *Chat) UnVIP(channel, login string) error {
	return c.roomCommand("unvip", channel, "/unvip "+irc.NormalizeUsername(login), "unvip_success")
}

func (c *Chat) Slow(channel string, wait time.Duration) error {
	seconds := int(wait.Seconds())
	if seconds <= 0 {
		seconds = 300
	}
	return c.roomCommand("slow", channel, fmt.Sprintf("/slow %d", seconds), "slow_on")
}

func (c *Chat) SlowOff(channel string) error {
	return c.roomCommand("slowoff", channel, "/slowoff", "slow_off")
}

func (c *Chat) Followers(channel string, minFollow time.Duration) error {
	minutes := int(minFollow.Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return c.roomCommand("followers", channel, fmt.Sprintf("/followers %d", minutes),
		"followers_on", "followers_on_zero")
}

func (c *Chat) FollowersOff(channel string) error {
	return c.roomCommand("followersoff", channel, "/followersoff", "followers_off")
}

func (c *Chat) EmoteOnly(channel string) error {
	return c.roomCommand("emoteonly", channel, "/emoteonly", "emote_only_on")
}

func (c *Chat) EmoteOnlyOff(channel string) error {
	return c.roomCommand("emoteonlyoff", channel, "/emoteonlyoff", "emote_only_off")
}

func (c *Chat) UniqueChat(channel string) error {
	return c.roomCommand("uniquechat", channel, "/r9kbeta", "r9k_on")
}

func (c *Chat) UniqueChatOff(channel string) error {
	return c.roomCommand("uniquechatoff", channel, "/r9kbetaoff", "r9k_off")
}

func (c *Chat) Clear(channel string) error {
	return c.roomCommand("clear", channel, "/clear", "clearchat")
}
