package ports

import "time"

// ChatPort is the engine's command surface. Commands that correlate with a
// later server reply block until the reply or the timeout.
type ChatPort interface {
	Connect() error
	Disconnect() error

	Join(channel string) error
	Part(channel string) error
	Say(channel, message string) error
	Action(channel, message string) error
	Reply(channel, parentMsgID, message string) error
	Whisper(login, message string) error

	Ban(channel, login, reason string) error
	Unban(channel, login string) error
	Timeout(channel, login string, duration time.Duration, reason string) error
	Untimeout(channel, login string) error
	Mod(channel, login string) error
	Unmod(channel, login string) error
	VIP(channel, login string) error
	UnVIP(channel, login string) error
	Slow(channel string, wait time.Duration) error
	SlowOff(channel string) error
	Followers(channel string, minFollow time.Duration) error
	FollowersOff(channel string) error
	EmoteOnly(channel string) error
	EmoteOnlyOff(channel string) error
	UniqueChat(channel string) error
	UniqueChatOff(channel string) error
	Clear(channel string) error

	On(eventType string, handler func(Event)) (unsubscribe func())
}
