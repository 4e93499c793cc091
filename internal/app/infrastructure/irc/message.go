package irc

import "strconv"

// Message is one parsed protocol line. Immutable after ParseLine returns it.
type Message struct {
	Raw     string
	Tags    map[string]any
	Prefix  *Prefix
	Command string
	Channel string
	Params  []string
}

// Prefix is the optional ":nick!user@host" source of a line.
type Prefix struct {
	Nick string
	User string
	Host string
}

// Param returns the i-th parameter or "" when out of range.
func (m *Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter, which for PRIVMSG-family commands
// is the message text.
func (m *Message) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

// TagString returns the tag value as a string, "" when absent or non-scalar.
func (m *Message) TagString(key string) string {
	if v, ok := m.Tags[key].(string); ok {
		return v
	}
	return ""
}

// TagBool returns flag tags ("1"/"0" on the wire) decoded to bool.
func (m *Message) TagBool(key string) bool {
	switch v := m.Tags[key].(type) {
	case bool:
		return v
	case string:
		return v == "1"
	}
	return false
}

// TagInt decodes numeric tags (slow, followers-only, ban-duration).
// The second return is false when the tag is absent or not a number.
func (m *Message) TagInt(key string) (int, bool) {
	v, ok := m.Tags[key].(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Badges returns the decoded badges tag, nil when absent.
func (m *Message) Badges() map[string]string {
	if v, ok := m.Tags["badges"].(map[string]string); ok {
		return v
	}
	return nil
}

// Emotes returns the decoded emotes tag: emote id to a list of
// [start,end) rune index pairs over the message text.
func (m *Message) Emotes() map[string][][2]int {
	if v, ok := m.Tags["emotes"].(map[string][][2]int); ok {
		return v
	}
	return nil
}
