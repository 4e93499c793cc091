package irc

import "strings"

// ParseLine splits one raw line into a Message. Returns nil for anything
// malformed; it never panics. Scanning is positional rather than
// strings.Split so literal spaces inside the trailing parameter survive.
func ParseLine(raw string) *Message {
	msg := &Message{Raw: raw}
	pos := 0

	if strings.HasPrefix(raw, "@") {
		sp := strings.IndexByte(raw, ' ')
		if sp == -1 {
			return nil
		}
		msg.Tags = ParseTags(raw[1:sp])
		pos = sp + 1
	}

	for pos < len(raw) && raw[pos] == ' ' {
		pos++
	}
	if pos >= len(raw) {
		return nil
	}

	if raw[pos] == ':' {
		sp := strings.IndexByte(raw[pos:], ' ')
		if sp == -1 {
			return nil
		}
		msg.Prefix = parsePrefix(raw[pos+1 : pos+sp])
		pos += sp + 1
		for pos < len(raw) && raw[pos] == ' ' {
			pos++
		}
		if pos >= len(raw) {
			return nil
		}
	}

	if sp := strings.IndexByte(raw[pos:], ' '); sp != -1 {
		msg.Command = raw[pos : pos+sp]
		pos += sp
	} else {
		// bare command, no parameters
		msg.Command = raw[pos:]
		return msg
	}

	for pos < len(raw) {
		for pos < len(raw) && raw[pos] == ' ' {
			pos++
		}
		if pos >= len(raw) {
			break
		}
		if raw[pos] == ':' {
			// trailing parameter absorbs the rest of the line, spaces included
			msg.Params = append(msg.Params, raw[pos+1:])
			break
		}
		if sp := strings.IndexByte(raw[pos:], ' '); sp != -1 {
			msg.Params = append(msg.Params, raw[pos:pos+sp])
			pos += sp
		} else {
			msg.Params = append(msg.Params, raw[pos:])
			break
		}
	}

	for _, p := range msg.Params {
		if strings.HasPrefix(p, "#") {
			msg.Channel = p
			break
		}
	}

	return msg
}

// parsePrefix splits "nick!user@host", "nick@host" or a bare "host".
func parsePrefix(s string) *Prefix {
	p := &Prefix{}

	at := strings.LastIndexByte(s, '@')
	if at == -1 {
		p.Host = s
		return p
	}

	p.Host = s[at+1:]
	rest := s[:at]
	if excl := strings.IndexByte(rest, '!'); excl != -1 {
		p.Nick = rest[:excl]
		p.User = rest[excl+1:]
	} else {
		p.Nick = rest
	}

	return p
}

// NormalizeChannel lowercases a channel name and enforces the "#" prefix.
// Every lookup and comparison goes through this first.
func NormalizeChannel(channel string) string {
	channel = strings.ToLower(channel)
	if !strings.HasPrefix(channel, "#") {
		channel = "#" + channel
	}
	return channel
}

// NormalizeUsername lowercases a login and strips a leading "@".
func NormalizeUsername(username string) string {
	username = strings.ToLower(username)
	return strings.TrimPrefix(username, "@")
}

// NormalizeToken strips any "oauth:" prefix; the writer re-adds it so the
// caller can pass the token either way.
func NormalizeToken(token string) string {
	return strings.TrimPrefix(token, "oauth:")
}
