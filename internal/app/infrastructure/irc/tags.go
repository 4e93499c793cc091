package irc

import (
	"sort"
	"strconv"
	"strings"
)

// Tags the protocol defines as "1"/"0" flags.
var flagTags = map[string]bool{
	"mod":                           true,
	"subscriber":                    true,
	"turbo":                         true,
	"first-msg":                     true,
	"emote-only":                    true,
	"r9k":                           true,
	"rituals":                       true,
	"subs-only":                     true,
	"msg-param-should-share-streak": true,
}

// ParseTags decodes the "@k=v;k2=v2" block (without the leading "@").
// A tag with no "=" decodes to boolean true; badges/badge-info decode to a
// map with the raw string preserved under "<key>-raw"; emotes decodes to
// index ranges. Everything else is an unescaped string.
func ParseTags(raw string) map[string]any {
	tags := make(map[string]any)

	start := 0
	for i := 0; i <= len(raw); i++ {
		if i != len(raw) && raw[i] != ';' {
			continue
		}
		tag := raw[start:i]
		start = i + 1
		if tag == "" {
			continue
		}

		eq := strings.IndexByte(tag, '=')
		if eq == -1 {
			switch tag {
			case "badges", "badge-info":
				tags[tag] = nil
				tags[tag+"-raw"] = nil
			default:
				tags[tag] = true
			}
			continue
		}

		k, v := tag[:eq], UnescapeTag(tag[eq+1:])
		switch {
		case k == "badges" || k == "badge-info":
			tags[k] = parseBadges(v)
			tags[k+"-raw"] = v
		case k == "emotes":
			tags[k] = ParseEmotes(v)
		case flagTags[k]:
			tags[k] = v == "1"
		default:
			tags[k] = v
		}
	}

	return tags
}

// parseBadges decodes "name/value,name/value".
func parseBadges(v string) map[string]string {
	badges := make(map[string]string)
	if v == "" {
		return badges
	}

	for _, pair := range strings.Split(v, ",") {
		if slash := strings.IndexByte(pair, '/'); slash != -1 {
			badges[pair[:slash]] = pair[slash+1:]
		}
	}
	return badges
}

// ParseEmotes decodes "id:start-end,start-end/id2:..." into emote id to
// [start,end) pairs. Wire positions are inclusive, the decoded end is
// exclusive.
func ParseEmotes(v string) map[string][][2]int {
	emotes := make(map[string][][2]int)
	if v == "" {
		return emotes
	}

	for _, part := range strings.Split(v, "/") {
		colon := strings.IndexByte(part, ':')
		if colon == -1 {
			continue
		}
		id := part[:colon]

		for _, span := range strings.Split(part[colon+1:], ",") {
			dash := strings.IndexByte(span, '-')
			if dash == -1 {
				continue
			}
			start, err := strconv.Atoi(span[:dash])
			if err != nil {
				continue
			}
			end, err := strconv.Atoi(span[dash+1:])
			if err != nil {
				continue
			}
			emotes[id] = append(emotes[id], [2]int{start, end + 1})
		}
	}

	return emotes
}

// FormTags builds the outbound "@k=v;k2=v2" block for tags like
// reply-parent-msg-id and client-nonce. Returns "" for an empty map.
func FormTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('@')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(EscapeTag(tags[k]))
	}
	return b.String()
}

var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\:",
	" ", "\\s",
	"\n", "\\n",
	"\r", "\\r",
)

// EscapeTag applies IRCv3 tag-value escaping for outbound tags.
func EscapeTag(v string) string {
	return tagEscaper.Replace(v)
}

// UnescapeTag reverses IRCv3 tag-value escaping. An unknown escape keeps
// the escaped character, a trailing backslash is dropped.
func UnescapeTag(v string) string {
	if !strings.ContainsRune(v, '\\') {
		return v
	}

	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' {
			b.WriteByte(v[i])
			continue
		}
		i++
		if i == len(v) {
			break
		}
		switch v[i] {
		case 's':
			b.WriteByte(' ')
		case 'n', 'r':
			// folded to nothing
		case ':':
			b.WriteByte(';')
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}
