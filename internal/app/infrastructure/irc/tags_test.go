package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tags := ParseTags("color=#FF0000;display-name=Some\\sOne;mod=1;subscriber=0;turbo=1;login=someone")

	assert.Equal(t, "#FF0000", tags["color"])
	assert.Equal(t, "Some One", tags["display-name"])
	assert.Equal(t, true, tags["mod"])
	assert.Equal(t, false, tags["subscriber"])
	assert.Equal(t, true, tags["turbo"])
	assert.Equal(t, "someone", tags["login"])
}

func TestParseTagsValueless(t *testing.T) {
	tags := ParseTags("solo-tag;k=v")

	assert.Equal(t, true, tags["solo-tag"])
	assert.Equal(t, "v", tags["k"])
}

func TestParseTagsBadges(t *testing.T) {
	tags := ParseTags("badges=broadcaster/1,subscriber/12;badge-info=subscriber/22")

	assert.Equal(t, map[string]string{"broadcaster": "1", "subscriber": "12"}, tags["badges"])
	assert.Equal(t, "broadcaster/1,subscriber/12", tags["badges-raw"])
	assert.Equal(t, map[string]string{"subscriber": "22"}, tags["badge-info"])
	assert.Equal(t, "subscriber/22", tags["badge-info-raw"])
}

func TestParseTagsBadgesValueless(t *testing.T) {
	// badges present but with no value decodes to nil plus a nil raw
	tags := ParseTags("badges;mod=1")

	v, ok := tags["badges"]
	assert.True(t, ok)
	assert.Nil(t, v)
	raw, ok := tags["badges-raw"]
	assert.True(t, ok)
	assert.Nil(t, raw)
}

func TestParseEmotes(t *testing.T) {
	emotes := ParseEmotes("25:0-4,12-16/1902:6-10")

	assert.Equal(t, map[string][][2]int{
		"25":   {{0, 5}, {12, 17}},
		"1902": {{6, 11}},
	}, emotes)
}

func TestParseEmotesEmpty(t *testing.T) {
	assert.Empty(t, ParseEmotes(""))
}

func TestEscapeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "plain", in: "hello"},
		{name: "spaces", in: "hello there world"},
		{name: "semicolons", in: "a;b;c"},
		{name: "backslashes", in: `a\b\\c`},
		{name: "mixed", in: `x; y\z `},
		{name: "empty", in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.in, UnescapeTag(EscapeTag(tt.in)))
		})
	}
}

func TestUnescapeTag(t *testing.T) {
	assert.Equal(t, "a b", UnescapeTag(`a\sb`))
	assert.Equal(t, "ab", UnescapeTag(`a\nb`))
	assert.Equal(t, "ab", UnescapeTag(`a\rb`))
	assert.Equal(t, "a;b", UnescapeTag(`a\:b`))
	assert.Equal(t, `a\b`, UnescapeTag(`a\\b`))
	// a dangling backslash is dropped
	assert.Equal(t, "a", UnescapeTag(`a\`))
}

func TestFormTags(t *testing.T) {
	assert.Equal(t, "", FormTags(nil))
	assert.Equal(t, "@client-nonce=abc", FormTags(map[string]string{"client-nonce": "abc"}))
	assert.Equal(t,
		"@client-nonce=abc;reply-parent-msg-id=b34ccfc7",
		FormTags(map[string]string{"reply-parent-msg-id": "b34ccfc7", "client-nonce": "abc"}),
	)
	assert.Equal(t, `@k=with\sspace`, FormTags(map[string]string{"k": "with space"}))
}

func TestFormTagsRoundTrip(t *testing.T) {
	in := map[string]string{
		"client-nonce":        "n-1",
		"reply-parent-msg-id": "id with space",
	}

	decoded := ParseTags(FormTags(in)[1:])
	assert.Equal(t, len(in), len(decoded))
	for k, v := range in {
		assert.Equal(t, v, decoded[k])
	}
}

func TestTagInt(t *testing.T) {
	msg := ParseLine("@followers-only=-1;slow=30;room-id=123;color=#FF0000 :tmi.twitch.tv ROOMSTATE #chan")

	n, ok := msg.TagInt("followers-only")
	assert.True(t, ok)
	assert.Equal(t, -1, n)

	n, ok = msg.TagInt("slow")
	assert.True(t, ok)
	assert.Equal(t, 30, n)

	_, ok = msg.TagInt("color")
	assert.False(t, ok)
	_, ok = msg.TagInt("absent")
	assert.False(t, ok)
}

func BenchmarkParseTags(b *testing.B) {
	raw := "badge-info=subscriber/22;badges=subscriber/18,bits/1000;color=#FF0000;display-name=Someone;emotes=25:0-4,12-16/1902:6-10;mod=0;subscriber=1;user-id=67890"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ParseTags(raw)
	}
}
