package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyUserStateFirstJoin(t *testing.T) {
	s := New()

	first := s.ApplyUserState("Chan", "bot", map[string]any{"mod": false})
	assert.True(t, first)
	assert.True(t, s.IsJoined("#chan"))

	// второй USERSTATE по тому же каналу - уже не join
	first = s.ApplyUserState("#chan", "bot", map[string]any{"mod": false})
	assert.False(t, first)
}

func TestApplyUserStateModFlag(t *testing.T) {
	s := New()

	s.ApplyUserState("#chan", "bot", map[string]any{"mod": true})
	assert.True(t, s.IsMod("#chan", "bot"))

	s.ApplyUserState("#chan", "bot", map[string]any{"mod": false})
	assert.False(t, s.IsMod("#chan", "bot"))
}

func TestApplyMode(t *testing.T) {
	s := New()

	s.ApplyMode("#chan", "+o", "SomeMod")
	assert.True(t, s.IsMod("#chan", "somemod"))
	assert.Equal(t, []string{"somemod"}, s.Moderators("#CHAN"))

	s.ApplyMode("#chan", "-o", "somemod")
	assert.False(t, s.IsMod("#chan", "somemod"))
}

func TestApplyGlobalUserState(t *testing.T) {
	s := New()

	changed, sets := s.ApplyGlobalUserState(map[string]any{"emote-sets": "0,33,50"})
	assert.True(t, changed)
	assert.Equal(t, "0,33,50", sets)

	changed, _ = s.ApplyGlobalUserState(map[string]any{"emote-sets": "0,33,50"})
	assert.False(t, changed)

	changed, sets = s.ApplyGlobalUserState(map[string]any{"emote-sets": "0,33,50,237"})
	assert.True(t, changed)
	assert.Equal(t, "0,33,50,237", sets)
	assert.Equal(t, "0,33,50,237", s.EmoteSets())
}

func TestApplyPart(t *testing.T) {
	s := New()

	s.ApplyUserState("#chan", "bot", map[string]any{"mod": true})
	s.ApplyPart("#chan")

	assert.False(t, s.IsJoined("#chan"))
	assert.Nil(t, s.UserState("#chan"))
	assert.Empty(t, s.Moderators("#chan"))
}

func TestMarkJoinedAnonymous(t *testing.T) {
	s := New()

	assert.True(t, s.MarkJoined("#chan"))
	assert.False(t, s.MarkJoined("#chan"))
	assert.Equal(t, []string{"#chan"}, s.Joined())
}

func TestReset(t *testing.T) {
	s := New()

	s.ApplyUserState("#a", "bot", map[string]any{"mod": true})
	s.ApplyUserState("#b", "bot", map[string]any{})
	s.ApplyGlobalUserState(map[string]any{"emote-sets": "0"})
	s.Reset()

	assert.Empty(t, s.Joined())
	assert.Nil(t, s.GlobalUserState())
	assert.Equal(t, "", s.EmoteSets())
	assert.False(t, s.IsMod("#a", "bot"))
}
