package session

import (
	"sort"
	"sync"

	"tmi/internal/app/infrastructure/irc"
)

// UserState is the tag snapshot the server sends for the authenticated user,
// either per channel (USERSTATE) or globally (GLOBALUSERSTATE).
type UserState map[string]any

// Session holds the state derived from the inbound message stream: which
// channels the client is in, the user's tag snapshots and the per-channel
// moderator sets. Everything here is a live cache rebuilt by the server on
// rejoin, so Reset wipes it on every teardown.
type Session struct {
	mu sync.RWMutex

	joined      map[string]bool
	userStates  map[string]UserState
	globalState UserState
	emoteSets   string
	moderators  map[string]map[string]bool
}

func New() *Session {
	return &Session{
		joined:     make(map[string]bool),
		userStates: make(map[string]UserState),
		moderators: make(map[string]map[string]bool),
	}
}

// ApplyUserState stores the channel's user state and reports whether this
// was the first USERSTATE for the channel, which is the join signal for an
// authenticated session. The mod flag also feeds the moderator set.
func (s *Session) ApplyUserState(channel, login string, tags map[string]any) (firstJoin bool) {
	channel = irc.NormalizeChannel(channel)

	s.mu.Lock()
	defer s.mu.Unlock()

	firstJoin = !s.joined[channel]
	s.joined[channel] = true
	s.userStates[channel] = UserState(tags)

	if login != "" {
		if mod, _ := tags["mod"].(bool); mod {
			s.addModLocked(channel, login)
		} else {
			delete(s.moderators[channel], login)
		}
	}

	return firstJoin
}

// ApplyGlobalUserState overwrites the global snapshot and reports whether
// the emote-set list changed.
func (s *Session) ApplyGlobalUserState(tags map[string]any) (changed bool, emoteSets string) {
	sets, _ := tags["emote-sets"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed = sets != s.emoteSets
	s.emoteSets = sets
	s.globalState = UserState(tags)

	return changed, sets
}

// ApplyMode maintains the moderator set from "+o"/"-o" observations.
func (s *Session) ApplyMode(channel, op, login string) {
	channel = irc.NormalizeChannel(channel)
	login = irc.NormalizeUsername(login)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch op {
	case "+o":
		s.addModLocked(channel, login)
	case "-o":
		delete(s.moderators[channel], login)
	}
}

// MarkJoined records membership directly; anonymous sessions never receive
// a USERSTATE, so their own JOIN echo is the only join signal.
func (s *Session) MarkJoined(channel string) (firstJoin bool) {
	channel = irc.NormalizeChannel(channel)

	s.mu.Lock()
	defer s.mu.Unlock()

	firstJoin = !s.joined[channel]
	s.joined[channel] = true
	return firstJoin
}

// ApplyPart drops the channel from the joined set and discards its state.
func (s *Session) ApplyPart(channel string) {
	channel = irc.NormalizeChannel(channel)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.joined, channel)
	delete(s.userStates, channel)
	delete(s.moderators, channel)
}

// Reset clears everything; called when the connection tears down.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.joined = make(map[string]bool)
	s.userStates = make(map[string]UserState)
	s.moderators = make(map[string]map[string]bool)
	s.globalState = nil
	s.emoteSets = ""
}

func (s *Session) Joined() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channels := make([]string, 0, len(s.joined))
	for ch := range s.joined {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

func (s *Session) IsJoined(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.joined[irc.NormalizeChannel(channel)]
}

func (s *Session) IsMod(channel, login string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.moderators[irc.NormalizeChannel(channel)][irc.NormalizeUsername(login)]
}

func (s *Session) Moderators(channel string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.moderators[irc.NormalizeChannel(channel)]
	mods := make([]string, 0, len(set))
	for login := range set {
		mods = append(mods, login)
	}
	sort.Strings(mods)
	return mods
}

func (s *Session) UserState(channel string) UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userStates[irc.NormalizeChannel(channel)]
}

func (s *Session) GlobalUserState() UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.globalState
}

// EmoteSets returns the raw emote-sets value from the last GLOBALUSERSTATE.
func (s *Session) EmoteSets() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.emoteSets
}

func (s *Session) addModLocked(channel, login string) {
	if s.moderators[channel] == nil {
		s.moderators[channel] = make(map[string]bool)
	}
	s.moderators[channel][login] = true
}
