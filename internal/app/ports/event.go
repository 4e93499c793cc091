package ports

import "tmi/internal/app/infrastructure/irc"

// Semantic event types emitted by the dispatcher.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventReconnect    = "reconnect"
	EventMaxReconnect = "maxreconnect"

	EventMessage        = "message"
	EventWhisper        = "whisper"
	EventNotice         = "notice"
	EventUserNotice     = "usernotice"
	EventJoin           = "join"
	EventPart           = "part"
	EventMode           = "mode"
	EventUserState      = "userstate"
	EventRoomState      = "roomstate"
	EventEmoteSets      = "emotesets"
	EventClearChat      = "clearchat"
	EventBan            = "ban"
	EventTimeout        = "timeout"
	EventMessageDeleted = "messagedeleted"

	EventRaw       = "raw"       // unrecognized passthrough
	EventMalformed = "malformed" // unparsable line diagnostics
)

// Event is one semantic occurrence on the connection. Msg is the parsed
// line that produced it, nil for synthetic lifecycle events.
type Event struct {
	Type    string
	Channel string
	Login   string
	Text    string
	MsgID   string
	Self    bool
	Msg     *irc.Message
	Data    map[string]any
}

// ChatMessage is the flattened view of a PRIVMSG/WHISPER handed to
// consumers.
type ChatMessage struct {
	ID       string
	Channel  string
	UserID   string
	Login    string
	Username string
	Text     string
	Action   bool // /me framing

	Mod        bool
	Subscriber bool
	FirstMsg   bool
	Badges     map[string]string
	Emotes     map[string][][2]int
	Tags       map[string]any
}
