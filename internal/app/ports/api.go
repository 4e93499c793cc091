package ports

// EmoteSet is one Helix emote-set entry.
type EmoteSet struct {
	ID      string
	Name    string
	SetID   string
	OwnerID string
}

// APIPort is the REST helper boundary: identity and emote lookups consumed
// by callers next to the chat engine, never by the engine itself.
type APIPort interface {
	GetUserID(login string) (string, error)
	GetEmoteSets(setIDs []string) ([]EmoteSet, error)
}
