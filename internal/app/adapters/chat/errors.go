package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResponse is the timeout sentinel for correlated commands.
	ErrNoResponse = errors.New("no response from server")
	// ErrConnClosed settles outstanding correlated commands when the
	// connection goes away underneath them.
	ErrConnClosed = errors.New("connection closed")
	// ErrNotConnected rejects commands issued outside an established session.
	ErrNotConnected = errors.New("not connected to server")
	// ErrAlreadyConnected rejects Connect on a live connection.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrAlreadyPending rejects a second correlated command on the same
	// operation/channel while the first is still in flight.
	ErrAlreadyPending = errors.New("command already in flight")
	// ErrAnonymous rejects commands that need an authenticated identity.
	ErrAnonymous = errors.New("cannot send with an anonymous session")
	// ErrMaxReconnect is surfaced when the attempt budget runs out.
	ErrMaxReconnect = errors.New("max reconnect attempts reached")
)

// AuthError is terminal: the server refused the credentials, so reconnecting
// would only repeat the refusal.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "login failed: " + e.Reason
}

// NoticeError is a correlated-command failure reported by the server via a
// NOTICE. MsgID is the outcome code, Text the free-form server message.
type NoticeError struct {
	MsgID string
	Text  string
}

func (e *NoticeError) Error() string {
	if e.Text == "" {
		return e.MsgID
	}
	return fmt.Sprintf("%s: %s", e.MsgID, e.Text)
}
