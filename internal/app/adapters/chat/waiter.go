package chat

import (
	"sync"
	"time"

	"tmi/internal/app/infrastructure/irc"
)

// validateFunc inspects a notified message for one pending operation.
// done=true settles the operation with err (nil = success); done=false
// leaves it pending.
type validateFunc func(msgID string, msg *irc.Message) (done bool, err error)

type pendingKey struct {
	op      string
	channel string
}

// Pending is one registered correlated operation. It settles at most once:
// the listener is deregistered synchronously with settlement.
type Pending struct {
	w        *Waiter
	key      pendingKey
	validate validateFunc
	settled  chan error // buffered 1, written exactly once
}

// Waiter correlates a sent command with a later, loosely-related inbound
// message. The server keys outcomes by channel and msg-id instead of
// request ids, so one operation may be pending per (op, channel) and the
// validator decides whether a notification belongs to it.
type Waiter struct {
	mu      sync.Mutex
	pending map[pendingKey]*Pending
}

func NewWaiter() *Waiter {
	return &Waiter{pending: make(map[pendingKey]*Pending)}
}

// Register creates the pending operation before the command is written, so
// a fast reply cannot slip past the listener.
func (w *Waiter) Register(op, channel string, validate validateFunc) (*Pending, error) {
	if channel != "" {
		channel = irc.NormalizeChannel(channel)
	}
	p := &Pending{
		w:        w,
		key:      pendingKey{op: op, channel: channel},
		validate: validate,
		settled:  make(chan error, 1),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.pending[p.key]; exists {
		return nil, ErrAlreadyPending
	}
	w.pending[p.key] = p
	return p, nil
}

// Await blocks until a matching notification settles the operation or the
// timeout fires; the timeout deregisters the listener and reports the
// fixed no-response sentinel.
func (p *Pending) Await(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-p.settled:
		return err
	case <-timer.C:
		p.w.mu.Lock()
		if p.w.pending[p.key] == p {
			delete(p.w.pending, p.key)
			p.w.mu.Unlock()
			return ErrNoResponse
		}
		p.w.mu.Unlock()
		// settled concurrently with the timer; the result won
		return <-p.settled
	}
}

// Cancel deregisters without settling; for a command whose write failed.
func (p *Pending) Cancel() {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	if p.w.pending[p.key] == p {
		delete(p.w.pending, p.key)
	}
}

// Notify offers an inbound message to the operation pending under
// (op, channel of msg). A channel-less registration matches any channel.
func (w *Waiter) Notify(op, msgID string, msg *irc.Message) {
	channel := ""
	if msg != nil && msg.Channel != "" {
		channel = irc.NormalizeChannel(msg.Channel)
	}

	keys := []pendingKey{{op: op, channel: channel}}
	if channel != "" {
		keys = append(keys, pendingKey{op: op, channel: ""})
	}

	for _, key := range keys {
		w.mu.Lock()
		p := w.pending[key]
		w.mu.Unlock()
		if p == nil {
			continue
		}

		done, err := p.validate(msgID, msg)
		if !done {
			continue
		}

		w.mu.Lock()
		if w.pending[key] == p {
			delete(w.pending, key)
			p.settled <- err
		}
		w.mu.Unlock()
		return
	}
}

// RejectAll settles every outstanding operation with err; used when the
// connection tears down.
func (w *Waiter) RejectAll(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key, p := range w.pending {
		delete(w.pending, key)
		p.settled <- err
	}
}
