package chat

import (
	"sync"
	"time"

	"tmi/internal/app/infrastructure/irc"
)

// joinFloor is the protocol-safe minimum spacing between JOINs; anything
// faster trips the per-connection join rate limit.
const joinFloor = 300 * time.Millisecond

// joinQueue paces outbound JOINs: strict FIFO, one join per interval.
// A fresh queue is built for every connection; shutdown kills it for good.
type joinQueue struct {
	interval time.Duration
	join     func(channel string)

	mu       sync.Mutex
	queue    []string
	queued   map[string]bool
	running  bool
	stopped  bool
	stop     chan struct{}
	stopOnce sync.Once
}

func newJoinQueue(interval time.Duration, join func(channel string)) *joinQueue {
	if interval < joinFloor {
		interval = joinFloor
	}
	return &joinQueue{
		interval: interval,
		join:     join,
		queued:   make(map[string]bool),
		stop:     make(chan struct{}),
	}
}

// enqueue schedules a channel, deduplicated after normalization, and starts
// the drain loop if it is idle. The first join of a drain fires immediately.
func (q *joinQueue) enqueue(channel string) {
	channel = irc.NormalizeChannel(channel)

	q.mu.Lock()
	if q.stopped || q.queued[channel] {
		q.mu.Unlock()
		return
	}
	q.queued[channel] = true
	q.queue = append(q.queue, channel)

	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	go q.run()
}

// enqueueUnion schedules several channel lists as one deduplicated batch.
// The queue's own map only guards channels still waiting, so a channel that
// drains between two lists would be scheduled again without this.
func enqueueUnion(q *joinQueue, lists ...[]string) {
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, channel := range list {
			channel = irc.NormalizeChannel(channel)
			if seen[channel] {
				continue
			}
			seen[channel] = true
			q.enqueue(channel)
		}
	}
}

func (q *joinQueue) run() {
	for {
		q.mu.Lock()
		if q.stopped || len(q.queue) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		channel := q.queue[0]
		q.queue = q.queue[1:]
		delete(q.queued, channel)
		q.mu.Unlock()

		q.join(channel)

		select {
		case <-q.stop:
			return
		case <-time.After(q.interval):
		}
	}
}

// shutdown drops the backlog and stops the drain loop permanently.
func (q *joinQueue) shutdown() {
	q.mu.Lock()
	q.stopped = true
	q.running = false
	q.queue = nil
	q.queued = make(map[string]bool)
	q.mu.Unlock()

	q.stopOnce.Do(func() { close(q.stop) })
}
