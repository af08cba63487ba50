// Package hub fans live notifications out to in-process subscribers. Pushes
// are best-effort: the durable row is the authoritative copy, so a slow or
// gone subscriber loses pushes, never data.
package hub

import (
	"sync"

	"tradematch/internal/notification/models"
	"tradematch/pkg/domain"
)

// subscriberBuffer bounds each subscription channel. A full buffer drops the
// push rather than blocking the dispatcher.
const subscriberBuffer = 16

type subscriber struct {
	userID domain.UserID
	ch     chan *models.Notification
}

// Hub routes notifications to open subscriptions by user id. All methods are
// safe for concurrent use.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	dropped func() // counter hook, may be nil
}

func New(dropped func()) *Hub {
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		dropped: dropped,
	}
}

// Subscribe opens a stream of future notifications for one user. The
// returned cancel is synchronous: once it returns, no further pushes are
// delivered and the channel is closed. Multiple subscriptions per user are
// allowed; each receives every notification.
func (h *Hub) Subscribe(userID domain.UserID) (<-chan *models.Notification, func()) {
	sub := &subscriber{
		userID: userID,
		ch:     make(chan *models.Notification, subscriberBuffer),
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish pushes a notification to every open subscription for its user.
// Sends happen under the lock so Publish never races a concurrent cancel's
// channel close; buffered channels keep the critical section short.
func (h *Hub) Publish(n *models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.userID != n.UserID {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			if h.dropped != nil {
				h.dropped()
			}
		}
	}
}

// Subscribers reports the number of open subscriptions, used by tests.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
