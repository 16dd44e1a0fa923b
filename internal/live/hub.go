package live

import (
	"sync"
)

// Event kinds, one per live collection a client can watch.
const (
	KindChats     = "chats"
	KindMessages  = "messages"
	KindRoster    = "roster"
	KindInbox     = "inbox"
	KindGoals     = "goals"
	KindReminders = "reminders"
)

// Event tells subscribers that something in a collection changed. It carries
// the kind and the entity ID; subscribers refetch the affected list, keeping
// the full-snapshot semantics of the original store listeners.
type Event struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// Publisher is the write side of the hub. Services publish after a successful
// write; they never block on slow subscribers.
type Publisher interface {
	Publish(topic string, ev Event)
}

// TopicUser is the per-user topic carrying chats/roster/inbox/goals/reminders
// events for that user.
func TopicUser(uid string) string { return "user:" + uid }

// TopicChat carries message events for a single chat.
func TopicChat(chatID string) string { return "chat:" + chatID }

// Hub fans change events out to per-topic subscribers. Subscriptions are torn
// down by the returned cancel func when a watcher goes away.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a watcher on a topic. The returned cancel func removes
// the subscription and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[chan Event]struct{})
	}
	h.topics[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs := h.topics[topic]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the topic. A subscriber
// with a full buffer is skipped rather than blocking the writer; the skipped
// watcher catches up on its next refetch.
func (h *Hub) Publish(topic string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.topics[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}
