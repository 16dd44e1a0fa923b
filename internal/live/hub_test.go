package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TopicUser("u1"))
	defer cancel()

	hub.Publish(TopicUser("u1"), Event{Kind: KindGoals, ID: "g1"})

	ev := receive(t, ch)
	assert.Equal(t, KindGoals, ev.Kind)
	assert.Equal(t, "g1", ev.ID)
}

func TestTopicsAreIsolated(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TopicChat("c1"))
	defer cancel()

	hub.Publish(TopicChat("c2"), Event{Kind: KindMessages})
	hub.Publish(TopicUser("u1"), Event{Kind: KindChats})

	select {
	case ev := <-ch:
		t.Fatalf("received event from another topic: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFanOut(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe(TopicUser("u1"))
	defer cancelA()
	b, cancelB := hub.Subscribe(TopicUser("u1"))
	defer cancelB()

	hub.Publish(TopicUser("u1"), Event{Kind: KindInbox})

	assert.Equal(t, KindInbox, receive(t, a).Kind)
	assert.Equal(t, KindInbox, receive(t, b).Kind)
}

func TestCancelClosesChannelAndIsIdempotent(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TopicUser("u1"))

	cancel()
	cancel() // second call is a no-op

	_, open := <-ch
	assert.False(t, open, "channel closed after cancel")

	// Publishing after cancel must not panic on the closed channel.
	hub.Publish(TopicUser("u1"), Event{Kind: KindRoster})
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(TopicUser("u1"))
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Well past the channel buffer; must not block the publisher.
		for i := 0; i < 100; i++ {
			hub.Publish(TopicUser("u1"), Event{Kind: KindReminders})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	require.NotEmpty(t, ch, "buffered events are still delivered")
	assert.Equal(t, KindReminders, receive(t, ch).Kind)
}
