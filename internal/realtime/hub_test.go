package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, userID string, allowed map[string]struct{}) *connection {
	return &connection{
		hub:     h,
		userID:  userID,
		send:    make(chan Message, defaultBufferSize),
		allowed: allowed,
	}
}

func TestBroadcastToUserReachesSubscribers(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "user-1", nil)
	hub.subscribe(client, []string{StreamNotifications})

	hub.BroadcastToUser(StreamNotifications, "user-1", Message{Event: "notification.created"})

	select {
	case msg := <-client.send:
		require.Equal(t, "notification.created", msg.Event)
		require.Equal(t, StreamNotifications, msg.Stream)
	default:
		t.Fatal("expected a queued message")
	}
}

func TestBroadcastToUserIgnoresOtherUsers(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "user-1", nil)
	hub.subscribe(client, []string{StreamNotifications})

	hub.BroadcastToUser(StreamNotifications, "someone-else", Message{Event: "notification.created"})

	select {
	case <-client.send:
		t.Fatal("message must not reach a different user")
	default:
	}
}

func TestBroadcastStreamFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()

	first := newTestClient(hub, "admin-1", nil)
	second := newTestClient(hub, "admin-2", nil)
	hub.subscribe(first, []string{StreamModeration})
	hub.subscribe(second, []string{StreamModeration})

	hub.BroadcastStream(StreamModeration, Message{Event: "reports.pending_count"})

	for _, client := range []*connection{first, second} {
		select {
		case msg := <-client.send:
			require.Equal(t, "reports.pending_count", msg.Event)
		default:
			t.Fatal("expected each subscriber to receive the broadcast")
		}
	}
}

func TestSubscribeHonoursAllowedStreams(t *testing.T) {
	hub := NewHub()

	allowed := map[string]struct{}{StreamNotifications: {}}
	client := newTestClient(hub, "user-1", allowed)
	hub.subscribe(client, []string{StreamNotifications, StreamModeration})

	hub.BroadcastToUser(StreamModeration, "user-1", Message{Event: "reports.pending_count"})
	select {
	case <-client.send:
		t.Fatal("unauthorized stream must not deliver")
	default:
	}

	hub.BroadcastToUser(StreamNotifications, "user-1", Message{Event: "notification.created"})
	select {
	case <-client.send:
	default:
		t.Fatal("authorized stream must deliver")
	}
}

func TestBroadcastDropsSlowClients(t *testing.T) {
	hub := NewHub()
	slow := newTestClient(hub, "user-1", nil)
	hub.subscribe(slow, []string{StreamNotifications})

	for i := 0; i < defaultBufferSize; i++ {
		require.True(t, slow.trySend(Message{Event: "notification.created"}))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.BroadcastToUser(StreamNotifications, "user-1", Message{Event: "notification.created"})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	// The client is disconnected: sends fail closed and the hub keeps
	// serving broadcasts.
	require.False(t, slow.trySend(Message{Event: "notification.created"}))
	hub.BroadcastStream(StreamNotifications, Message{Event: "notification.created"})

	hub.mu.RLock()
	_, subscribed := hub.members[subKey{StreamNotifications, "user-1"}]
	hub.mu.RUnlock()
	require.False(t, subscribed)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, "user-1", nil)
	hub.subscribe(client, []string{StreamNotifications})
	hub.unsubscribe(client, []string{StreamNotifications})

	hub.BroadcastToUser(StreamNotifications, "user-1", Message{Event: "notification.created"})

	select {
	case <-client.send:
		t.Fatal("unsubscribed client must not receive messages")
	default:
	}
}
