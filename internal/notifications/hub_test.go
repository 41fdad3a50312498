package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHubPublishSubscribe проверяет доставку событий подписчику.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	hub.Publish(userID, Event{Type: "test"})

	select {
	case event := <-ch:
		if event.Type != "test" {
			t.Fatalf("expected event type test, got %s", event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	assert.Zero(t, hub.Subscribers(userID))
}

// TestHubPublishCompany проверяет событие по компании и подставленное время.
func TestHubPublishCompany(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	hub := NewHub()
	hub.now = func() time.Time { return fixed }
	userID := uuid.New()
	companyID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	hub.PublishCompany(userID, companyID, EventCreditScoreComputed, map[string]any{"score": 720})

	event := <-ch
	assert.Equal(t, EventCreditScoreComputed, event.Type)
	require.NotNil(t, event.CompanyID)
	assert.Equal(t, companyID, *event.CompanyID)
	assert.Equal(t, fixed.UTC(), event.Timestamp)
	assert.Equal(t, map[string]any{"score": 720}, event.Data)
}

// TestHubIsolatesUsers проверяет, что события не уходят чужим подписчикам.
func TestHubIsolatesUsers(t *testing.T) {
	hub := NewHub()
	owner := uuid.New()
	other := uuid.New()

	otherCh, unsubscribe := hub.Subscribe(other)
	defer unsubscribe()

	hub.PublishCompany(owner, uuid.New(), EventHealthScoreComputed, nil)

	select {
	case event := <-otherCh:
		t.Fatalf("unexpected event %s", event.Type)
	default:
	}
}

// TestHubDropsWhenBufferFull проверяет, что публикация не блокируется на медленном подписчике.
func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(userID, Event{Type: "tick"})
	}

	assert.Len(t, ch, subscriberBuffer)
}

// TestNilHubPublishCompany проверяет, что nil-хаб безопасен.
func TestNilHubPublishCompany(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.PublishCompany(uuid.New(), uuid.New(), EventStatementUploaded, nil)
	})
}
