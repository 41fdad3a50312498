package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Типы событий, которые получает владелец компании.
const (
	EventConnected            = "connected"
	EventStatementUploaded    = "statement_uploaded"
	EventTransactionsImported = "transactions_imported"
	EventCreditScoreComputed  = "credit_score_computed"
	EventHealthScoreComputed  = "health_score_computed"
	EventInvestorReportReady  = "investor_report_ready"
)

const subscriberBuffer = 16

type Event struct {
	Type      string     `json:"type"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Data      any        `json:"data,omitempty"`
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
	now         func() time.Time
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
		now:         time.Now,
	}
}

// Subscribe подписывает пользователя на события и возвращает канал и функцию отписки.
// Повторный вызов функции отписки ничего не делает.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subscribers[userID]
	if !ok {
		userSubs = make(map[chan Event]struct{})
		h.subscribers[userID] = userSubs
	}
	userSubs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[userID]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам пользователя. Медленный подписчик с полным буфером
// событие теряет.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	event.Timestamp = h.now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishCompany отправляет событие по компании ее владельцу. nil-хаб допустим.
func (h *Hub) PublishCompany(userID, companyID uuid.UUID, eventType string, data any) {
	if h == nil {
		return
	}
	h.Publish(userID, Event{Type: eventType, CompanyID: &companyID, Data: data})
}

// Subscribers возвращает число активных подписок пользователя.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
