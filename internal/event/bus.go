package event

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shinyyama/scrap-exchange/internal/metrics"
	"github.com/shopspring/decimal"
)

type Type string

const (
	ListingCreated    Type = "listing.created"
	PurchaseInitiated Type = "purchase.initiated"
	PurchaseCancelled Type = "purchase.cancelled"
	PurchaseExpired   Type = "purchase.expired"
	PaymentCompleted  Type = "payment.completed"
)

// Event is emitted after a state transition has committed.
type Event struct {
	Type          Type
	ListingID     string
	TransactionID string
	BuyerID       string
	SellerID      string
	Amount        decimal.Decimal
	PaymentMethod string
	At            time.Time
}

type Handler func(ctx context.Context, ev Event)

type Publisher interface {
	Publish(ev Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Bus fans events out to subscribers on a fixed set of worker goroutines.
// Publish never blocks; a full queue drops the event.
type Bus struct {
	wg       sync.WaitGroup
	jobs     chan Event
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
	timeout  time.Duration
}

func NewBus(workers, queueSize int) *Bus {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	b := &Bus{jobs: make(chan Event, queueSize), timeout: 30 * time.Second}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for ev := range b.jobs {
				metrics.EventQueueDepth.Set(float64(len(b.jobs)))
				b.dispatch(ev)
			}
		}()
	}
	return b
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		metrics.EventsDropped.WithLabelValues(string(ev.Type)).Inc()
		log.Printf("[event] type=%s listing=%s stage=drop reason=closed", ev.Type, ev.ListingID)
		return
	}
	select {
	case b.jobs <- ev:
		metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	default:
		metrics.EventsDropped.WithLabelValues(string(ev.Type)).Inc()
		log.Printf("[event] type=%s listing=%s stage=drop reason=queue_full", ev.Type, ev.ListingID)
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.jobs)
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) dispatch(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.run(h, ev)
	}
}

func (b *Bus) run(h Handler, ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[event] type=%s listing=%s stage=handler_panic err=%v", ev.Type, ev.ListingID, p)
		}
	}()
	h(ctx, ev)
}
