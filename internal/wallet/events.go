package wallet

import (
	"sync"

	"github.com/shopspring/decimal"
)

// EventType enumerates wallet events.
type EventType int

const (
	BalanceChanged EventType = iota + 1
	AddressUpdated
)

func (t EventType) String() string {
	switch t {
	case BalanceChanged:
		return "balance_changed"
	case AddressUpdated:
		return "address_updated"
	default:
		return "unknown"
	}
}

// Event reports an asynchronous change of the wallet cache.
type Event struct {
	Type    EventType
	Coin    string
	Address string
	Balance decimal.Decimal
}

const subscriberBuffer = 16

// Broadcaster fans events out to subscribers. Publish never blocks: when a
// subscriber's buffer is full the event is dropped, since the subscriber
// already has pending events and reads the whole state when it catches up.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close cancels all subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
