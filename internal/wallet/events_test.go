package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	var b Broadcaster
	c1, cancel1 := b.Subscribe()
	c2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish(Event{Type: BalanceChanged, Coin: "flo", Balance: decimal.NewFromInt(3)})

	e1 := <-c1
	e2 := <-c2
	assert.Equal(t, "flo", e1.Coin)
	assert.Equal(t, BalanceChanged, e2.Type)
}

func TestBroadcaster_CancelClosesChannel(t *testing.T) {
	var b Broadcaster
	ch, cancel := b.Subscribe()
	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)

	// publishing after cancel must not panic
	b.Publish(Event{Type: AddressUpdated})
}

func TestBroadcaster_PublishNeverBlocks(t *testing.T) {
	var b Broadcaster
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		b.Publish(Event{Type: BalanceChanged})
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcaster_Close(t *testing.T) {
	var b Broadcaster
	ch, cancel := b.Subscribe()
	b.Close()
	_, ok := <-ch
	require.False(t, ok)
	cancel()
}

func TestState_CloneIsDeep(t *testing.T) {
	s := State{Coins: map[string]CoinState{
		"flo": {Balance: decimal.NewFromInt(1), Addresses: []AddressState{{Index: 0, Address: "F1"}}},
	}}
	c := s.Clone()
	c.Coins["flo"].Addresses[0].Address = "changed"
	assert.Equal(t, "F1", s.Coins["flo"].Addresses[0].Address)
	assert.Empty(t, State{}.Clone().Coins)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "balance_changed", BalanceChanged.String())
	assert.Equal(t, "address_updated", AddressUpdated.String())
	assert.Equal(t, "unknown", EventType(0).String())
}
