// Package mock provides an in-memory wallet.Wallet with scripted balances,
// exchange rates, failures and latencies.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
	"github.com/shopspring/decimal"
)

// Wallet is a scripted wallet. Zero values of the maps mean "no coin".
// Fields must be set before the wallet is shared between goroutines.
type Wallet struct {
	Seed string

	Balances    map[string]decimal.Decimal
	BalanceErrs map[string]error
	Rates       map[string]decimal.Decimal
	RateErrs    map[string]error
	// Delay is applied to every rate and balance lookup of the given coin.
	Delay map[string]time.Duration

	SendErr error
	TxID    string

	mu       sync.Mutex
	sent     []wallet.SendRequest
	inflight int
	peak     int
	events   wallet.Broadcaster
}

var _ wallet.Wallet = (*Wallet)(nil)

// New returns a wallet funded with balances (coin name -> amount).
func New(balances map[string]decimal.Decimal) *Wallet {
	return &Wallet{
		Seed:     "mock seed",
		Balances: balances,
		Rates:    map[string]decimal.Decimal{},
		TxID:     "mocktx",
	}
}

type coin struct {
	w    *Wallet
	name string
}

func (c *coin) Name() string { return c.name }

func (c *coin) Balance(ctx context.Context, opts wallet.BalanceOptions) (decimal.Decimal, error) {
	if err := c.w.wait(ctx, c.name); err != nil {
		return decimal.Zero, err
	}
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if err := c.w.BalanceErrs[c.name]; err != nil {
		return decimal.Zero, err
	}
	return c.w.Balances[c.name], nil
}

func (w *Wallet) Coins() map[string]wallet.Coin {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]wallet.Coin, len(w.Balances)+len(w.BalanceErrs))
	for name := range w.Balances {
		out[name] = &coin{w: w, name: name}
	}
	for name := range w.BalanceErrs {
		out[name] = &coin{w: w, name: name}
	}
	return out
}

func (w *Wallet) ExchangeRate(ctx context.Context, name, fiat string) (decimal.Decimal, error) {
	if err := w.wait(ctx, name); err != nil {
		return decimal.Zero, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.RateErrs[name]; err != nil {
		return decimal.Zero, err
	}
	r, ok := w.Rates[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s rate for %s", common.ErrUnknownCoin, fiat, name)
	}
	return r, nil
}

// SendPayment records the request and debits the balance.
func (w *Wallet) SendPayment(ctx context.Context, req wallet.SendRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.SendErr != nil {
		return "", w.SendErr
	}
	total := decimal.Zero
	for _, amt := range req.To {
		total = total.Add(amt)
	}
	bal := w.Balances[req.Coin]
	if bal.LessThan(total) {
		return "", fmt.Errorf("balance %s below %s", bal, total)
	}
	w.Balances[req.Coin] = bal.Sub(total)
	w.sent = append(w.sent, req)
	return fmt.Sprintf("%s-%d", w.TxID, len(w.sent)), nil
}

func (w *Wallet) Mnemonic() string { return w.Seed }

func (w *Wallet) Serialize() wallet.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := wallet.State{Coins: map[string]wallet.CoinState{}}
	for name, bal := range w.Balances {
		st.Coins[name] = wallet.CoinState{Balance: bal}
	}
	return st
}

func (w *Wallet) Subscribe() (<-chan wallet.Event, func()) { return w.events.Subscribe() }

// SetBalance changes a balance after the wallet is in use.
func (w *Wallet) SetBalance(coin string, amount decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Balances == nil {
		w.Balances = map[string]decimal.Decimal{}
	}
	w.Balances[coin] = amount
}

// Emit publishes ev to subscribers, as a websocket update would.
func (w *Wallet) Emit(ev wallet.Event) { w.events.Publish(ev) }

// Sent returns a copy of all successful send requests.
func (w *Wallet) Sent() []wallet.SendRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]wallet.SendRequest, len(w.sent))
	copy(out, w.sent)
	return out
}

// PeakConcurrency reports the highest number of lookups that were in flight
// at the same time.
func (w *Wallet) PeakConcurrency() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.peak
}

func (w *Wallet) wait(ctx context.Context, name string) error {
	w.mu.Lock()
	d := w.Delay[name]
	w.inflight++
	if w.inflight > w.peak {
		w.peak = w.inflight
	}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.inflight--
		w.mu.Unlock()
	}()

	if d == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
