// Package wallet defines the capability the rest of the application uses to
// talk to a live multi-coin wallet: per-coin balances, fiat exchange rates,
// transfers, serialized state for fast resume, and an event stream that
// reports asynchronous balance and address changes.
package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceOptions controls a balance query.
type BalanceOptions struct {
	// Discover scans for newly used addresses before summing balances.
	Discover bool
}

// Coin is a handle on one coin of a wallet.
type Coin interface {
	Name() string
	Balance(ctx context.Context, opts BalanceOptions) (decimal.Decimal, error)
}

// SendRequest describes a transfer. To maps destination address -> amount in
// coin units.
type SendRequest struct {
	To       map[string]decimal.Decimal
	Coin     string
	Discover bool
}

// Wallet is a live wallet handle. It is owned by exactly one logged in
// account; concurrent SendPayment calls are not coordinated.
type Wallet interface {
	// Coins returns coin name -> handle.
	Coins() map[string]Coin
	// ExchangeRate returns the price of one coin unit in fiat.
	ExchangeRate(ctx context.Context, coin, fiat string) (decimal.Decimal, error)
	// SendPayment performs the transfer and returns the transaction id.
	SendPayment(ctx context.Context, req SendRequest) (string, error)
	// Mnemonic returns the seed phrase the wallet was built from.
	Mnemonic() string
	// Serialize snapshots the derived address and balance cache.
	Serialize() State
	// Subscribe returns a stream of wallet events and a cancel func that
	// closes it.
	Subscribe() (<-chan Event, func())
}
