package hdwallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// AddressInfo is the chain view of one address.
type AddressInfo struct {
	Balance decimal.Decimal `json:"balance"`
	TxCount int             `json:"tx_count"`
}

// PaymentOrder is an unsigned transfer the network turns into a transaction.
type PaymentOrder struct {
	Coin    string                     `json:"coin"`
	Inputs  []string                   `json:"inputs"`
	Change  string                     `json:"change"`
	Outputs map[string]decimal.Decimal `json:"outputs"`
}

// SignFunc signs hash with the key of address and returns a DER signature
// and the compressed public key.
type SignFunc func(address string, hash []byte) (sig, pubKey []byte, err error)

// Network is the blockchain access a Wallet needs.
type Network interface {
	AddressInfo(ctx context.Context, coin, address string) (AddressInfo, error)
	ExchangeRate(ctx context.Context, coin, fiat string) (decimal.Decimal, error)
	Send(ctx context.Context, order PaymentOrder, sign SignFunc) (string, error)
}

// AddressRef names an address that changed on chain.
type AddressRef struct {
	Coin    string `json:"coin"`
	Address string `json:"address"`
}
