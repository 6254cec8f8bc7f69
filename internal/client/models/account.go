// Package models defines the account data the wallet client encrypts and
// persists.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the decrypted form of one user's wallet registration.
type Account struct {
	// Identifier is the stable storage key, see identity.GenerateIdentifier.
	Identifier string `json:"identifier,omitempty"`
	Email      string `json:"email,omitempty"`
	// SharedKey is issued by a remote keystore to authorize updates.
	SharedKey string `json:"shared_key,omitempty"`

	Wallet         WalletData               `json:"wallet"`
	Settings       map[string]any           `json:"settings"`
	History        map[string]any           `json:"history"`
	PaymentHistory map[string]PaymentRecord `json:"paymentHistory"`
}

// WalletData holds the seed and the serialized wallet cache.
type WalletData struct {
	Mnemonic string        `json:"mnemonic,omitempty"`
	State    *wallet.State `json:"state,omitempty"`
}

// NewAccount returns an empty account with initialized maps.
func NewAccount() *Account {
	return &Account{
		Settings:       map[string]any{},
		History:        map[string]any{},
		PaymentHistory: map[string]PaymentRecord{},
	}
}

// Normalize fills nil maps, e.g. after decoding data written by an older
// client.
func (a *Account) Normalize() {
	if a.Settings == nil {
		a.Settings = map[string]any{}
	}
	if a.History == nil {
		a.History = map[string]any{}
	}
	if a.PaymentHistory == nil {
		a.PaymentHistory = map[string]PaymentRecord{}
	}
}

// Clone returns a deep copy. Settings values go through a JSON round trip,
// so numbers come back as float64.
func (a *Account) Clone() (*Account, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("clone account: %w", err)
	}
	out := &Account{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("clone account: %w", err)
	}
	out.Normalize()
	return out, nil
}

// PaymentRecord is one completed payment kept in the account history.
type PaymentRecord struct {
	ID         string          `json:"id"`
	TxID       string          `json:"txid"`
	Coin       string          `json:"coin"`
	Ticker     string          `json:"ticker"`
	Address    string          `json:"address"`
	Amount     decimal.Decimal `json:"amount"`
	FiatAmount decimal.Decimal `json:"fiat_amount"`
	Fiat       string          `json:"fiat"`
	Type       string          `json:"type"`
	ArtifactID string          `json:"artifact_id"`
	Time       time.Time       `json:"time"`
}

// NewPaymentRecord assigns a fresh id and timestamp.
func NewPaymentRecord(r PaymentRecord) PaymentRecord {
	r.ID = uuid.NewString()
	r.Time = time.Now().UTC()
	return r
}
