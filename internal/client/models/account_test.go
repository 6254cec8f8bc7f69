package models

import (
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount_MapsInitialized(t *testing.T) {
	a := NewAccount()
	assert.NotNil(t, a.Settings)
	assert.NotNil(t, a.History)
	assert.NotNil(t, a.PaymentHistory)
}

func TestAccount_JSONShape(t *testing.T) {
	a := NewAccount()
	a.Identifier = "75c1209-dbcac5a6-e040977-64a52ae"
	a.Wallet.Mnemonic = "seed words"

	b, err := json.Marshal(a)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "paymentHistory")
	assert.Contains(t, m, "settings")
	assert.NotContains(t, m, "email")
	assert.Equal(t, "seed words", m["wallet"].(map[string]any)["mnemonic"])
}

func TestAccount_CloneIsDeep(t *testing.T) {
	a := NewAccount()
	a.Settings["theme"] = "dark"
	a.Wallet.State = &wallet.State{Coins: map[string]wallet.CoinState{
		"flo": {Balance: decimal.NewFromInt(3)},
	}}
	a.PaymentHistory["x"] = NewPaymentRecord(PaymentRecord{TxID: "tx", Amount: decimal.RequireFromString("0.5")})

	c, err := a.Clone()
	require.NoError(t, err)

	c.Settings["theme"] = "light"
	c.Wallet.State.Coins["flo"] = wallet.CoinState{}

	assert.Equal(t, "dark", a.Settings["theme"])
	assert.True(t, a.Wallet.State.Coins["flo"].Balance.Equal(decimal.NewFromInt(3)))
	assert.True(t, c.PaymentHistory["x"].Amount.Equal(decimal.RequireFromString("0.5")))
}

func TestAccount_NormalizeFillsNilMaps(t *testing.T) {
	var a Account
	require.NoError(t, json.Unmarshal([]byte(`{"identifier":"x","wallet":{"mnemonic":"m"}}`), &a))
	a.Normalize()
	assert.NotNil(t, a.Settings)
	assert.NotNil(t, a.History)
	assert.NotNil(t, a.PaymentHistory)
}

func TestNewPaymentRecord_AssignsIDAndTime(t *testing.T) {
	r1 := NewPaymentRecord(PaymentRecord{TxID: "a"})
	r2 := NewPaymentRecord(PaymentRecord{TxID: "b"})
	assert.NotEmpty(t, r1.ID)
	assert.NotEqual(t, r1.ID, r2.ID)
	assert.False(t, r1.Time.IsZero())
	assert.Equal(t, "a", r1.TxID)
}
