package wallet

import "github.com/shopspring/decimal"

// State is the serializable cache of a wallet: the addresses derived so far
// and their last known balances, per coin name.
type State struct {
	Coins map[string]CoinState `json:"coins,omitempty"`
}

// CoinState is the cached view of one coin.
type CoinState struct {
	Balance   decimal.Decimal `json:"balance"`
	Addresses []AddressState  `json:"addresses,omitempty"`
}

// AddressState is one derived receive address.
type AddressState struct {
	Index   uint32          `json:"index"`
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
	TxCount int             `json:"tx_count"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	if s.Coins == nil {
		return State{}
	}
	out := State{Coins: make(map[string]CoinState, len(s.Coins))}
	for name, cs := range s.Coins {
		addrs := make([]AddressState, len(cs.Addresses))
		copy(addrs, cs.Addresses)
		out.Coins[name] = CoinState{Balance: cs.Balance, Addresses: addrs}
	}
	return out
}

// Used reports whether the address has ever received funds.
func (a AddressState) Used() bool {
	return a.TxCount > 0 || !a.Balance.IsZero()
}
