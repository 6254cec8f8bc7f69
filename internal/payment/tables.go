package payment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/coinkeeper/internal/coins"
	"github.com/shopspring/decimal"
)

// Quote is one entry of a rate or balance table: a value, or the error that
// prevented obtaining it.
type Quote struct {
	Value decimal.Decimal
	Err   error
}

// OK reports whether the quote carries a value.
func (q Quote) OK() bool { return q.Err == nil }

// RateTable maps coin name -> fiat price of one coin. Every attempted coin
// has an entry.
type RateTable map[string]Quote

// BalanceTable maps coin name -> wallet balance.
type BalanceTable map[string]Quote

// CostTable maps coin name -> crypto amount required.
type CostTable map[string]decimal.Decimal

// FiatToCrypto converts a fiat amount with every valid rate. Failed and
// non-positive rates are left out.
func FiatToCrypto(rates RateTable, amount decimal.Decimal) CostTable {
	costs := make(CostTable, len(rates))
	for coin, q := range rates {
		if !q.OK() || !q.Value.IsPositive() {
			continue
		}
		costs[coin] = amount.Div(q.Value)
	}
	return costs
}

// CoinPicker selects the coin to pay with. Among coins whose balance covers
// the cost, preferred wins, then coins.PreferenceOrder, then the highest
// balance. It returns a *PickError when preferred is set but unusable, or
// when no coin is usable.
func CoinPicker(balances BalanceTable, costs CostTable, preferred string) (string, error) {
	usable := map[string]decimal.Decimal{}
	for coin, bal := range balances {
		cost, ok := costs[coin]
		if !ok || !bal.OK() {
			continue
		}
		if bal.Value.GreaterThanOrEqual(cost) {
			usable[coin] = bal.Value
		}
	}

	if len(usable) == 0 {
		return "", &PickError{Reason: "no coin has enough balance"}
	}

	if preferred != "" {
		name := coins.TickerToName(preferred)
		if _, ok := usable[name]; ok {
			return name, nil
		}
		return "", &PickError{Reason: fmt.Sprintf("preferred coin %s has not enough balance", name)}
	}

	for _, name := range coins.PreferenceOrder {
		if _, ok := usable[name]; ok {
			return name, nil
		}
	}

	// Map order is random; sort names so equal balances resolve the same
	// way every time.
	names := make([]string, 0, len(usable))
	for name := range usable {
		names = append(names, name)
	}
	sort.Strings(names)
	best := names[0]
	for _, name := range names[1:] {
		if usable[name].GreaterThan(usable[best]) {
			best = name
		}
	}
	return best, nil
}

func (t RateTable) String() string    { return quotes(t) }
func (t BalanceTable) String() string { return quotes(t) }

func quotes[M ~map[string]Quote](m M) string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if q := m[n]; q.OK() {
			parts = append(parts, n+"="+q.Value.String())
		} else {
			parts = append(parts, n+"=error")
		}
	}
	return strings.Join(parts, " ")
}
