// Package coins is the registry of supported cryptocurrencies. Wallets and
// exchange-rate providers name coins by their full name ("bitcoin") while
// artifacts declare payment addresses by ticker ("btc"); this package converts
// between the two.
package coins

import (
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Coin describes one supported cryptocurrency.
type Coin struct {
	Name   string
	Ticker string
	// Params holds the address and HD key version bytes used for derivation.
	Params *chaincfg.Params
}

var (
	Bitcoin  = Coin{Name: "bitcoin", Ticker: "btc", Params: &chaincfg.MainNetParams}
	Litecoin = Coin{Name: "litecoin", Ticker: "ltc", Params: altParams("litecoin", 0x30, 0x32, 0xb0, 2, "ltc")}
	Flo      = Coin{Name: "flo", Ticker: "flo", Params: altParams("flo", 0x23, 0x5e, 0xa3, 216, "flo")}
)

// registry order is the canonical listing order (btc, ltc, flo).
var registry = []Coin{Bitcoin, Litecoin, Flo}

// PreferenceOrder is the fixed order used to choose between several coins
// that can all cover a payment.
var PreferenceOrder = []string{Flo.Name, Litecoin.Name, Bitcoin.Name}

func altParams(name string, pkh, sh, wif byte, hdCoin uint32, hrp string) *chaincfg.Params {
	p := chaincfg.MainNetParams
	p.Name = name
	p.PubKeyHashAddrID = pkh
	p.ScriptHashAddrID = sh
	p.PrivateKeyID = wif
	p.HDCoinType = hdCoin
	p.Bech32HRPSegwit = hrp
	return &p
}

// All returns the supported coins in canonical order.
func All() []Coin {
	out := make([]Coin, len(registry))
	copy(out, registry)
	return out
}

// Names returns the names of all supported coins in canonical order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, c := range registry {
		out = append(out, c.Name)
	}
	return out
}

// Lookup finds a coin by name or ticker, case-insensitively.
func Lookup(nameOrTicker string) (Coin, bool) {
	s := strings.ToLower(strings.TrimSpace(nameOrTicker))
	for _, c := range registry {
		if c.Name == s || c.Ticker == s {
			return c, true
		}
	}
	return Coin{}, false
}

// NameToTicker converts a coin name to its ticker. Tickers and unknown values
// are returned unchanged.
func NameToTicker(name string) string {
	if c, ok := Lookup(name); ok {
		return c.Ticker
	}
	return name
}

// TickerToName converts a ticker to the coin name. Names and unknown values
// are returned unchanged.
func TickerToName(ticker string) string {
	if c, ok := Lookup(ticker); ok {
		return c.Name
	}
	return ticker
}

// NamesToTickers applies NameToTicker to every element.
func NamesToTickers(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = NameToTicker(n)
	}
	return out
}

// TickersToNames applies TickerToName to every element.
func TickersToNames(tickers []string) []string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = TickerToName(t)
	}
	return out
}

// Rank returns the position of the coin in canonical order, or len(registry)
// for unknown coins so they sort last.
func Rank(nameOrTicker string) int {
	c, ok := Lookup(nameOrTicker)
	if !ok {
		return len(registry)
	}
	for i, r := range registry {
		if r.Name == c.Name {
			return i
		}
	}
	return len(registry)
}
