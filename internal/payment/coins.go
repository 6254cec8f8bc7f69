package payment

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/coinkeeper/internal/artifact"
	"github.com/dmitrijs2005/coinkeeper/internal/coins"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
)

// GetPaymentAddresses returns the artifact's ticker -> address map.
func GetPaymentAddresses(a artifact.Artifact) (map[string]string, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: no artifact", common.ErrInvalidAddressMap)
	}
	addrs, err := a.PaymentAddresses()
	if err != nil {
		return nil, err
	}
	if addrs == nil {
		return nil, fmt.Errorf("%w: artifact %s declares no addresses", common.ErrInvalidAddressMap, a.ID())
	}
	return addrs, nil
}

// GetPaymentAddress returns the addresses for the requested coins, given as
// names or tickers. The result is keyed by ticker; coins the artifact does
// not accept are left out.
func GetPaymentAddress(a artifact.Artifact, want []string) (map[string]string, error) {
	addrs, err := GetPaymentAddresses(a)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(want))
	for _, t := range coins.NamesToTickers(want) {
		if addr, ok := addrs[t]; ok {
			out[t] = addr
		}
	}
	return out, nil
}

// GetSupportedCoins returns the tickers the artifact accepts, in canonical
// order (btc, ltc, flo, then unknown tickers alphabetically). When preferred
// coins are given, the intersection is returned in the order they were
// given; if nothing intersects, the full supported set is returned.
func GetSupportedCoins(a artifact.Artifact, preferred ...string) ([]string, error) {
	addrs, err := GetPaymentAddresses(a)
	if err != nil {
		return nil, err
	}

	supported := make([]string, 0, len(addrs))
	for t := range addrs {
		supported = append(supported, t)
	}
	sort.Slice(supported, func(i, j int) bool {
		ri, rj := coins.Rank(supported[i]), coins.Rank(supported[j])
		if ri != rj {
			return ri < rj
		}
		return supported[i] < supported[j]
	})

	if len(preferred) == 0 {
		return supported, nil
	}

	var picked []string
	seen := map[string]bool{}
	for _, t := range coins.NamesToTickers(preferred) {
		if _, ok := addrs[t]; ok && !seen[t] {
			seen[t] = true
			picked = append(picked, t)
		}
	}
	if len(picked) == 0 {
		return supported, nil
	}
	return picked, nil
}
