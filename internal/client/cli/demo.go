package cli

import (
	"context"

	"github.com/dmitrijs2005/coinkeeper/internal/client/account"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet/mock"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
)

// Funds and prices of the offline demo wallet. Rates are the same for
// every fiat.
var (
	demoBalances = map[string]string{"bitcoin": "0.01", "litecoin": "1", "flo": "500"}
	demoRates    = map[string]string{"bitcoin": "60000", "litecoin": "80", "flo": "0.05"}
)

// demoWalletFactory builds scripted wallets that never touch the network.
// Balances are restored from the cached state so payments stick across
// logins.
func demoWalletFactory() account.WalletFactory {
	return func(_ context.Context, opts account.WalletOptions) (wallet.Wallet, error) {
		seed := opts.Mnemonic
		if seed == "" {
			entropy, err := bip39.NewEntropy(128)
			if err != nil {
				return nil, err
			}
			if seed, err = bip39.NewMnemonic(entropy); err != nil {
				return nil, err
			}
		}

		balances := make(map[string]decimal.Decimal, len(demoBalances))
		for name, v := range demoBalances {
			balances[name] = decimal.RequireFromString(v)
		}
		if opts.State != nil {
			for name, cs := range opts.State.Coins {
				balances[name] = cs.Balance
			}
		}

		w := mock.New(balances)
		w.Seed = seed
		w.TxID = "demo"
		for name, v := range demoRates {
			w.Rates[name] = decimal.RequireFromString(v)
		}
		return w, nil
	}
}
