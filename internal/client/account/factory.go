package account

import (
	"context"

	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet/explorer"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet/hdwallet"
)

// liveWallet follows the explorer feed for the lifetime of a session.
type liveWallet struct {
	*hdwallet.Wallet
	feedURL string
	log     logging.Logger
}

func (w *liveWallet) Run(ctx context.Context) {
	if w.feedURL == "" {
		return
	}
	feed := explorer.NewFeed(w.feedURL, w.Addresses, w.log)
	w.Follow(ctx, feed.Run(ctx))
	feed.Wait()
}

// HDWalletFactory builds hdwallet wallets on top of net. When feedURL is set
// the wallet follows the explorer websocket while the account is active.
func HDWalletFactory(net hdwallet.Network, feedURL string, log logging.Logger) WalletFactory {
	if log == nil {
		log = logging.Nop()
	}
	return func(_ context.Context, opts WalletOptions) (wallet.Wallet, error) {
		hopts := []hdwallet.Option{hdwallet.WithLogger(log.With("module", "hdwallet"))}

		var (
			w   *hdwallet.Wallet
			err error
		)
		switch {
		case opts.Mnemonic == "":
			w, err = hdwallet.Generate(net, hopts...)
		case opts.State != nil:
			w, err = hdwallet.Restore(opts.Mnemonic, *opts.State, net, hopts...)
		default:
			w, err = hdwallet.New(opts.Mnemonic, net, hopts...)
		}
		if err != nil {
			return nil, err
		}
		return &liveWallet{Wallet: w, feedURL: feedURL, log: log.With("module", "feed")}, nil
	}
}
