// Package payment resolves a purchase intent into one coin, address and
// amount and sends the transfer through a wallet.
//
// The stages of Pay are exported so callers can rerun part of the pipeline
// with tables they already hold.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/artifact"
	"github.com/dmitrijs2005/coinkeeper/internal/coins"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultStageTimeout bounds every single rate or balance lookup.
const DefaultStageTimeout = 15 * time.Second

type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l.With("module", "payment") }
}

// WithStageTimeout sets the per-coin lookup timeout. A lookup that times out
// is recorded as an error for that coin.
func WithStageTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLock makes Pay hold mu for its whole run. Engines built over the same
// wallet should share one lock.
func WithLock(mu *sync.Mutex) Option {
	return func(e *Engine) {
		if mu != nil {
			e.mu = mu
		}
	}
}

type Engine struct {
	wallet  wallet.Wallet
	log     logging.Logger
	timeout time.Duration
	mu      *sync.Mutex
}

func New(w wallet.Wallet, opts ...Option) *Engine {
	e := &Engine{wallet: w, log: logging.Nop(), timeout: DefaultStageTimeout, mu: &sync.Mutex{}}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Receipt describes a completed payment.
type Receipt struct {
	TxID       string
	Coin       string
	Ticker     string
	Address    string
	Amount     decimal.Decimal
	FiatAmount decimal.Decimal
	Fiat       string
}

// GetExchangeRates looks up the fiat rate of every coin concurrently. A coin
// whose lookup fails or times out gets an error entry; only an empty coin
// list is an error.
func (e *Engine) GetExchangeRates(ctx context.Context, names []string, fiat string) (RateTable, error) {
	if len(names) == 0 {
		return nil, common.ErrNoCoins
	}
	if fiat == "" {
		fiat = common.DefaultFiat
	}

	rates := make(RateTable, len(names))
	e.fanOut(ctx, names, func(ctx context.Context, name string) (decimal.Decimal, error) {
		return e.wallet.ExchangeRate(ctx, name, fiat)
	}, func(name string, q Quote) {
		rates[name] = q
	})
	return rates, nil
}

// GetWalletBalances queries every coin balance concurrently with discovery
// enabled. Unknown coins and failed lookups get an error entry.
func (e *Engine) GetWalletBalances(ctx context.Context, names []string) (BalanceTable, error) {
	if len(names) == 0 {
		return nil, common.ErrNoCoins
	}

	handles := e.wallet.Coins()
	balances := make(BalanceTable, len(names))
	e.fanOut(ctx, names, func(ctx context.Context, name string) (decimal.Decimal, error) {
		c, ok := handles[name]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: wallet has no %s", common.ErrUnknownCoin, name)
		}
		return c.Balance(ctx, wallet.BalanceOptions{Discover: true})
	}, func(name string, q Quote) {
		balances[name] = q
	})
	return balances, nil
}

// fanOut runs lookup for every name at once and reports each result through
// set, which is called under a lock. A lookup still running when its timeout
// fires is abandoned and recorded with the context error.
func (e *Engine) fanOut(
	ctx context.Context,
	names []string,
	lookup func(context.Context, string) (decimal.Decimal, error),
	set func(string, Quote),
) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, e.timeout)
			defer cancel()

			done := make(chan Quote, 1)
			go func() {
				v, err := lookup(cctx, name)
				done <- Quote{Value: v, Err: err}
			}()

			var q Quote
			select {
			case q = <-done:
			case <-cctx.Done():
				q = Quote{Err: cctx.Err()}
			}
			if q.Err != nil {
				e.log.Warn(ctx, "coin lookup failed", "coin", name, "err", q.Err)
			}

			mu.Lock()
			set(name, q)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// SendPayment transfers amount of coin to address without rescanning the
// wallet.
func (e *Engine) SendPayment(ctx context.Context, address string, amount decimal.Decimal, coin string) (string, error) {
	txid, err := e.wallet.SendPayment(ctx, wallet.SendRequest{
		To:       map[string]decimal.Decimal{address: amount},
		Coin:     coins.TickerToName(coin),
		Discover: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrPaymentSendFailed, err)
	}
	return txid, nil
}

// Pay runs the whole pipeline: amount, supported coins, rates, costs,
// balances, coin pick, address lookup and send. Calls sharing the engine's
// lock are serialized so two payments never pick from the same balance
// snapshot.
func (e *Engine) Pay(ctx context.Context, a artifact.Artifact, in Intent) (Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fiat := in.Fiat
	if fiat == "" {
		fiat = common.DefaultFiat
	}

	amount, err := GetPaymentAmount(in)
	if err != nil {
		return Receipt{}, e.fail(ctx, StageAmount, err)
	}

	tickers, err := GetSupportedCoins(a)
	if err != nil {
		return Receipt{}, e.fail(ctx, StageCoins, err)
	}
	names := coins.TickersToNames(tickers)
	e.log.Info(ctx, "paying", "type", in.Type, "amount", amount.String(), "fiat", fiat, "coins", names)

	rates, err := e.GetExchangeRates(ctx, names, fiat)
	if err != nil {
		return Receipt{}, e.fail(ctx, StageRates, err)
	}

	costs := FiatToCrypto(rates, amount)
	if len(costs) == 0 {
		return Receipt{}, e.fail(ctx, StageCosts, fmt.Errorf("%w: no exchange rate available (%s)", common.ErrNoCoins, rates))
	}

	balances, err := e.GetWalletBalances(ctx, names)
	if err != nil {
		return Receipt{}, e.fail(ctx, StageBalances, err)
	}

	coin, err := CoinPicker(balances, costs, in.PreferredCoin)
	if err != nil {
		return Receipt{}, e.fail(ctx, StagePick, err)
	}

	ticker := coins.NameToTicker(coin)
	addrs, err := GetPaymentAddress(a, []string{ticker})
	if err != nil {
		return Receipt{}, e.fail(ctx, StageAddress, err)
	}
	address, ok := addrs[ticker]
	if !ok || address == "" {
		return Receipt{}, e.fail(ctx, StageAddress, fmt.Errorf("%w: no %s address", common.ErrInvalidAddressMap, ticker))
	}

	txid, err := e.SendPayment(ctx, address, costs[coin], coin)
	if err != nil {
		return Receipt{}, e.fail(ctx, StageSend, err)
	}

	e.log.Info(ctx, "payment sent", "coin", coin, "address", address, "amount", costs[coin].String(), "txid", txid)
	return Receipt{
		TxID:       txid,
		Coin:       coin,
		Ticker:     ticker,
		Address:    address,
		Amount:     costs[coin],
		FiatAmount: amount,
		Fiat:       fiat,
	}, nil
}

func (e *Engine) fail(ctx context.Context, stage Stage, err error) error {
	e.log.Error(ctx, "payment failed", "stage", stage, "err", err)
	var pe *PickError
	if errors.As(err, &pe) {
		err = fmt.Errorf("%w: %s", common.ErrInsufficientFunds, pe.Reason)
	}
	return &StageError{Stage: stage, Err: err}
}
