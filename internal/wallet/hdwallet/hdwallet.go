// Package hdwallet implements wallet.Wallet on top of a BIP39 mnemonic and
// BIP44 key derivation (m/44'/coin'/0'/0/i) for every supported coin.
// Chain data comes from a Network.
package hdwallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/dmitrijs2005/coinkeeper/internal/coins"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
)

// DefaultGapLimit is the number of consecutive unused addresses after which
// discovery stops.
const DefaultGapLimit = 20

const mnemonicEntropyBits = 128

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

type Option func(*Wallet)

func WithLogger(l logging.Logger) Option {
	return func(w *Wallet) { w.log = l }
}

func WithGapLimit(n int) Option {
	return func(w *Wallet) {
		if n > 0 {
			w.gapLimit = n
		}
	}
}

// WithCoins restricts the wallet to the given coins.
func WithCoins(cs ...coins.Coin) Option {
	return func(w *Wallet) { w.coinSet = cs }
}

type Wallet struct {
	mnemonic string
	net      Network
	log      logging.Logger
	gapLimit int
	coinSet  []coins.Coin

	mu     sync.Mutex
	coins  map[string]*coinWallet
	events wallet.Broadcaster
}

var _ wallet.Wallet = (*Wallet)(nil)

// Generate creates a wallet from a fresh random mnemonic.
func Generate(net Network, opts ...Option) (*Wallet, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("generate mnemonic: %w", err)
	}
	return New(mnemonic, net, opts...)
}

// New builds a wallet from an existing mnemonic.
func New(mnemonic string, net Network, opts ...Option) (*Wallet, error) {
	return Restore(mnemonic, wallet.State{}, net, opts...)
}

// Restore builds a wallet from a mnemonic and a cached state so previously
// discovered addresses need not be derived and scanned again.
func Restore(mnemonic string, state wallet.State, net Network, opts ...Option) (*Wallet, error) {
	if mnemonic == "" {
		return nil, common.ErrMissingWalletSeed
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	w := &Wallet{
		mnemonic: mnemonic,
		net:      net,
		log:      logging.Nop(),
		gapLimit: DefaultGapLimit,
		coinSet:  coins.All(),
		coins:    map[string]*coinWallet{},
	}
	for _, o := range opts {
		o(w)
	}

	seed := bip39.NewSeed(mnemonic, "")
	for _, c := range w.coinSet {
		chain, err := externalChain(seed, c)
		if err != nil {
			return nil, fmt.Errorf("derive %s chain: %w", c.Name, err)
		}
		cw := &coinWallet{w: w, coin: c, chain: chain}
		if cs, ok := state.Coins[c.Name]; ok {
			cw.restore(cs.Addresses)
		}
		w.coins[c.Name] = cw
	}
	return w, nil
}

// externalChain derives m/44'/coin'/0'/0.
func externalChain(seed []byte, c coins.Coin) (*hdkeychain.ExtendedKey, error) {
	key, err := hdkeychain.NewMaster(seed, c.Params)
	if err != nil {
		return nil, err
	}
	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + c.Params.HDCoinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
	}
	for _, i := range path {
		key, err = key.Derive(i)
		if err != nil {
			return nil, err
		}
	}
	return key, nil
}

func (w *Wallet) Coins() map[string]wallet.Coin {
	out := make(map[string]wallet.Coin, len(w.coins))
	for name, cw := range w.coins {
		out[name] = cw
	}
	return out
}

func (w *Wallet) ExchangeRate(ctx context.Context, coin, fiat string) (decimal.Decimal, error) {
	if _, ok := w.coins[coin]; !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", common.ErrUnknownCoin, coin)
	}
	return w.net.ExchangeRate(ctx, coin, fiat)
}

func (w *Wallet) Mnemonic() string { return w.mnemonic }

func (w *Wallet) Subscribe() (<-chan wallet.Event, func()) { return w.events.Subscribe() }

// Close ends all subscriptions.
func (w *Wallet) Close() { w.events.Close() }

func (w *Wallet) Serialize() wallet.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := wallet.State{Coins: make(map[string]wallet.CoinState, len(w.coins))}
	for name, cw := range w.coins {
		addrs := make([]wallet.AddressState, len(cw.addrs))
		copy(addrs, cw.addrs)
		st.Coins[name] = wallet.CoinState{Balance: cw.balanceLocked(), Addresses: addrs}
	}
	return st
}

// SendPayment funds req from the addresses with a known positive balance, in
// derivation order, and sends change to the first unused address.
func (w *Wallet) SendPayment(ctx context.Context, req wallet.SendRequest) (string, error) {
	cw, ok := w.coins[req.Coin]
	if !ok {
		return "", fmt.Errorf("%w: %s", common.ErrUnknownCoin, req.Coin)
	}
	if len(req.To) == 0 {
		return "", fmt.Errorf("%w: no outputs", common.ErrInvalidAmount)
	}

	total := decimal.Zero
	for addr, amt := range req.To {
		if !amt.IsPositive() {
			return "", fmt.Errorf("%w: %s to %s", common.ErrInvalidAmount, amt, addr)
		}
		total = total.Add(amt)
	}

	if req.Discover {
		if _, err := cw.Balance(ctx, wallet.BalanceOptions{Discover: true}); err != nil {
			return "", err
		}
	}

	order, err := cw.order(total)
	if err != nil {
		return "", err
	}
	order.Outputs = req.To

	w.log.Info(ctx, "sending payment", "coin", req.Coin, "amount", total.String(), "inputs", len(order.Inputs))
	txid, err := w.net.Send(ctx, order, cw.sign)
	if err != nil {
		return "", err
	}
	return txid, nil
}

// HandleAddressUpdate refreshes one address after the network reported
// activity on it. Unknown addresses are ignored.
func (w *Wallet) HandleAddressUpdate(ctx context.Context, ref AddressRef) error {
	cw, ok := w.coins[ref.Coin]
	if !ok {
		return nil
	}
	w.mu.Lock()
	idx, known := cw.indexOf(ref.Address)
	w.mu.Unlock()
	if !known {
		return nil
	}

	if err := cw.refresh(ctx, idx); err != nil {
		return err
	}
	cw.publishBalance()
	return nil
}

// Addresses lists every derived address, for subscribing to chain updates.
func (w *Wallet) Addresses() []AddressRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []AddressRef
	for _, c := range w.coinSet {
		cw, ok := w.coins[c.Name]
		if !ok {
			continue
		}
		for _, a := range cw.addrs {
			out = append(out, AddressRef{Coin: c.Name, Address: a.Address})
		}
	}
	return out
}

// Follow applies updates until ctx is done or the channel closes.
func (w *Wallet) Follow(ctx context.Context, updates <-chan AddressRef) {
	for {
		select {
		case <-ctx.Done():
			return
		case ref, ok := <-updates:
			if !ok {
				return
			}
			if err := w.HandleAddressUpdate(ctx, ref); err != nil {
				w.log.Warn(ctx, "address update failed", "coin", ref.Coin, "address", ref.Address, "err", err)
			}
		}
	}
}

type coinWallet struct {
	w     *Wallet
	coin  coins.Coin
	chain *hdkeychain.ExtendedKey

	// guarded by w.mu
	addrs       []wallet.AddressState
	lastBalance decimal.Decimal
}

func (c *coinWallet) Name() string { return c.coin.Name }

// Balance refreshes cached addresses and, with Discover, keeps deriving until
// the gap limit of unused addresses is reached.
func (c *coinWallet) Balance(ctx context.Context, opts wallet.BalanceOptions) (decimal.Decimal, error) {
	c.w.mu.Lock()
	known := len(c.addrs)
	c.w.mu.Unlock()

	if known == 0 {
		if _, err := c.ensure(0); err != nil {
			return decimal.Zero, err
		}
		known = 1
	}

	for i := 0; i < known; i++ {
		if err := c.refresh(ctx, uint32(i)); err != nil {
			return decimal.Zero, err
		}
	}

	if opts.Discover {
		if err := c.discover(ctx); err != nil {
			return decimal.Zero, err
		}
	}

	return c.publishBalance(), nil
}

func (c *coinWallet) discover(ctx context.Context) error {
	gap := 0
	for i := uint32(0); gap < c.w.gapLimit; i++ {
		c.w.mu.Lock()
		cached := int(i) < len(c.addrs)
		var used bool
		if cached {
			used = c.addrs[i].Used()
		}
		c.w.mu.Unlock()

		if !cached {
			if _, err := c.ensure(i); err != nil {
				return err
			}
			if err := c.refresh(ctx, i); err != nil {
				return err
			}
			c.w.mu.Lock()
			used = c.addrs[i].Used()
			c.w.mu.Unlock()
		}

		if used {
			gap = 0
		} else {
			gap++
		}
	}
	return nil
}

// ensure derives addresses up to and including index.
func (c *coinWallet) ensure(index uint32) (string, error) {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()

	for uint32(len(c.addrs)) <= index {
		i := uint32(len(c.addrs))
		addr, err := c.address(i)
		if err != nil {
			return "", err
		}
		c.addrs = append(c.addrs, wallet.AddressState{Index: i, Address: addr})
	}
	return c.addrs[index].Address, nil
}

func (c *coinWallet) address(index uint32) (string, error) {
	key, err := c.chain.Derive(index)
	if err != nil {
		return "", err
	}
	pub, err := key.ECPubKey()
	if err != nil {
		return "", err
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), c.coin.Params)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

func (c *coinWallet) refresh(ctx context.Context, index uint32) error {
	c.w.mu.Lock()
	addr := c.addrs[index].Address
	c.w.mu.Unlock()

	info, err := c.w.net.AddressInfo(ctx, c.coin.Name, addr)
	if err != nil {
		return fmt.Errorf("%s address %s: %w", c.coin.Name, addr, err)
	}

	c.w.mu.Lock()
	prev := c.addrs[index]
	changed := !prev.Balance.Equal(info.Balance) || prev.TxCount != info.TxCount
	c.addrs[index].Balance = info.Balance
	c.addrs[index].TxCount = info.TxCount
	c.w.mu.Unlock()

	if changed {
		c.w.events.Publish(wallet.Event{
			Type:    wallet.AddressUpdated,
			Coin:    c.coin.Name,
			Address: addr,
			Balance: info.Balance,
		})
	}
	return nil
}

// publishBalance emits BalanceChanged when the sum moved since last time.
func (c *coinWallet) publishBalance() decimal.Decimal {
	c.w.mu.Lock()
	bal := c.balanceLocked()
	changed := !bal.Equal(c.lastBalance)
	c.lastBalance = bal
	c.w.mu.Unlock()

	if changed {
		c.w.events.Publish(wallet.Event{Type: wallet.BalanceChanged, Coin: c.coin.Name, Balance: bal})
	}
	return bal
}

func (c *coinWallet) balanceLocked() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range c.addrs {
		sum = sum.Add(a.Balance)
	}
	return sum
}

func (c *coinWallet) restore(addrs []wallet.AddressState) {
	sorted := make([]wallet.AddressState, len(addrs))
	copy(sorted, addrs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	// Only a contiguous prefix is trusted; anything else is re-derived.
	for i, a := range sorted {
		if a.Index != uint32(i) {
			break
		}
		c.addrs = append(c.addrs, a)
	}
	c.lastBalance = c.balanceLocked()
}

func (c *coinWallet) indexOf(address string) (uint32, bool) {
	for _, a := range c.addrs {
		if a.Address == address {
			return a.Index, true
		}
	}
	return 0, false
}

func (c *coinWallet) order(total decimal.Decimal) (PaymentOrder, error) {
	c.w.mu.Lock()
	var (
		inputs []string
		funded = decimal.Zero
		change = ""
	)
	for _, a := range c.addrs {
		if a.Balance.IsPositive() && funded.LessThan(total) {
			inputs = append(inputs, a.Address)
			funded = funded.Add(a.Balance)
		}
		if change == "" && !a.Used() {
			change = a.Address
		}
	}
	next := uint32(len(c.addrs))
	c.w.mu.Unlock()

	if funded.LessThan(total) {
		return PaymentOrder{}, fmt.Errorf("%w: %s available, %s needed", common.ErrInsufficientFunds, funded, total)
	}
	if change == "" {
		addr, err := c.ensure(next)
		if err != nil {
			return PaymentOrder{}, err
		}
		change = addr
	}
	return PaymentOrder{Coin: c.coin.Name, Inputs: inputs, Change: change}, nil
}

func (c *coinWallet) sign(address string, hash []byte) ([]byte, []byte, error) {
	c.w.mu.Lock()
	idx, ok := c.indexOf(address)
	c.w.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("address %s does not belong to this wallet", address)
	}

	key, err := c.chain.Derive(idx)
	if err != nil {
		return nil, nil, err
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, nil, err
	}
	sig := ecdsa.Sign(priv, hash)
	return sig.Serialize(), priv.PubKey().SerializeCompressed(), nil
}
