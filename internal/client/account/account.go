// Package account coordinates one user's account: it resolves the
// credential through a storage backend, owns the live wallet built from the
// stored seed and keeps the persisted copy in step with the wallet cache.
//
// Lifecycle: Uninitialized -> (Create | Login) -> Active -> LoggedOut.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/client/storage"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet"
)

type State int

const (
	Uninitialized State = iota
	Active
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case LoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

var ErrInvalidState = errors.New("invalid account state")

// WalletOptions are passed to a WalletFactory. An empty Mnemonic asks for a
// new random seed.
type WalletOptions struct {
	Mnemonic string
	State    *wallet.State
	Discover bool
}

type WalletFactory func(ctx context.Context, opts WalletOptions) (wallet.Wallet, error)

// runner is implemented by wallets that need a background loop for the
// lifetime of a session, e.g. to follow a websocket feed.
type runner interface {
	Run(ctx context.Context)
}

type Option func(*Account)

func WithLogger(l logging.Logger) Option {
	return func(a *Account) {
		a.root = l
		a.log = l.With("module", "account")
	}
}

// WithDiscover controls address discovery after create and login.
func WithDiscover(v bool) Option {
	return func(a *Account) { a.discover = v }
}

// WithStageTimeout is passed to the payment engine.
func WithStageTimeout(d time.Duration) Option {
	return func(a *Account) { a.stageTimeout = d }
}

type Account struct {
	backend      storage.Backend
	cred         identity.Credential
	newWallet    WalletFactory
	root         logging.Logger
	log          logging.Logger
	discover     bool
	stageTimeout time.Duration

	// payMu serializes payments so two never pick from one balance snapshot.
	payMu sync.Mutex

	mu     sync.Mutex
	state  State
	data   *models.Account
	wallet wallet.Wallet
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(backend storage.Backend, cred identity.Credential, factory WalletFactory, opts ...Option) *Account {
	a := &Account{
		backend:   backend,
		cred:      cred,
		newWallet: factory,
		root:      logging.Nop(),
		log:       logging.Nop(),
		discover:  true,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Account) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Create registers a new account. It fails with
// common.ErrAccountAlreadyExists when the credential already resolves.
func (a *Account) Create(ctx context.Context, email string) (*models.Account, error) {
	if err := a.begin(); err != nil {
		return nil, err
	}

	_, err := a.backend.Check(ctx)
	if err == nil {
		return nil, common.ErrAccountAlreadyExists
	}
	if !errors.Is(err, common.ErrAccountNotFound) {
		return nil, fmt.Errorf("check account: %w", err)
	}

	if email == "" && a.cred.Kind() == identity.KindEmail {
		email = a.cred.Value()
	}
	if email != "" && !identity.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: email %q", common.ErrInvalidSetting, email)
	}

	opts := WalletOptions{Discover: a.discover}
	if a.cred.Kind() == identity.KindMnemonic {
		opts.Mnemonic = a.cred.Value()
	}
	w, err := a.newWallet(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	data := models.NewAccount()
	data.Email = email
	data.Wallet.Mnemonic = w.Mnemonic()
	st := w.Serialize()
	data.Wallet.State = &st

	saved, err := a.backend.Create(ctx, data, email)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	a.log.Info(ctx, "account created", "identifier", saved.Identifier, "storage", a.backend.Kind())
	return a.activate(saved, w)
}

// Login loads the account and rebuilds the wallet from the stored seed and
// cached state.
func (a *Account) Login(ctx context.Context) (*models.Account, error) {
	if err := a.begin(); err != nil {
		return nil, err
	}

	data, err := a.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	if data.Wallet.Mnemonic == "" {
		return nil, common.ErrMissingWalletSeed
	}

	w, err := a.newWallet(ctx, WalletOptions{
		Mnemonic: data.Wallet.Mnemonic,
		State:    data.Wallet.State,
		Discover: a.discover,
	})
	if err != nil {
		return nil, fmt.Errorf("restore wallet: %w", err)
	}

	a.log.Info(ctx, "logged in", "identifier", data.Identifier, "storage", a.backend.Kind())
	return a.activate(data, w)
}

func (a *Account) begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Uninitialized {
		return fmt.Errorf("%w: %s", ErrInvalidState, a.state)
	}
	return nil
}

func (a *Account) activate(data *models.Account, w wallet.Wallet) (*models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Uninitialized {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, a.state)
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, unsubscribe := w.Subscribe()

	a.data = data
	a.wallet = w
	a.cancel = cancel
	a.state = Active

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.persistLoop(ctx, events, unsubscribe)
	}()

	if r, ok := w.(runner); ok {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			r.Run(ctx)
		}()
	}

	if a.discover {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.discoverAll(ctx, w)
		}()
	}

	return data.Clone()
}

// persistLoop stores the account after wallet events. Events that arrive
// while a store is pending are folded into it.
func (a *Account) persistLoop(ctx context.Context, events <-chan wallet.Event, unsubscribe func()) {
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.log.Info(ctx, "wallet event", "type", ev.Type, "coin", ev.Coin, "address", ev.Address)
		drain:
			for {
				select {
				case _, ok := <-events:
					if !ok {
						break drain
					}
				default:
					break drain
				}
			}
			if _, err := a.Store(ctx); err != nil {
				if errors.Is(err, common.ErrLoggedOut) || ctx.Err() != nil {
					return
				}
				a.log.Warn(ctx, "persist after wallet event failed", "err", err)
			}
		}
	}
}

func (a *Account) discoverAll(ctx context.Context, w wallet.Wallet) {
	for name, c := range w.Coins() {
		if _, err := c.Balance(ctx, wallet.BalanceOptions{Discover: true}); err != nil && ctx.Err() == nil {
			a.log.Warn(ctx, "discovery failed", "coin", name, "err", err)
		}
	}
}

// Logout drops the wallet and account data. Persisted storage is left as
// is. Calling it more than once is harmless.
func (a *Account) Logout() {
	a.mu.Lock()
	cancel := a.cancel
	a.state = LoggedOut
	a.data = nil
	a.wallet = nil
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
}

// Store serializes the wallet into the account and persists it.
func (a *Account) Store(ctx context.Context) (*models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storeLocked(ctx)
}

func (a *Account) storeLocked(ctx context.Context) (*models.Account, error) {
	if a.state != Active {
		return nil, common.ErrLoggedOut
	}
	st := a.wallet.Serialize()
	a.data.Wallet.State = &st

	saved, err := a.backend.Save(ctx, a.data, a.data.Identifier)
	if err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	saved.Normalize()
	a.data = saved
	return saved.Clone()
}

// SetSetting stores value under key and persists the account. A nil value
// is rejected; false and zero are fine.
func (a *Account) SetSetting(ctx context.Context, key string, value any) (*models.Account, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", common.ErrInvalidSetting)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: no value for %s", common.ErrInvalidSetting, key)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Active {
		return nil, common.ErrLoggedOut
	}
	a.data.Settings[key] = value
	return a.storeLocked(ctx)
}

// GetSetting returns the value under key, or nil when unset.
func (a *Account) GetSetting(key string) (any, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", common.ErrInvalidSetting)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Active {
		return nil, common.ErrLoggedOut
	}
	return a.data.Settings[key], nil
}

// Data returns a copy of the account.
func (a *Account) Data() (*models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Active {
		return nil, common.ErrLoggedOut
	}
	return a.data.Clone()
}

// Wallet returns the live wallet.
func (a *Account) Wallet() (wallet.Wallet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Active {
		return nil, common.ErrLoggedOut
	}
	return a.wallet, nil
}
