package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/client/account"
	"github.com/dmitrijs2005/coinkeeper/internal/client/config"
	"github.com/dmitrijs2005/coinkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/coinkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/coinkeeper/internal/client/storage"
	"github.com/dmitrijs2005/coinkeeper/internal/filex"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet/explorer"
)

// backendFunc opens the configured storage for one credential.
type backendFunc func(cred identity.Credential, password string) storage.Backend

type App struct {
	config  *config.Config
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	kind    storage.Kind
	backend backendFunc
	wallets account.WalletFactory
	db      *sql.DB

	acct     *account.Account
	userName string
}

// NewApp prepares storage and the wallet network described by c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	kind, err := storage.ParseKind(c.Storage)
	if err != nil {
		return nil, err
	}

	a := &App{
		config: c,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		kind:   kind,
	}

	httpClient := &http.Client{Timeout: c.HTTPTimeout}
	storeLog := log.With("module", "storage")

	switch kind {
	case storage.KindMemory:
		repo := metadata.NewMemoryRepository()
		a.backend = func(cred identity.Credential, pw string) storage.Backend {
			return storage.NewMemoryBackend(repo, cred, pw, storeLog)
		}
	case storage.KindLocal:
		path, err := filex.EnsureParentDir(c.DBPath)
		if err != nil {
			return nil, err
		}
		db, err := migrations.Open(ctx, path)
		if err != nil {
			log.Error(ctx, "error initializing database", "path", path, "err", err)
			return nil, err
		}
		a.db = db
		repo := metadata.NewSQLiteRepository(db)
		a.backend = func(cred identity.Credential, pw string) storage.Backend {
			return storage.NewLocalBackend(repo, cred, pw, storeLog)
		}
	case storage.KindRemote:
		a.backend = func(cred identity.Credential, pw string) storage.Backend {
			return storage.NewRemoteBackend(c.KeystoreURL, httpClient, cred, pw, storeLog)
		}
	}

	if c.Demo {
		a.wallets = demoWalletFactory()
	} else {
		net := explorer.NewClient(explorer.Config{
			ExplorerURL: c.ExplorerURL,
			RatesURL:    c.RatesURL,
			SignerURL:   c.SignerURL,
			Retries:     3,
			RetryDelay:  500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			HTTPClient:  httpClient,
			Logger:      log.With("module", "explorer"),
		})
		a.wallets = account.HDWalletFactory(net, c.FeedURL, log)
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close logs out and releases the database.
func (a *App) Close() {
	if a.acct != nil {
		a.acct.Logout()
		a.acct = nil
	}
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

func (a *App) isLoggedIn() bool {
	return a.acct != nil && a.acct.State() == account.Active
}

func (a *App) newAccount(cred identity.Credential, password string) *account.Account {
	return account.New(a.backend(cred, password), cred, a.wallets,
		account.WithLogger(a.log),
		account.WithDiscover(a.config.Discover),
		account.WithStageTimeout(a.config.StageTimeout),
	)
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	s += "(" + string(a.kind) + ")"
	if a.config.Demo {
		s += " demo"
	}
	return s
}

// Root runs the REPL on stdin.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to coinkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
