package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/coinkeeper/internal/artifact"
	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/coins"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/filex"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/payment"
)

// getSimpleText and getPassword point at the interactive helpers and are
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const maxArtifactSize = 1 << 20

var errNotLoggedIn = errors.New("log in first")

func (a *App) credentials(prompt string) (identity.Credential, string, error) {
	userName, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return identity.None(), "", err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return identity.None(), "", err
	}
	defer common.WipeByteArray(password)
	if len(password) == 0 {
		return identity.None(), "", errors.New("password must not be empty")
	}
	return identity.ParseCredential(userName), string(password), nil
}

// Create registers a new account. The username may be an email, an
// existing mnemonic to import, or empty for a fresh wallet.
func (a *App) Create(ctx context.Context) error {
	if a.isLoggedIn() {
		return errors.New("log out first")
	}
	cred, password, err := a.credentials("Enter email, recovery phrase, or nothing for a new wallet")
	if err != nil {
		return err
	}

	email := ""
	if cred.Kind() != identity.KindEmail {
		email, err = getSimpleText(a.reader, "Enter email (optional)", a.out)
		if err != nil {
			return err
		}
	}

	acct := a.newAccount(cred, password)
	data, err := acct.Create(ctx, email)
	if err != nil {
		return err
	}

	a.acct = acct
	a.userName = data.Identifier
	fmt.Fprintf(a.out, "Account %s created.\n", data.Identifier)
	if cred.Kind() != identity.KindMnemonic {
		fmt.Fprintf(a.out, "Write down your recovery phrase:\n  %s\n", data.Wallet.Mnemonic)
	}
	return nil
}

// Login opens an existing account by identifier, email or mnemonic.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		return errors.New("log out first")
	}
	cred, password, err := a.credentials("Enter identifier, email or recovery phrase")
	if err != nil {
		return err
	}

	acct := a.newAccount(cred, password)
	data, err := acct.Login(ctx)
	if err != nil {
		a.log.Warn(ctx, "login failed", "credential", cred, "err", err)
		return err
	}

	a.acct = acct
	a.userName = data.Identifier
	fmt.Fprintf(a.out, "Logged in as %s\n", data.Identifier)
	return nil
}

func (a *App) engine() (*payment.Engine, []string, error) {
	if !a.isLoggedIn() {
		return nil, nil, errNotLoggedIn
	}
	w, err := a.acct.Wallet()
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0)
	for name := range w.Coins() {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return coins.Rank(names[i]) < coins.Rank(names[j]) })

	e := payment.New(w, payment.WithLogger(a.log), payment.WithStageTimeout(a.config.StageTimeout))
	return e, names, nil
}

// Balance prints the balance of every wallet coin.
func (a *App) Balance(ctx context.Context) error {
	e, names, err := a.engine()
	if err != nil {
		return err
	}
	table, err := e.GetWalletBalances(ctx, names)
	if err != nil {
		return err
	}
	a.printTable(names, payment.RateTable(table), "")
	return nil
}

// Rates prints the fiat price of every wallet coin.
func (a *App) Rates(ctx context.Context, args []string) error {
	e, names, err := a.engine()
	if err != nil {
		return err
	}
	fiat := a.config.Fiat
	if len(args) > 0 {
		fiat = strings.ToLower(args[0])
	}
	table, err := e.GetExchangeRates(ctx, names, fiat)
	if err != nil {
		return err
	}
	a.printTable(names, table, " "+fiat)
	return nil
}

func (a *App) printTable(names []string, table payment.RateTable, unit string) {
	for _, name := range names {
		q := table[name]
		if !q.OK() {
			fmt.Fprintf(a.out, "  %-9s %-4s unavailable (%v)\n", name, coins.NameToTicker(name), q.Err)
			continue
		}
		fmt.Fprintf(a.out, "  %-9s %-4s %s%s\n", name, coins.NameToTicker(name), q.Value, unit)
	}
}

func loadArtifact(path string) (*artifact.Record, error) {
	data, err := filex.ReadLimited(path, maxArtifactSize)
	if err != nil {
		return nil, err
	}
	return artifact.Decode(bytes.NewReader(data))
}

func (a *App) fiatFor(rec *artifact.Record) string {
	if rec.Fiat != "" {
		return rec.Fiat
	}
	return a.config.Fiat
}

// Tip sends amount (in the artifact's fiat) to the publisher.
//
//	tip <artifact.json> <amount>
func (a *App) Tip(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if len(args) != 2 {
		return errors.New("usage: tip <artifact.json> <amount>")
	}
	rec, err := loadArtifact(args[0])
	if err != nil {
		return err
	}
	amount, err := ParseAmount(args[1])
	if err != nil {
		return err
	}

	r, err := a.acct.SendArtifactTip(ctx, rec, amount, a.fiatFor(rec))
	if err != nil {
		return err
	}
	a.printReceipt(r)
	return nil
}

// Purchase pays the view or buy price of one artifact file.
//
//	view|buy <artifact.json> [file index]
func (a *App) Purchase(ctx context.Context, typ payment.Type, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: %s <artifact.json> [file index]", typ)
	}
	rec, err := loadArtifact(args[0])
	if err != nil {
		return err
	}
	idx := 0
	if len(args) == 2 {
		idx, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: index %q", common.ErrInvalidArtifactFile, args[1])
		}
	}
	f, err := rec.File(idx)
	if err != nil {
		return err
	}

	r, err := a.acct.PayForArtifactFile(ctx, rec, f, typ, a.fiatFor(rec))
	if err != nil {
		return err
	}
	a.printReceipt(r)
	return nil
}

func (a *App) printReceipt(r payment.Receipt) {
	fmt.Fprintf(a.out, "Paid %s %s (%s %s) to %s\n  txid %s\n",
		r.Amount, r.Ticker, r.FiatAmount, r.Fiat, r.Address, r.TxID)
}

// Set stores a setting. "true" and "false" are stored as booleans.
//
//	set <key> <value...>
func (a *App) Set(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if len(args) < 2 {
		return errors.New("usage: set <key> <value>")
	}
	var value any = strings.Join(args[1:], " ")
	if b, err := strconv.ParseBool(value.(string)); err == nil {
		value = b
	}
	if _, err := a.acct.SetSetting(ctx, args[0], value); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s = %v\n", args[0], value)
	return nil
}

// Get prints a setting.
func (a *App) Get(_ context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if len(args) != 1 {
		return errors.New("usage: get <key>")
	}
	v, err := a.acct.GetSetting(args[0])
	if err != nil {
		return err
	}
	if v == nil {
		fmt.Fprintf(a.out, "%s is not set\n", args[0])
		return nil
	}
	fmt.Fprintf(a.out, "%s = %v\n", args[0], v)
	return nil
}

// History lists past payments, oldest first.
func (a *App) History(_ context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	data, err := a.acct.Data()
	if err != nil {
		return err
	}
	if len(data.PaymentHistory) == 0 {
		fmt.Fprintln(a.out, "No payments yet.")
		return nil
	}

	recs := make([]models.PaymentRecord, 0, len(data.PaymentHistory))
	for _, r := range data.PaymentHistory {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Time.Before(recs[j].Time) })

	for _, r := range recs {
		fmt.Fprintf(a.out, "%s  %-4s %s %s (%s %s) artifact %s txid %s\n",
			r.Time.Format("2006-01-02 15:04:05"), r.Type, r.Amount, r.Ticker,
			r.FiatAmount, r.Fiat, r.ArtifactID, r.TxID)
	}
	return nil
}

// Logout ends the session. Stored data stays where it is.
func (a *App) Logout(_ context.Context) error {
	if a.acct == nil {
		return errNotLoggedIn
	}
	a.acct.Logout()
	a.acct = nil
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

var _ execIface = (*App)(nil)
