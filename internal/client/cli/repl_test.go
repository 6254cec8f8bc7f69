package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/coinkeeper/internal/payment"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	fail     error

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Create(context.Context) error {
	f.loggedIn = true
	return f.record("create")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Balance(context.Context) error { return f.record("balance") }
func (f *fakeExec) Rates(_ context.Context, args []string) error {
	return f.record("rates " + strings.Join(args, " "))
}
func (f *fakeExec) Tip(_ context.Context, args []string) error {
	return f.record("tip " + strings.Join(args, " "))
}
func (f *fakeExec) Purchase(_ context.Context, typ payment.Type, args []string) error {
	return f.record(string(typ) + " " + strings.Join(args, " "))
}
func (f *fakeExec) Set(_ context.Context, args []string) error {
	return f.record("set " + strings.Join(args, " "))
}
func (f *fakeExec) Get(_ context.Context, args []string) error {
	return f.record("get " + strings.Join(args, " "))
}
func (f *fakeExec) History(context.Context) error { return f.record("history") }
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"balance",
		"rates eur",
		"tip art.json 0.5",
		"view art.json 1",
		"buy art.json",
		"set preferred_coin flo",
		"get preferred_coin",
		"history",
		"foobar",
		"logout",
		"exit",
		"balance",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(input))

	assert.Equal(t, []string{
		"login",
		"balance",
		"rates eur",
		"tip art.json 0.5",
		"view art.json 1",
		"buy art.json",
		"set preferred_coin flo",
		"get preferred_coin",
		"history",
		"logout",
	}, exec.calls)

	assert.Contains(t, *out, helpLoggedOut)
	assert.Contains(t, *out, helpLoggedIn)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{fail: errors.New("keystore down")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("login\nbalance")))

	assert.Equal(t, []string{"login", "balance"}, exec.calls)
	assert.Contains(t, *out, "Error: keystore down")
}
