package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/coinkeeper/internal/payment"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App implements it;
// tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Create(ctx context.Context) error
	Login(ctx context.Context) error
	Balance(ctx context.Context) error
	Rates(ctx context.Context, args []string) error
	Tip(ctx context.Context, args []string) error
	Purchase(ctx context.Context, typ payment.Type, args []string) error
	Set(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	History(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: create, login, exit"
	helpLoggedIn  = "Available commands: balance, rates [fiat], tip <artifact> <amount>, " +
		"view <artifact> [file], buy <artifact> [file], set <key> <value>, get <key>, " +
		"history, logout, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit" and
// dispatches them to a. Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("coinkeeper %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "create":
			err = a.Create(ctx)

		case "login":
			err = a.Login(ctx)

		case "balance", "b":
			err = a.Balance(ctx)

		case "rates":
			err = a.Rates(ctx, args)

		case "tip":
			err = a.Tip(ctx, args)

		case "view":
			err = a.Purchase(ctx, payment.View, args)

		case "buy":
			err = a.Purchase(ctx, payment.Buy, args)

		case "set":
			err = a.Set(ctx, args)

		case "get":
			err = a.Get(ctx, args)

		case "history":
			err = a.History(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
