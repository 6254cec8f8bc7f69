package identity

import (
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// Kind tells how a Credential identifies an account.
type Kind int

const (
	// KindNone means no username was supplied; only a fresh account can be
	// created with it.
	KindNone Kind = iota
	KindMnemonic
	KindEmail
	KindIdentifier
)

func (k Kind) String() string {
	switch k {
	case KindMnemonic:
		return "mnemonic"
	case KindEmail:
		return "email"
	case KindIdentifier:
		return "identifier"
	default:
		return "none"
	}
}

// Credential is the resolved form of the username a user types in. It is
// built once at the boundary so downstream code never sniffs strings again.
type Credential struct {
	kind  Kind
	value string
}

func Mnemonic(words string) Credential { return Credential{kind: KindMnemonic, value: words} }
func Email(addr string) Credential     { return Credential{kind: KindEmail, value: addr} }
func Identifier(id string) Credential  { return Credential{kind: KindIdentifier, value: id} }
func None() Credential                 { return Credential{kind: KindNone} }

// ParseCredential classifies username. A valid BIP39 mnemonic wins over an
// email, and anything else non-empty is treated as an identifier.
func ParseCredential(username string) Credential {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return None()
	case bip39.IsMnemonicValid(username):
		return Mnemonic(username)
	case IsValidEmail(username):
		return Email(username)
	default:
		return Identifier(username)
	}
}

func (c Credential) Kind() Kind    { return c.kind }
func (c Credential) Value() string { return c.value }

// String never reveals a mnemonic.
func (c Credential) String() string {
	if c.kind == KindMnemonic {
		return "mnemonic(****)"
	}
	return c.kind.String() + "(" + c.value + ")"
}
