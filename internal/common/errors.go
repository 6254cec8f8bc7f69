// Package common defines shared constants and sentinel errors used across
// the wallet client, the storage backends, and the keystore server. Callers
// should use errors.Is to match these values.
package common

import "errors"

var (
	// Account and storage errors.
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrMissingWalletSeed    = errors.New("account does not contain a wallet seed")
	ErrLoggedOut            = errors.New("account is not logged in")
	ErrInvalidSetting       = errors.New("invalid setting")

	// Keystore transport errors.
	ErrUnauthorized        = errors.New("unauthorized")
	ErrKeystoreUnavailable = errors.New("keystore unavailable")
	ErrEmailTaken          = errors.New("email already registered")

	// Payment intent validation (caller programming errors).
	ErrInvalidArtifactFile = errors.New("invalid artifact file")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPurchaseType = errors.New("invalid purchase type")
	ErrInvalidAddressMap   = errors.New("invalid payment address map")
	ErrNoCoins             = errors.New("no coins to query")

	// Payment execution errors.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPaymentSendFailed = errors.New("payment send failed")
	ErrUnknownCoin       = errors.New("unknown coin")

	// Generic.
	ErrorInternal = errors.New("internal error")
)
