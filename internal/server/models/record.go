// Package models holds the keystore server data model.
package models

import "time"

// Record is one stored account blob. The server never sees the plaintext:
// EncryptedData is sealed by the client with the account password.
type Record struct {
	Identifier    string
	Email         string
	EncryptedData string
	// SharedKey authorizes updates. Records created before shared keys
	// existed have none and accept any update.
	SharedKey string
	CreatedAt time.Time
	UpdatedAt time.Time
}
