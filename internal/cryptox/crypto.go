// Package cryptox implements the at-rest encryption used for stored account
// records.
//
// A record is serialized to JSON, padded (ISO 10126), encrypted with AES-256
// in CTR mode and authenticated with HMAC-SHA256. Both keys are derived from
// the account password with Argon2id over a per-record random salt. The
// result is a single base64 string:
//
//	version(1) | salt(16) | iv(16) | ciphertext | tag(32)
//
// Any failure to authenticate, unpad or unmarshal the plaintext is reported
// as common.ErrInvalidPassword, so a wrong password can never yield a
// silently accepted object.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	blobVersion = 0x01

	saltSize = 16
	tagSize  = sha256.Size

	// Argon2id parameters. They are part of the stored format and must not
	// change without bumping blobVersion.
	kdfIterations = 1
	kdfMemory     = 64 * 1024
	kdfThreads    = 4
	kdfKeyLen     = 64
)

// DeriveKeys stretches password into an AES-256 key and an HMAC key.
func DeriveKeys(password, salt []byte) (encKey, macKey []byte) {
	k := argon2.IDKey(password, salt, kdfIterations, kdfMemory, kdfThreads, kdfKeyLen)
	return k[:32], k[32:]
}

// HashSeed returns the hex SHA-256 of a raw wallet seed. Local storage keeps
// it next to each record so an account can be found by its mnemonic without
// decrypting every record.
func HashSeed(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:])
}

// EncryptEntry marshals entry to JSON and seals it with a key derived from
// password. Every call uses a fresh salt and IV.
func EncryptEntry(entry any, password []byte) (string, error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	salt := common.GenerateRandByteArray(saltSize)
	iv := common.GenerateRandByteArray(aes.BlockSize)

	encKey, macKey := DeriveKeys(password, salt)
	defer common.WipeByteArray(encKey)
	defer common.WipeByteArray(macKey)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", err
	}

	padded := padISO10126(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, padded)

	out := make([]byte, 0, 1+saltSize+aes.BlockSize+len(ciphertext)+tagSize)
	out = append(out, blobVersion)
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	out = append(out, sign(macKey, out)...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptEntry opens a blob produced by EncryptEntry and unmarshals the JSON
// into v. All failures wrap common.ErrInvalidPassword.
func DecryptEntry(blob string, password []byte, v any) error {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("%w: malformed ciphertext", common.ErrInvalidPassword)
	}
	if len(raw) < 1+saltSize+aes.BlockSize+aes.BlockSize+tagSize || raw[0] != blobVersion {
		return fmt.Errorf("%w: malformed ciphertext", common.ErrInvalidPassword)
	}

	body, tag := raw[:len(raw)-tagSize], raw[len(raw)-tagSize:]
	salt := body[1 : 1+saltSize]
	iv := body[1+saltSize : 1+saltSize+aes.BlockSize]
	ciphertext := body[1+saltSize+aes.BlockSize:]

	encKey, macKey := DeriveKeys(password, salt)
	defer common.WipeByteArray(encKey)
	defer common.WipeByteArray(macKey)

	if !hmac.Equal(tag, sign(macKey, body)) {
		return common.ErrInvalidPassword
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return err
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(padded, ciphertext)

	plaintext, err := unpadISO10126(padded, aes.BlockSize)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidPassword, err)
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidPassword, err)
	}
	return nil
}

func sign(key, data []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(data)
	return m.Sum(nil)
}

// padISO10126 appends 1..blockSize bytes: random filler followed by the
// padding length.
func padISO10126(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	out = append(out, common.GenerateRandByteArray(n-1)...)
	return append(out, byte(n))
}

func unpadISO10126(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("bad padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("bad padding")
	}
	return b[:len(b)-n], nil
}
