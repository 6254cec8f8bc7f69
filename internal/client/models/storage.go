package models

// StorageRecord is the at-rest form of an Account.
type StorageRecord struct {
	Identifier    string `json:"identifier"`
	Email         string `json:"email,omitempty"`
	EncryptedData string `json:"encrypted_data"`
	SharedKey     string `json:"shared_key,omitempty"`
	// MnemonicHash is the hex SHA-256 of the seed, kept by local storage to
	// find an account by mnemonic without decrypting every record.
	MnemonicHash string `json:"mnemonicHash,omitempty"`
}
