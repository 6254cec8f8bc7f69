// Package shared holds the keystore HTTP/JSON contract used by both the
// keystore server and the remote storage backend.
package shared

const (
	PathCreate    = "/create"
	PathLoad      = "/load"
	PathCheckLoad = "/checkload"
	PathUpdate    = "/update"
)

type CreateRequest struct {
	Email string `json:"email,omitempty"`
}

type CreateResponse struct {
	Identifier string `json:"identifier"`
	SharedKey  string `json:"shared_key,omitempty"`
}

// LoadRequest is used by /load and /checkload. Identifier may also be an
// email address.
type LoadRequest struct {
	Identifier string `json:"identifier"`
}

type LoadResponse struct {
	Identifier    string `json:"identifier"`
	EncryptedData string `json:"encrypted_data"`
	Email         string `json:"email,omitempty"`
}

type UpdateRequest struct {
	Identifier    string `json:"identifier"`
	EncryptedData string `json:"encrypted_data"`
	Email         string `json:"email,omitempty"`
	SharedKey     string `json:"shared_key,omitempty"`
}

type IdentifierResponse struct {
	Identifier string `json:"identifier"`
}
