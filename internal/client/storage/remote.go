package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
)

// RemoteBackend stores accounts on a keystore server. Only ciphertext
// leaves the process.
type RemoteBackend struct {
	sealer
	url  string
	http *http.Client
	log  logging.Logger
}

var _ Backend = (*RemoteBackend)(nil)

func NewRemoteBackend(url string, client *http.Client, cred identity.Credential, password string, log logging.Logger) *RemoteBackend {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &RemoteBackend{
		sealer: newSealer(cred, password),
		url:    strings.TrimRight(url, "/"),
		http:   client,
		log:    log,
	}
}

func (b *RemoteBackend) Kind() Kind { return KindRemote }

func (b *RemoteBackend) Check(ctx context.Context) (string, error) {
	key := b.lookupKey()
	if key == "" {
		return "", fmt.Errorf("%w: %s", common.ErrAccountNotFound, b.cred)
	}
	var resp shared.IdentifierResponse
	if err := b.post(ctx, shared.PathCheckLoad, shared.LoadRequest{Identifier: key}, &resp); err != nil {
		return "", err
	}
	return resp.Identifier, nil
}

func (b *RemoteBackend) Create(ctx context.Context, acct *models.Account, email string) (*models.Account, error) {
	out, err := acct.Clone()
	if err != nil {
		return nil, err
	}
	if email != "" {
		b.email = email
		out.Email = email
	}

	var created shared.CreateResponse
	if err := b.post(ctx, shared.PathCreate, shared.CreateRequest{Email: b.email}, &created); err != nil {
		return nil, err
	}
	if created.SharedKey != "" {
		b.sharedKey = created.SharedKey
		out.SharedKey = created.SharedKey
	}
	b.identifier = created.Identifier
	out.Identifier = created.Identifier

	return b.put(ctx, out, created.Identifier)
}

func (b *RemoteBackend) Load(ctx context.Context) (*models.Account, error) {
	key := b.lookupKey()
	if key == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrAccountNotFound, b.cred)
	}
	var loaded shared.LoadResponse
	if err := b.post(ctx, shared.PathLoad, shared.LoadRequest{Identifier: key}, &loaded); err != nil {
		return nil, err
	}
	acct, err := b.decrypt(loaded.EncryptedData)
	if err != nil {
		return nil, err
	}
	if acct.Identifier == "" {
		acct.Identifier = loaded.Identifier
		b.identifier = loaded.Identifier
	}
	return acct, nil
}

func (b *RemoteBackend) Save(ctx context.Context, acct *models.Account, identifier string) (*models.Account, error) {
	return upsert(ctx, b, acct, identifier)
}

func (b *RemoteBackend) put(ctx context.Context, acct *models.Account, identifier string) (*models.Account, error) {
	out, err := acct.Clone()
	if err != nil {
		return nil, err
	}
	out.Identifier = identifier
	b.identifier = identifier
	if out.SharedKey == "" {
		out.SharedKey = b.sharedKey
	}

	blob, err := b.encrypt(out)
	if err != nil {
		return nil, err
	}
	req := shared.UpdateRequest{
		Identifier:    identifier,
		EncryptedData: blob,
		Email:         out.Email,
		SharedKey:     out.SharedKey,
	}
	var resp shared.IdentifierResponse
	if err := b.post(ctx, shared.PathUpdate, req, &resp); err != nil {
		return nil, err
	}
	b.log.Info(ctx, "account saved", "identifier", resp.Identifier)
	return out, nil
}

// post sends one keystore request. Transport failures become
// common.ErrKeystoreUnavailable and error bodies are mapped by type.
func (b *RemoteBackend) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrKeystoreUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", common.ErrKeystoreUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrKeystoreUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e shared.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error.Type != "" {
			return shared.ErrorFromType(e.Error.Type, e.Error.Message)
		}
		return fmt.Errorf("%w: status %d", common.ErrKeystoreUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", common.ErrKeystoreUnavailable, path, err)
	}
	return nil
}

// IsNotFound reports whether err means the account does not exist.
func IsNotFound(err error) bool { return errors.Is(err, common.ErrAccountNotFound) }
