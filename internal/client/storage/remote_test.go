package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/identity"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeystore implements the keystore contract in memory.
type fakeKeystore struct {
	mu      sync.Mutex
	records map[string]shared.UpdateRequest
	keys    map[string]string
	paths   []string
}

func newFakeKeystore() *fakeKeystore {
	return &fakeKeystore{records: map[string]shared.UpdateRequest{}, keys: map[string]string{}}
}

func (f *fakeKeystore) fail(w http.ResponseWriter, status int, typ string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(shared.ErrorResponse{Error: shared.ErrorBody{Type: typ}})
}

func (f *fakeKeystore) resolve(key string) (string, bool) {
	if _, ok := f.keys[key]; ok {
		return key, true
	}
	for id, rec := range f.records {
		if rec.Email != "" && rec.Email == key {
			return id, true
		}
	}
	return "", false
}

func (f *fakeKeystore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)

	switch r.URL.Path {
	case shared.PathCreate:
		var req shared.CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, taken := f.resolve(req.Email); req.Email != "" && taken {
			f.fail(w, http.StatusConflict, shared.ErrTypeEmailAlreadyRegistered)
			return
		}
		id := identity.GenerateIdentifier()
		f.keys[id] = "abc123"
		f.records[id] = shared.UpdateRequest{Identifier: id, Email: req.Email}
		_ = json.NewEncoder(w).Encode(shared.CreateResponse{Identifier: id, SharedKey: "abc123"})
	case shared.PathLoad, shared.PathCheckLoad:
		var req shared.LoadRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		id, ok := f.resolve(req.Identifier)
		if !ok {
			f.fail(w, http.StatusNotFound, shared.ErrTypeAccountNotFound)
			return
		}
		rec := f.records[id]
		_ = json.NewEncoder(w).Encode(shared.LoadResponse{Identifier: id, EncryptedData: rec.EncryptedData, Email: rec.Email})
	case shared.PathUpdate:
		var req shared.UpdateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		key, ok := f.keys[req.Identifier]
		if !ok {
			f.fail(w, http.StatusNotFound, shared.ErrTypeAccountNotFound)
			return
		}
		if key != req.SharedKey {
			f.fail(w, http.StatusUnauthorized, shared.ErrTypeInvalidSharedKey)
			return
		}
		f.records[req.Identifier] = req
		_ = json.NewEncoder(w).Encode(shared.IdentifierResponse{Identifier: req.Identifier})
	default:
		http.NotFound(w, r)
	}
}

func newRemote(t *testing.T) (*fakeKeystore, func(identity.Credential, string) *RemoteBackend) {
	t.Helper()
	ks := newFakeKeystore()
	srv := httptest.NewServer(ks)
	t.Cleanup(srv.Close)
	return ks, func(cred identity.Credential, pw string) *RemoteBackend {
		return NewRemoteBackend(srv.URL+"/", srv.Client(), cred, pw, nil)
	}
}

func TestRemoteBackend_CreateThenLoad(t *testing.T) {
	ks, newBackend := newRemote(t)
	ctx := context.Background()

	created, err := newBackend(identity.Email("r@example.com"), "pw").Create(ctx, sampleAccount(), "r@example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc123", created.SharedKey)
	assert.True(t, identity.IsValidIdentifier(created.Identifier))
	assert.Equal(t, []string{shared.PathCreate, shared.PathUpdate}, ks.paths)

	loaded, err := newBackend(identity.Email("r@example.com"), "pw").Load(ctx)
	require.NoError(t, err)
	assertSameJSON(t, created, loaded)

	loaded, err = newBackend(identity.Identifier(created.Identifier), "pw").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.Identifier, loaded.Identifier)
}

func TestRemoteBackend_Errors(t *testing.T) {
	_, newBackend := newRemote(t)
	ctx := context.Background()

	_, err := newBackend(identity.Email("missing@example.com"), "pw").Load(ctx)
	assert.ErrorIs(t, err, common.ErrAccountNotFound)

	_, err = newBackend(identity.Mnemonic(testMnemonic), "pw").Check(ctx)
	assert.ErrorIs(t, err, common.ErrAccountNotFound)

	created, err := newBackend(identity.None(), "pw").Create(ctx, sampleAccount(), "e@example.com")
	require.NoError(t, err)

	_, err = newBackend(identity.Identifier(created.Identifier), "bad").Load(ctx)
	assert.ErrorIs(t, err, common.ErrInvalidPassword)

	_, err = newBackend(identity.None(), "pw").Create(ctx, sampleAccount(), "e@example.com")
	assert.ErrorIs(t, err, common.ErrEmailTaken)

	// an update without the shared key is rejected
	stolen := newBackend(identity.None(), "pw")
	created.SharedKey = ""
	_, err = stolen.Save(ctx, created, created.Identifier)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestRemoteBackend_SaveUsesLearnedSharedKey(t *testing.T) {
	_, newBackend := newRemote(t)
	ctx := context.Background()

	created, err := newBackend(identity.None(), "pw").Create(ctx, sampleAccount(), "")
	require.NoError(t, err)

	b := newBackend(identity.Identifier(created.Identifier), "pw")
	acct, err := b.Load(ctx)
	require.NoError(t, err)

	acct.SharedKey = ""
	acct.Settings["theme"] = "blue"
	_, err = b.Save(ctx, acct, "")
	require.NoError(t, err)

	again, err := newBackend(identity.Identifier(created.Identifier), "pw").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "blue", again.Settings["theme"])
}

func TestRemoteBackend_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	b := NewRemoteBackend(srv.URL, nil, identity.Email("x@example.com"), "pw", nil)

	_, err := b.Check(context.Background())
	assert.ErrorIs(t, err, common.ErrKeystoreUnavailable)

	srv.Close()
	_, err = b.Load(context.Background())
	assert.ErrorIs(t, err, common.ErrKeystoreUnavailable)
}
