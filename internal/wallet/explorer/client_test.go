package explorer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet/hdwallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ExplorerURL: srv.URL,
		Retries:     2,
		RetryDelay:  time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})
}

func TestBackoff(t *testing.T) {
	base, max := 10*time.Millisecond, 50*time.Millisecond
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, base},
		{0, base},
		{1, 20 * time.Millisecond},
		{2, 40 * time.Millisecond},
		{3, max},
		{64, max},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff(tt.retry, base, max), "retry %d", tt.retry)
	}
}

func TestClient_AddressInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/flo/address/Fused", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":"1.25","tx_count":3}`))
	})
	c := newTestClient(t, mux)

	info, err := c.AddressInfo(context.Background(), "flo", "Fused")
	require.NoError(t, err)
	assert.True(t, info.Balance.Equal(decimal.RequireFromString("1.25")))
	assert.Equal(t, 3, info.TxCount)

	info, err = c.AddressInfo(context.Background(), "flo", "Fnew")
	require.NoError(t, err)
	assert.True(t, info.Balance.IsZero())
	assert.Zero(t, info.TxCount)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"coin":"flo","fiat":"usd","rate":0.1}`))
	}))

	rate, err := c.ExchangeRate(context.Background(), "flo", "usd")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.1")))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.ExchangeRate(context.Background(), "flo", "usd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRetryable))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_ExchangeRateErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rates/flo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rate":"0"}`))
	})
	mux.HandleFunc("/api/rates/bitcoin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.ExchangeRate(ctx, "doge", "usd")
	assert.ErrorIs(t, err, common.ErrUnknownCoin)

	_, err = c.ExchangeRate(ctx, "flo", "usd")
	assert.ErrorContains(t, err, "non-positive")

	_, err = c.ExchangeRate(ctx, "bitcoin", "usd")
	assert.ErrorContains(t, err, "status 400")
}

func TestClient_ExchangeRateHonoursContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ExchangeRate(ctx, "flo", "usd")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_SendBuildsSignsAndSubmits(t *testing.T) {
	hash := []byte{0xde, 0xad, 0xbe, 0xef}
	var got submitRequest
	var order hdwallet.PaymentOrder

	mux := http.NewServeMux()
	mux.HandleFunc("/api/flo/tx/build", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&order))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"unsigned":  "00ff",
			"sighashes": []map[string]string{{"input": "Fin", "hash": hex.EncodeToString(hash)}},
		})
	})
	mux.HandleFunc("/api/flo/tx/submit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"txid":"abc123"}`))
	})
	c := newTestClient(t, mux)

	sign := func(address string, h []byte) ([]byte, []byte, error) {
		assert.Equal(t, "Fin", address)
		assert.Equal(t, hash, h)
		return []byte{1, 2}, []byte{3, 4}, nil
	}
	txid, err := c.Send(context.Background(), hdwallet.PaymentOrder{
		Coin:    "flo",
		Inputs:  []string{"Fin"},
		Change:  "Fchange",
		Outputs: map[string]decimal.Decimal{"Fdest": decimal.NewFromInt(2)},
	}, sign)
	require.NoError(t, err)
	assert.Equal(t, "abc123", txid)

	assert.Equal(t, "Fchange", order.Change)
	assert.True(t, order.Outputs["Fdest"].Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "00ff", got.Unsigned)
	require.Len(t, got.Signatures, 1)
	assert.Equal(t, "0102", got.Signatures[0].Signature)
	assert.Equal(t, "0304", got.Signatures[0].PubKey)
}

func TestClient_SendDoesNotRetrySubmit(t *testing.T) {
	var submits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/flo/tx/build", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unsigned":"00","sighashes":[]}`))
	})
	mux.HandleFunc("/api/flo/tx/submit", func(w http.ResponseWriter, r *http.Request) {
		submits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	_, err := c.Send(context.Background(), hdwallet.PaymentOrder{Coin: "flo"}, nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, submits.Load())
}
