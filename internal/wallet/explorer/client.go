// Package explorer talks to the block explorer, exchange-rate and signing
// services over HTTP and to the explorer's websocket feed. Client implements
// hdwallet.Network.
package explorer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/wallet/hdwallet"
	"github.com/shopspring/decimal"
)

type Config struct {
	ExplorerURL string
	RatesURL    string
	SignerURL   string
	Retries     int
	RetryDelay  time.Duration
	MaxDelay    time.Duration
	HTTPClient  *http.Client
	Logger      logging.Logger
}

type Client struct {
	explorer   string
	rates      string
	signer     string
	retries    int
	retryDelay time.Duration
	maxDelay   time.Duration
	http       *http.Client
	log        logging.Logger
}

var _ hdwallet.Network = (*Client)(nil)

var (
	// errRetryable marks failures worth another attempt.
	errRetryable = errors.New("retryable")
	errNotFound  = errors.New("not found")
)

func NewClient(cfg Config) *Client {
	c := &Client{
		explorer:   strings.TrimRight(cfg.ExplorerURL, "/"),
		rates:      strings.TrimRight(cfg.RatesURL, "/"),
		signer:     strings.TrimRight(cfg.SignerURL, "/"),
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		maxDelay:   cfg.MaxDelay,
		http:       cfg.HTTPClient,
		log:        cfg.Logger,
	}
	if c.rates == "" {
		c.rates = c.explorer
	}
	if c.signer == "" {
		c.signer = c.explorer
	}
	if c.retryDelay <= 0 {
		c.retryDelay = time.Second
	}
	if c.maxDelay <= 0 {
		c.maxDelay = 30 * time.Second
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = logging.Nop()
	}
	return c
}

func (c *Client) AddressInfo(ctx context.Context, coin, address string) (hdwallet.AddressInfo, error) {
	var info hdwallet.AddressInfo
	u := fmt.Sprintf("%s/api/%s/address/%s", c.explorer, url.PathEscape(coin), url.PathEscape(address))
	err := c.getJSON(ctx, u, &info)
	if errors.Is(err, errNotFound) {
		// never seen on chain
		return hdwallet.AddressInfo{}, nil
	}
	if err != nil {
		return hdwallet.AddressInfo{}, err
	}
	return info, nil
}

type rateResponse struct {
	Coin string          `json:"coin"`
	Fiat string          `json:"fiat"`
	Rate decimal.Decimal `json:"rate"`
}

func (c *Client) ExchangeRate(ctx context.Context, coin, fiat string) (decimal.Decimal, error) {
	var r rateResponse
	u := fmt.Sprintf("%s/api/rates/%s?fiat=%s", c.rates, url.PathEscape(coin), url.QueryEscape(fiat))
	err := c.getJSON(ctx, u, &r)
	if errors.Is(err, errNotFound) {
		return decimal.Zero, fmt.Errorf("%w: %s", common.ErrUnknownCoin, coin)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if !r.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive %s rate for %s: %s", fiat, coin, r.Rate)
	}
	return r.Rate, nil
}

type buildResponse struct {
	Unsigned  string `json:"unsigned"`
	SigHashes []struct {
		Input string `json:"input"`
		Hash  string `json:"hash"`
	} `json:"sighashes"`
}

type signature struct {
	Input     string `json:"input"`
	Signature string `json:"signature"`
	PubKey    string `json:"pubkey"`
}

type submitRequest struct {
	Unsigned   string      `json:"unsigned"`
	Signatures []signature `json:"signatures"`
}

type submitResponse struct {
	TxID string `json:"txid"`
}

// Send asks the signer service to build the transaction, signs every input
// sighash locally and submits the signatures. Private keys never leave the
// process.
func (c *Client) Send(ctx context.Context, order hdwallet.PaymentOrder, sign hdwallet.SignFunc) (string, error) {
	var built buildResponse
	buildURL := fmt.Sprintf("%s/api/%s/tx/build", c.signer, url.PathEscape(order.Coin))
	if err := c.postJSON(ctx, buildURL, order, &built, c.retries); err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	req := submitRequest{Unsigned: built.Unsigned}
	for _, sh := range built.SigHashes {
		hash, err := hex.DecodeString(sh.Hash)
		if err != nil {
			return "", fmt.Errorf("sighash for %s: %w", sh.Input, err)
		}
		sig, pub, err := sign(sh.Input, hash)
		if err != nil {
			return "", err
		}
		req.Signatures = append(req.Signatures, signature{
			Input:     sh.Input,
			Signature: hex.EncodeToString(sig),
			PubKey:    hex.EncodeToString(pub),
		})
	}

	var out submitResponse
	submitURL := fmt.Sprintf("%s/api/%s/tx/submit", c.signer, url.PathEscape(order.Coin))
	// a submit is not idempotent
	if err := c.postJSON(ctx, submitURL, req, &out, 0); err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}
	if out.TxID == "" {
		return "", fmt.Errorf("submit transaction: empty txid")
	}
	return out.TxID, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	return c.withRetry(ctx, c.retries, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		return c.do(req, v)
	})
}

func (c *Client) postJSON(ctx context.Context, u string, body, v any, retries int) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.withRetry(ctx, retries, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, v)
	})
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return req.Context().Err()
		}
		return fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", req.URL.Path, errNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) withRetry(ctx context.Context, retries int, fn func() error) error {
	var err error
	for i := 0; i <= retries; i++ {
		if i > 0 {
			delay := backoff(i-1, c.retryDelay, c.maxDelay)
			c.log.Warn(ctx, "retrying request", "attempt", i, "delay", delay, "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		err = fn()
		if err == nil || !errors.Is(err, errRetryable) {
			return err
		}
	}
	return err
}
