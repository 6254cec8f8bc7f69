// Package artifact exposes the read-only view of published content that the
// payment engine needs: where to send coins and what the publisher suggests
// a play or a purchase should cost.
package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/shopspring/decimal"
)

// Artifact is a content record declaring payment addresses per coin ticker.
type Artifact interface {
	ID() string
	// PaymentAddresses returns ticker -> address. A malformed declaration
	// yields an error wrapping common.ErrInvalidAddressMap.
	PaymentAddresses() (map[string]string, error)
}

// File is one payable file of an Artifact. Costs are denominated in the
// artifact's fiat currency.
type File interface {
	SuggestedPlayCost() decimal.Decimal
	SuggestedBuyCost() decimal.Decimal
}

// Record is an OIP042 artifact decoded from JSON.
type Record struct {
	TxID       string
	FloAddress string
	Type       string
	Title      string
	Timestamp  int64
	Fiat       string

	addresses json.RawMessage
	files     []*FileRecord
}

// FileRecord is a file entry of an OIP042 artifact.
type FileRecord struct {
	Name    string          `json:"fname"`
	Size    int64           `json:"fsize"`
	Type    string          `json:"type"`
	SugPlay decimal.Decimal `json:"sugPlay"`
	SugBuy  decimal.Decimal `json:"sugBuy"`
}

func (f *FileRecord) SuggestedPlayCost() decimal.Decimal { return f.SugPlay }
func (f *FileRecord) SuggestedBuyCost() decimal.Decimal  { return f.SugBuy }

type oip042Envelope struct {
	TxID   string `json:"txid"`
	OIP042 struct {
		Artifact struct {
			FloAddress string `json:"floAddress"`
			Type       string `json:"type"`
			Info       struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"info"`
			Storage struct {
				Network  string        `json:"network"`
				Location string        `json:"location"`
				Files    []*FileRecord `json:"files"`
			} `json:"storage"`
			Payment struct {
				Fiat      string          `json:"fiat"`
				Addresses json.RawMessage `json:"addresses"`
			} `json:"payment"`
			Timestamp int64 `json:"timestamp"`
		} `json:"artifact"`
	} `json:"oip042"`
}

// Decode reads one OIP042 artifact document.
func Decode(r io.Reader) (*Record, error) {
	var env oip042Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	a := env.OIP042.Artifact
	return &Record{
		TxID:       env.TxID,
		FloAddress: a.FloAddress,
		Type:       a.Type,
		Title:      a.Info.Title,
		Timestamp:  a.Timestamp,
		Fiat:       strings.ToLower(a.Payment.Fiat),
		addresses:  a.Payment.Addresses,
		files:      a.Storage.Files,
	}, nil
}

// ID returns the artifact txid, or floAddress:timestamp when no txid is known.
func (r *Record) ID() string {
	if r.TxID != "" {
		return r.TxID
	}
	return fmt.Sprintf("%s:%d", r.FloAddress, r.Timestamp)
}

// PaymentAddresses parses the declared address map. Every key and value must
// be a non-empty string.
func (r *Record) PaymentAddresses() (map[string]string, error) {
	if len(r.addresses) == 0 || string(r.addresses) == "null" {
		return nil, fmt.Errorf("%w: no addresses declared", common.ErrInvalidAddressMap)
	}
	var m map[string]string
	if err := json.Unmarshal(r.addresses, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidAddressMap, err)
	}
	out := make(map[string]string, len(m))
	for coin, addr := range m {
		coin = strings.ToLower(strings.TrimSpace(coin))
		if coin == "" || strings.TrimSpace(addr) == "" {
			return nil, fmt.Errorf("%w: empty coin or address", common.ErrInvalidAddressMap)
		}
		out[coin] = addr
	}
	return out, nil
}

// Files returns the payable files in declaration order.
func (r *Record) Files() []*FileRecord { return r.files }

// File returns the i-th file.
func (r *Record) File(i int) (*FileRecord, error) {
	if i < 0 || i >= len(r.files) {
		return nil, fmt.Errorf("%w: no file at index %d", common.ErrInvalidArtifactFile, i)
	}
	return r.files[i], nil
}

// Static is an in-memory Artifact, handy when addresses come from somewhere
// other than an OIP042 document.
type Static struct {
	Identifier string
	Addresses  map[string]string
}

func (s Static) ID() string { return s.Identifier }

func (s Static) PaymentAddresses() (map[string]string, error) {
	if s.Addresses == nil {
		return nil, fmt.Errorf("%w: no addresses declared", common.ErrInvalidAddressMap)
	}
	out := make(map[string]string, len(s.Addresses))
	for k, v := range s.Addresses {
		if k == "" || v == "" {
			return nil, fmt.Errorf("%w: empty coin or address", common.ErrInvalidAddressMap)
		}
		out[strings.ToLower(k)] = v
	}
	return out, nil
}
