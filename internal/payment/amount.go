package payment

import (
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/artifact"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/shopspring/decimal"
)

// Type is the purchase type of an Intent.
type Type string

const (
	View Type = "view"
	Buy  Type = "buy"
	Tip  Type = "tip"
)

// ParseType converts user input into a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case View, Buy, Tip:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidPurchaseType, s)
	}
}

// Intent describes what the user wants to pay for. File is required for
// View and Buy, Amount (in Fiat) for Tip.
type Intent struct {
	Type          Type
	File          artifact.File
	Amount        decimal.Decimal
	Fiat          string
	PreferredCoin string
}

// GetPaymentAmount returns the fiat amount the intent costs.
func GetPaymentAmount(in Intent) (decimal.Decimal, error) {
	switch in.Type {
	case View, Buy:
		if in.File == nil {
			return decimal.Zero, fmt.Errorf("%w: %s requires a file", common.ErrInvalidArtifactFile, in.Type)
		}
		cost := in.File.SuggestedBuyCost()
		if in.Type == View {
			cost = in.File.SuggestedPlayCost()
		}
		if !cost.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: suggested %s cost of %s", common.ErrInvalidArtifactFile, in.Type, cost)
		}
		return cost, nil
	case Tip:
		if !in.Amount.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: tip of %s", common.ErrInvalidAmount, in.Amount)
		}
		return in.Amount, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", common.ErrInvalidPurchaseType, in.Type)
	}
}
