package payment

import (
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/common"
)

// Stage names a step of the Pay pipeline.
type Stage string

const (
	StageAmount   Stage = "amount"
	StageCoins    Stage = "supported_coins"
	StageRates    Stage = "exchange_rates"
	StageCosts    Stage = "conversion_costs"
	StageBalances Stage = "wallet_balances"
	StagePick     Stage = "coin_picker"
	StageAddress  Stage = "payment_address"
	StageSend     Stage = "send_payment"
)

// StageError reports which Pay stage failed. It unwraps to the cause so
// callers can branch with errors.Is on the sentinel errors of common.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pay: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PickError is the result of CoinPicker when no coin can cover the payment.
type PickError struct {
	Reason string
}

func (e *PickError) Error() string {
	return "no usable coin: " + e.Reason
}

func (e *PickError) Unwrap() error { return common.ErrInsufficientFunds }
