package account

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/coinkeeper/internal/artifact"
	"github.com/dmitrijs2005/coinkeeper/internal/client/models"
	"github.com/dmitrijs2005/coinkeeper/internal/common"
	"github.com/dmitrijs2005/coinkeeper/internal/payment"
	"github.com/shopspring/decimal"
)

// PayForArtifactFile pays the view or buy price of a file and records the
// payment in the account history.
func (a *Account) PayForArtifactFile(ctx context.Context, art artifact.Artifact, f artifact.File, typ payment.Type, fiat string) (payment.Receipt, error) {
	if typ != payment.View && typ != payment.Buy {
		return payment.Receipt{}, fmt.Errorf("%w: %q", common.ErrInvalidPurchaseType, typ)
	}
	return a.pay(ctx, art, payment.Intent{Type: typ, File: f, Fiat: fiat})
}

// SendArtifactTip tips the publisher amount of fiat.
func (a *Account) SendArtifactTip(ctx context.Context, art artifact.Artifact, amount decimal.Decimal, fiat string) (payment.Receipt, error) {
	return a.pay(ctx, art, payment.Intent{Type: payment.Tip, Amount: amount, Fiat: fiat})
}

func (a *Account) pay(ctx context.Context, art artifact.Artifact, in payment.Intent) (payment.Receipt, error) {
	w, err := a.Wallet()
	if err != nil {
		return payment.Receipt{}, err
	}
	if pref, _ := a.GetSetting(SettingPreferredCoin); pref != nil {
		if s, ok := pref.(string); ok {
			in.PreferredCoin = s
		}
	}

	engine := payment.New(w,
		payment.WithLogger(a.root),
		payment.WithStageTimeout(a.stageTimeout),
		payment.WithLock(&a.payMu),
	)
	receipt, err := engine.Pay(ctx, art, in)
	if err != nil {
		return payment.Receipt{}, err
	}

	rec := models.NewPaymentRecord(models.PaymentRecord{
		TxID:       receipt.TxID,
		Coin:       receipt.Coin,
		Ticker:     receipt.Ticker,
		Address:    receipt.Address,
		Amount:     receipt.Amount,
		FiatAmount: receipt.FiatAmount,
		Fiat:       receipt.Fiat,
		Type:       string(in.Type),
		ArtifactID: art.ID(),
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Active {
		return receipt, fmt.Errorf("payment %s sent but not recorded: %w", receipt.TxID, common.ErrLoggedOut)
	}
	a.data.PaymentHistory[rec.ID] = rec
	if _, err := a.storeLocked(ctx); err != nil {
		return receipt, fmt.Errorf("payment %s sent but not recorded: %w", receipt.TxID, err)
	}
	return receipt, nil
}

// SettingPreferredCoin names the setting that picks a coin for payments.
const SettingPreferredCoin = "preferred_coin"
