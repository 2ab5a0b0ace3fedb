// Package monitor reads live wallet balances and raises threshold alerts.
package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Apillon/apillon-services-sub004/internal/alert"
	"github.com/Apillon/apillon-services-sub004/internal/chain"
	"github.com/Apillon/apillon-services-sub004/internal/domain/model"
	"github.com/Apillon/apillon-services-sub004/internal/metrics"
	"github.com/Apillon/apillon-services-sub004/internal/store"
)

type Monitor struct {
	wallets store.WalletRepository
	logger  *slog.Logger
}

func New(wallets store.WalletRepository, logger *slog.Logger) *Monitor {
	return &Monitor{wallets: wallets, logger: logger.With("component", "balance_monitor")}
}

// Check reads the balance of wallet through reader, persists it and returns
// the alerts it warrants. Delivery is left to the caller.
func (m *Monitor) Check(ctx context.Context, wallet *model.Wallet, reader chain.BalanceReader) ([]alert.Alert, error) {
	chainLabel, chainType := string(wallet.Chain), string(wallet.ChainType)

	balance, err := reader.Balance(ctx, wallet.Address)
	if err != nil {
		metrics.BalanceChecksTotal.WithLabelValues(chainLabel, chainType, "error").Inc()
		return nil, fmt.Errorf("read balance: %w", err)
	}
	if err := m.wallets.UpdateCurrentBalance(ctx, wallet.ID, balance); err != nil {
		metrics.BalanceChecksTotal.WithLabelValues(chainLabel, chainType, "error").Inc()
		return nil, fmt.Errorf("store balance: %w", err)
	}
	wallet.CurrentBalance = model.NullAmount{Amount: balance, Valid: true}

	if !wallet.MinBalance.Valid {
		metrics.BalanceChecksTotal.WithLabelValues(chainLabel, chainType, "no_threshold").Inc()
		return []alert.Alert{{
			Severity:  alert.SeverityWarn,
			Chain:     wallet.Chain,
			ChainType: wallet.ChainType,
			Wallet:    wallet.Address,
			Title:     "minimum balance not set",
			Message:   fmt.Sprintf("%s has no minimum balance configured", wallet.Label()),
			Fields:    map[string]string{"currentBalance": balance.String()},
		}}, nil
	}

	minBalance := wallet.MinBalance.Amount
	if balance.Cmp(minBalance) <= 0 {
		metrics.BalanceChecksTotal.WithLabelValues(chainLabel, chainType, "low").Inc()
		m.logger.Warn("wallet balance at or below minimum",
			"wallet", wallet.Label(),
			"current_balance", balance.String(),
			"min_balance", minBalance.String(),
		)
		return []alert.Alert{{
			Severity:  alert.SeverityAlert,
			Chain:     wallet.Chain,
			ChainType: wallet.ChainType,
			Wallet:    wallet.Address,
			Title:     "low wallet balance",
			Message: fmt.Sprintf("%s balance %s %s is at or below minimum %s",
				wallet.Label(), balance.Display(wallet.Decimals).String(), wallet.Token, minBalance.Display(wallet.Decimals).String()),
			Fields: map[string]string{
				"currentBalance": balance.String(),
				"minBalance":     minBalance.String(),
			},
			DedupKey: LowBalanceKey(wallet),
		}}, nil
	}

	metrics.BalanceChecksTotal.WithLabelValues(chainLabel, chainType, "ok").Inc()
	return nil, nil
}

// LowBalanceKey identifies the low-balance condition of one wallet.
func LowBalanceKey(wallet *model.Wallet) string {
	return "low-balance:" + wallet.Key().String() + ":" + wallet.NormalizedAddress()
}
