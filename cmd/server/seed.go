package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

type demoAccount struct {
	customerID  string
	accountType string
	balance     string
}

var demoAccounts = []demoAccount{
	{"1001", domain.AccountTypeSavings, "5000.00"},
	{"1001", domain.AccountTypeChecking, "2500.00"},
	{"1002", domain.AccountTypeSavings, "10000.00"},
	{"1002", domain.AccountTypeChecking, "3000.00"},
}

// demoTransfers index into demoAccounts.
var demoTransfers = []struct {
	from, to int
	amount   string
}{
	{0, 1, "500.00"},
	{2, 3, "1000.00"},
	{1, 2, "250.00"},
}

// seedDemoData opens two customers' accounts and moves some money between
// them. It does nothing when customer 1001 already has accounts.
func seedDemoData(ctx context.Context, a *app, l zerolog.Logger) error {
	existing, err := a.queries.ListAccounts(ctx, usecase.ListAccountsInput{CustomerID: demoAccounts[0].customerID, Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		l.Info().Msg("demo data already present")
		return nil
	}

	ids := make([]string, len(demoAccounts))
	for i, d := range demoAccounts {
		account, err := a.accounts.OpenAccount(ctx, usecase.OpenAccountInput{
			CustomerID:     d.customerID,
			AccountType:    d.accountType,
			InitialBalance: decimal.RequireFromString(d.balance),
		})
		if err != nil {
			return err
		}
		ids[i] = account.ID
	}

	for _, t := range demoTransfers {
		if _, err := a.transfers.Transfer(ctx, usecase.TransferInput{
			FromAccountID: ids[t.from],
			ToAccountID:   ids[t.to],
			Amount:        decimal.RequireFromString(t.amount),
		}); err != nil {
			return err
		}
	}

	l.Info().Int("accounts", len(ids)).Int("transfers", len(demoTransfers)).Msg("demo data seeded")
	return nil
}
