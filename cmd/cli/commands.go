package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/infrastructure/config"
	"github.com/iho/finledger/internal/infrastructure/logger"
	"github.com/iho/finledger/internal/infrastructure/postgres"
)

const idempotencyKeyHeader = "Idempotency-Key"

func accountsCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var customerID, status string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List customer accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if customerID != "" {
				q.Set("customerId", customerID)
			}
			if status != "" {
				q.Set("status", status)
			}
			q.Set("limit", strconv.Itoa(limit))

			var resp dto.ListAccountsResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/accounts", q, nil, nil, &resp); err != nil {
				return err
			}
			printAccounts(cmd.OutOrStdout(), resp.Accounts)
			return nil
		},
	}
	listCmd.Flags().StringVar(&customerID, "customer", "", "Filter by customer ID")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status (ACTIVE, FROZEN, CLOSED)")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of accounts")

	getCmd := &cobra.Command{
		Use:   "get ACCOUNT_ID",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	var open struct {
		customerID, accountType, balance, reference string
	}
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"customerId":  open.customerID,
				"accountType": open.accountType,
			}
			if open.balance != "" {
				body["initialBalance"] = open.balance
			}
			if open.reference != "" {
				body["referenceNumber"] = open.reference
			}

			var resp dto.AccountResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/accounts", nil, nil, body, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	openCmd.Flags().StringVar(&open.customerID, "customer", "", "Customer ID")
	openCmd.Flags().StringVar(&open.accountType, "type", "CHECKING", "Account type (SAVINGS, CHECKING)")
	openCmd.Flags().StringVar(&open.balance, "balance", "", "Initial balance")
	openCmd.Flags().StringVar(&open.reference, "ref", "", "Reference number for the opening deposit")
	_ = openCmd.MarkFlagRequired("customer")

	statusCmd := &cobra.Command{
		Use:   "status ACCOUNT_ID STATUS",
		Short: "Freeze, unfreeze or close an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountResponse
			body := map[string]string{"status": args[1]}
			if err := c.do(cmd.Context(), http.MethodPut, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, nil, body, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", resp.ID, resp.Status)
			return nil
		},
	}

	cmd.AddCommand(listCmd, getCmd, openCmd, statusCmd)
	return cmd
}

func transferCmd(c *apiClient) *cobra.Command {
	var from, to, amount, reference string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"fromAccountId": from,
				"toAccountId":   to,
				"amount":        amount,
			}
			headers := map[string]string{}
			if reference != "" {
				headers[idempotencyKeyHeader] = reference
			}

			var resp dto.TransactionResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/transfers", nil, headers, body, &resp); err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), []*dto.TransactionResponse{&resp})
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source account ID")
	cmd.Flags().StringVar(&to, "to", "", "Destination account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVar(&reference, "ref", "", "Reference number; retrying with the same one is safe")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func reverseCmd(c *apiClient) *cobra.Command {
	var reference string

	cmd := &cobra.Command{
		Use:   "reverse TRANSACTION_ID",
		Short: "Reverse a completed transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := map[string]string{}
			if reference != "" {
				headers[idempotencyKeyHeader] = reference
			}

			var resp dto.TransactionResponse
			path := "/api/v1/transfers/" + url.PathEscape(args[0]) + "/reverse"
			if err := c.do(cmd.Context(), http.MethodPost, path, nil, headers, nil, &resp); err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), []*dto.TransactionResponse{&resp})
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "ref", "", "Reference number of the reversal")

	return cmd
}

func historyCmd(c *apiClient) *cobra.Command {
	var includeFailed bool
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history ACCOUNT_ID",
		Short: "Show an account's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("includeFailed", strconv.FormatBool(includeFailed))
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp []*dto.TransactionResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/transfers/account/"+url.PathEscape(args[0]), q, nil, nil, &resp); err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeFailed, "include-failed", false, "Include FAILED transactions")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of transactions")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of transactions to skip")

	return cmd
}

func resolveCmd(c *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve REFERENCE",
		Short: "Find the transaction recorded under a reference number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.TransactionResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/transfers/reference/"+url.PathEscape(args[0]), nil, nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func ledgerCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ConsistencyResponse
			err := c.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, nil, nil, &resp)

			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
				return errors.New("consistency check FAILED: balances or entries do not sum to zero")
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			return nil
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare every stored balance with its ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReconciliationReportResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/reconciliation", nil, nil, nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accounts: %d, reconciled: %d, ledger consistent: %v\n",
				resp.TotalAccounts, resp.ReconciledAccounts, resp.LedgerConsistent)
			if len(resp.Discrepancies) == 0 {
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACCOUNT\tRECORDED\tCALCULATED\tDIFFERENCE")
			for _, d := range resp.Discrepancies {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.AccountID, d.RecordedBalance, d.CalculatedBalance, d.Difference)
			}
			return w.Flush()
		},
	}

	repairCmd := &cobra.Command{
		Use:   "repair ACCOUNT_ID",
		Short: "Reset an account's balance to the sum of its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ReconciliationResultResponse
			path := "/api/v1/ledger/reconciliation/" + url.PathEscape(args[0]) + "/repair"
			if err := c.do(cmd.Context(), http.MethodPost, path, nil, nil, nil, &resp); err != nil {
				return err
			}
			if resp.Repaired {
				fmt.Fprintf(cmd.OutOrStdout(), "%s repaired: %s -> %s\n", resp.AccountID, resp.RecordedBalance, resp.CalculatedBalance)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already matches its ledger\n", resp.AccountID)
			}
			return nil
		},
	}

	cmd.AddCommand(consistencyCmd, reconcileCmd, repairCmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	run := func(down bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				databaseURL = cfg.DatabaseURL
			}

			l := logger.New(logger.Config{Level: "info", Format: "console", Output: cmd.ErrOrStderr()})
			if down {
				return postgres.RunMigrationsDown(databaseURL, migrationsPath, l)
			}
			return postgres.RunMigrations(databaseURL, migrationsPath, l)
		}
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "Migrations directory (defaults to the embedded set)")

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(false)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(true)},
	)
	return cmd
}

func printAccounts(out io.Writer, accounts []*dto.AccountResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tTYPE\tSTATUS\tBALANCE")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.CustomerID, a.AccountType, a.Status, a.Balance)
	}
	_ = w.Flush()
}

func printTransactions(out io.Writer, txns []*dto.TransactionResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tTYPE\tSTATUS\tFROM\tTO\tAMOUNT")
	for _, t := range txns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.TransactionID, truncate(t.ReferenceNumber, 24), t.Type, t.Status, t.FromAccountID, t.ToAccountID, t.Amount)
	}
	_ = w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
