package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ptrcarlson/adboard/internal/credit"
)

func newCreditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Manage listing and boosting credits",
		Long:  "Look up balances, grant credits, submit and review credit requests, and browse the ledger history.",
	}

	cmd.AddCommand(
		newCreditsBalanceCmd(),
		newCreditsGrantCmd(),
		newCreditsRequestCmd(),
		newCreditsRequestsCmd(),
		newCreditsApproveCmd(),
		newCreditsRejectCmd(),
		newCreditsHistoryCmd(),
	)

	return cmd
}

// withCredits opens the database and runs fn over the credit repository.
func withCredits(fn func(*credit.Repository) error) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)
	return fn(credit.NewRepository(database))
}

// parseField validates a credit field argument.
func parseField(arg string) (credit.Field, error) {
	if !credit.ValidField(arg) {
		return "", fmt.Errorf("field must be %s or %s", credit.FieldListing, credit.FieldBoosting)
	}
	return credit.Field(arg), nil
}

// parseAmount validates a positive integer amount argument.
func parseAmount(arg string) (int, error) {
	amount, err := strconv.Atoi(arg)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("amount must be a positive integer, got %q", arg)
	}
	return amount, nil
}

func newCreditsBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <owner>",
		Short: "Show an owner's credit balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCredits(func(repo *credit.Repository) error {
				b, err := repo.GetBalance(args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(b)
				}
				printBalance(b)
				return nil
			})
		},
	}
}

func newCreditsGrantCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "grant <owner> <field> <amount>",
		Short: "Grant credits to an owner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := parseField(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return withCredits(func(repo *credit.Repository) error {
				if err := repo.Grant(args[0], field, amount, reason); err != nil {
					return err
				}
				b, err := repo.GetBalance(args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(b)
				}
				fmt.Printf("Granted %d %s to %s.\n", amount, field, args[0])
				printBalance(b)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "manual grant", "reason recorded in the ledger")

	return cmd
}

func newCreditsRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <owner> <field> <amount>",
		Short: "Submit a credit request for review",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := parseField(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return withCredits(func(repo *credit.Repository) error {
				req, err := repo.Request(args[0], field, amount)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(req)
				}
				fmt.Printf("Request %s submitted (%d %s for %s), pending review.\n",
					req.ID, req.Amount, req.Field, req.OwnerID)
				return nil
			})
		},
	}
}

func newCreditsRequestsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List credit requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCredits(func(repo *credit.Repository) error {
				requests, err := repo.ListRequests(credit.RequestStatus(status))
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(requests)
				}
				return printRequestTable(requests)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending|approved|rejected)")

	return cmd
}

func newCreditsApproveCmd() *cobra.Command {
	var reviewer string

	cmd := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a pending credit request",
		Long:  "Approve a pending credit request, granting its amount to the owner.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCredits(func(repo *credit.Repository) error {
				req, err := repo.Approve(args[0], reviewer)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(req)
				}
				fmt.Printf("Request %s approved: %d %s granted to %s.\n",
					req.ID, req.Amount, req.Field, req.OwnerID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reviewer, "by", "", "reviewer id (required)")
	if err := cmd.MarkFlagRequired("by"); err != nil {
		panic(err)
	}

	return cmd
}

func newCreditsRejectCmd() *cobra.Command {
	var reviewer string

	cmd := &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a pending credit request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCredits(func(repo *credit.Repository) error {
				req, err := repo.Reject(args[0], reviewer)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(req)
				}
				fmt.Printf("Request %s rejected.\n", req.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reviewer, "by", "", "reviewer id (required)")
	if err := cmd.MarkFlagRequired("by"); err != nil {
		panic(err)
	}

	return cmd
}

func newCreditsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <owner>",
		Short: "Show an owner's credit ledger history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCredits(func(repo *credit.Repository) error {
				history, err := repo.History(args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(history)
				}
				printHistory(history)
				return nil
			})
		},
	}
}
