package cli

import (
	"github.com/spf13/cobra"

	"github.com/ptrcarlson/adboard/internal/listing"
)

func newListCmd() *cobra.Command {
	var owner, query, status, sortKey string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		Long:  "List listings, filtered by free text and status and ordered by the chosen sort key.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(owner, query, status, sortKey)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "only this owner's listings")
	cmd.Flags().StringVar(&query, "query", "", "free text filter (title, city, state, type, address)")
	cmd.Flags().StringVar(&status, "status", "", "status filter (draft|pending|active|inactive|sold|rented|all)")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key (newest|oldest|price_high|price_low|views)")

	return cmd
}

func runList(owner, query, status, sortKey string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	records, err := b.store.Query(listing.QueryFilter{OwnerID: owner})
	if err != nil {
		return err
	}

	visible := listing.View(records, listing.QueryState{
		Text:   query,
		Status: status,
		Sort:   listing.SortKey(sortKey),
	})

	if isJSON() {
		return printJSON(visible)
	}

	return printListingTable(visible)
}
