package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ptrcarlson/adboard/internal/listing"
)

func newAddCmd() *cobra.Command {
	var owner string
	var draft listing.Draft

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a new listing",
		Long:  "Submit a new listing for review. Costs one listing credit; the listing enters the pipeline as pending.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(owner, draft)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&draft.Title, "title", "", "listing title (required)")
	cmd.Flags().StringVar(&draft.Description, "description", "", "listing description")
	cmd.Flags().StringVar(&draft.PropertyType, "type", "", "property type (house|apartment|condo|villa|studio|shophouse)")
	cmd.Flags().StringVar(&draft.ListingType, "listing-type", "sale", "sale or rent")
	cmd.Flags().Int64Var(&draft.Price, "price", 0, "price in dollars")
	cmd.Flags().IntVar(&draft.Bedrooms, "bedrooms", 0, "number of bedrooms")
	cmd.Flags().IntVar(&draft.Bathrooms, "bathrooms", 0, "number of bathrooms")
	cmd.Flags().Float64Var(&draft.AreaSqft, "area", 0, "area in square feet")
	cmd.Flags().StringVar(&draft.Address, "address", "", "street address")
	cmd.Flags().StringVar(&draft.City, "city", "", "city")
	cmd.Flags().StringVar(&draft.State, "state", "", "state")
	cmd.Flags().StringVar(&draft.PostalCode, "postal-code", "", "postal code")
	cmd.Flags().StringSliceVar(&draft.Amenities, "amenities", nil, "amenities (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&draft.ImageURLs, "images", nil, "image URLs (repeatable or comma-separated)")

	if err := cmd.MarkFlagRequired("owner"); err != nil {
		panic(err)
	}

	return cmd
}

func runAdd(owner string, draft listing.Draft) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	svc, err := b.serviceFor(owner)
	if err != nil {
		return err
	}

	saved, err := svc.Create(draft)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(saved)
	}

	fmt.Println("Listing submitted for review.")
	printListingSummary(saved)
	fmt.Printf("\nListing credits left: %d\n", svc.Balance().ListingCredits)
	return nil
}
