package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFeatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature <id>",
		Short: "Feature a listing",
		Long:  "Mark an active listing as featured. Costs one boosting credit.",
		Args:  cobra.ExactArgs(1),
		RunE:  runFeature,
	}
}

func runFeature(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	owner, err := b.ownerOf(args[0])
	if err != nil {
		return err
	}
	svc, err := b.serviceFor(owner)
	if err != nil {
		return err
	}

	if err := svc.Feature(args[0]); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": args[0], "featured": true})
	}

	fmt.Printf("Listing %s featured. Boosting credits left: %d\n",
		args[0], svc.Balance().BoostingCredits)
	return nil
}
