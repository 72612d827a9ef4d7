package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ptrcarlson/adboard/internal/listing"
)

func newBatchCmd() *cobra.Command {
	var owner string
	var yes bool

	cmd := &cobra.Command{
		Use:   "batch <activate|deactivate|feature|delete> <id>...",
		Short: "Run a bulk action over selected listings",
		Long:  "Apply one action to every selected listing. Featuring costs one boosting credit per listing and is refused outright if the balance cannot cover the whole selection. Deletion requires --yes.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(owner, args[0], args[1:], yes)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm destructive actions")

	if err := cmd.MarkFlagRequired("owner"); err != nil {
		panic(err)
	}

	return cmd
}

func runBatch(owner, action string, ids []string, yes bool) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.close()

	svc, err := b.serviceFor(owner)
	if err != nil {
		return err
	}

	switch action {
	case "activate":
		err = svc.BatchSetStatus(ids, listing.StatusActive)
	case "deactivate":
		err = svc.BatchSetStatus(ids, listing.StatusInactive)
	case "feature":
		err = svc.BatchFeature(ids)
	case "delete":
		if !yes {
			return fmt.Errorf("deleting %d listings requires --yes", len(ids))
		}
		err = svc.BatchDelete(ids)
	default:
		return fmt.Errorf("unknown batch action: %q", action)
	}
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"action": action, "count": len(ids)})
	}

	fmt.Printf("Applied %s to %d listings.\n", action, len(ids))
	return nil
}
