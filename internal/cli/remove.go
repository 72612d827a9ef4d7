package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a listing",
		Long:  "Remove a listing. Its enquiries and view events go with it.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	if err := svc.Delete(args[0]); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{
			"id":      args[0],
			"removed": true,
		})
	}

	fmt.Printf("Listing %s removed.\n", args[0])
	return nil
}
