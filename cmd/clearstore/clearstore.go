// Package clearstore implements the clear command.
package clearstore

import (
	"fmt"

	"fjacquet/bankflow/cmd/root"

	"github.com/spf13/cobra"
)

var confirm bool

// Cmd represents the clear command
var Cmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored transaction and pattern",
	Long: `Delete every stored transaction and category pattern. Run "patterns seed"
afterwards to restore the default keyword patterns.`,
	RunE: clearFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm the deletion")
}

func clearFunc(cmd *cobra.Command, args []string) error {
	if !confirm {
		return fmt.Errorf("refusing to clear the store without --yes")
	}

	c, err := root.Container()
	if err != nil {
		return err
	}

	if err := c.GetStore().Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	c.GetLogger().Info("Store cleared")
	fmt.Fprintln(cmd.OutOrStdout(), "All transactions and patterns deleted")
	return nil
}
