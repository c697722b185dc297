// Package recategorize implements bulk reclassification of uncategorized
// transactions.
package recategorize

import (
	"fmt"

	"fjacquet/bankflow/cmd/root"

	"github.com/spf13/cobra"
)

var month string

// Cmd represents the recategorize command
var Cmd = &cobra.Command{
	Use:   "recategorize",
	Short: "Reclassify transactions still in Miscellaneous/Other",
	Long: `Run every transaction still categorized as Miscellaneous/Other through the
classifier again, bypassing the cache, and store the categories that changed.`,
	RunE: recategorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&month, "month", "m", "", "Restrict to one month (YYYY-MM)")
}

func recategorizeFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}

	summary, err := c.GetRecategorizer().Recategorize(cmd.Context(), month)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ch := range summary.Changes {
		switch {
		case ch.Error != "":
			fmt.Fprintf(out, "%s %q: %s\n", ch.ID, ch.Description, ch.Error)
		case ch.Updated:
			fmt.Fprintf(out, "%s %q: %s -> %s\n", ch.ID, ch.Description, ch.From, ch.To)
		}
	}
	fmt.Fprintf(out, "%d processed, %d updated, %d errors\n",
		summary.Processed, summary.Updated, len(summary.Errors))
	return nil
}
