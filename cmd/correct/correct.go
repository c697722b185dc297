// Package correct implements manual category corrections.
package correct

import (
	"fmt"

	"fjacquet/bankflow/cmd/root"

	"github.com/spf13/cobra"
)

var (
	mainCategory string
	subCategory  string
)

// Cmd represents the correct command
var Cmd = &cobra.Command{
	Use:   "correct <transaction-id>",
	Short: "Set the category of a stored transaction",
	Long: `Set the category of a stored transaction using display names such as
"Food & Groceries" and "Groceries". Patterns found in the description are
adjusted and the description is learned for the new category.`,
	Args: cobra.ExactArgs(1),
	RunE: correctFunc,
}

func init() {
	Cmd.Flags().StringVarP(&mainCategory, "category", "m", "", "Main category (display name)")
	Cmd.Flags().StringVarP(&subCategory, "subcategory", "s", "", "Subcategory (display name)")
	_ = Cmd.MarkFlagRequired("category")
	_ = Cmd.MarkFlagRequired("subcategory")
}

func correctFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}

	tx, corrected, err := c.GetRecategorizer().Correct(cmd.Context(), args[0], mainCategory, subCategory)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if corrected {
		fmt.Fprintf(out, "%q is not a subcategory of %q, using %s\n", subCategory, mainCategory, tx.Category())
	}
	fmt.Fprintf(out, "%s %q: %s\n", tx.ID, tx.Description, tx.Category())
	return nil
}
