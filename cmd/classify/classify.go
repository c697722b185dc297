// Package classify handles one-off categorization of a description
package classify

import (
	"fmt"

	"fjacquet/bankflow/cmd/root"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/spf13/cobra"
)

var (
	description string
	direction   string
)

// Cmd represents the classify command
var Cmd = &cobra.Command{
	Use:   "classify",
	Short: "Categorize a single transaction description",
	Long: `Categorize a transaction description with the keyword rules and, when
enabled, the language model. Nothing is stored.`,
	RunE: classifyFunc,
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Transaction description to categorize")
	Cmd.Flags().StringVarP(&direction, "direction", "t", string(models.Debit), "Transaction direction (debit or credit)")
	_ = Cmd.MarkFlagRequired("description")
}

func classifyFunc(cmd *cobra.Command, args []string) error {
	dir, err := models.ParseDirection(direction)
	if err != nil {
		return err
	}

	c, err := root.Container()
	if err != nil {
		return err
	}

	pair := c.GetClassifier().Classify(cmd.Context(), description, dir)
	main, sub, err := taxonomy.ToDisplay(pair.Main, pair.Sub)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", main, sub)
	return nil
}
