// Package export writes stored transactions to CSV.
package export

import (
	"fmt"
	"time"

	"fjacquet/bankflow/cmd/root"
	"fjacquet/bankflow/internal/common"
	"fjacquet/bankflow/internal/dateutils"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/store"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/spf13/cobra"
)

var (
	output       string
	month        string
	from         string
	to           string
	mainCategory string
	subCategory  string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored transactions to CSV",
	Long: `Export stored transactions, newest first, to a CSV file or to standard
output. Filter by month, by date range or by category.`,
	RunE: exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV file (default: standard output)")
	Cmd.Flags().StringVarP(&month, "month", "m", "", "Only this month (YYYY-MM)")
	Cmd.Flags().StringVar(&from, "from", "", "First day to include")
	Cmd.Flags().StringVar(&to, "to", "", "Last day to include")
	Cmd.Flags().StringVar(&mainCategory, "category", "", "Only this main category (display name)")
	Cmd.Flags().StringVar(&subCategory, "subcategory", "", "Only this subcategory (display name, requires --category)")
}

// buildFilter turns the flag values into a store filter.
func buildFilter() (store.Filter, error) {
	var f store.Filter
	if month != "" {
		start, end, err := dateutils.ParseMonth(month)
		if err != nil {
			return f, err
		}
		f.From, f.To = start, end
	}
	if from != "" {
		d, _, err := dateutils.ParseTransactionDate(from)
		if err != nil {
			return f, fmt.Errorf("invalid --from: %w", err)
		}
		f.From = d
	}
	if to != "" {
		d, _, err := dateutils.ParseTransactionDate(to)
		if err != nil {
			return f, fmt.Errorf("invalid --to: %w", err)
		}
		f.To = d.Add(24*time.Hour - time.Nanosecond)
	}
	if subCategory != "" && mainCategory == "" {
		return f, fmt.Errorf("--subcategory requires --category")
	}
	if mainCategory != "" && subCategory != "" {
		pair, corrected, err := taxonomy.ToStorage(mainCategory, subCategory)
		if err != nil {
			return f, err
		}
		if corrected {
			return f, fmt.Errorf("%q is not a subcategory of %q", subCategory, mainCategory)
		}
		f.Category = &pair
	}
	return f, nil
}

func exportFunc(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}
	c, err := root.Container()
	if err != nil {
		return err
	}

	txs, err := c.GetStore().List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if mainCategory != "" && subCategory == "" {
		main, err := taxonomy.MainFromDisplay(mainCategory)
		if err != nil {
			return err
		}
		kept := txs[:0]
		for _, tx := range txs {
			if tx.MainCategory == main {
				kept = append(kept, tx)
			}
		}
		txs = kept
	}

	if txs == nil {
		txs = []models.Transaction{}
	}

	delim := []rune(c.GetConfig().CSV.Delimiter)[0]
	if output == "" {
		return common.WriteTransactions(cmd.OutOrStdout(), txs, delim)
	}
	if err := common.WriteTransactionsToCSV(txs, output, delim, c.GetLogger()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d transactions written to %s\n", len(txs), output)
	return nil
}
