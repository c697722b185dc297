// Package patterns manages the keyword patterns used for categorization.
package patterns

import (
	"fmt"
	"text/tabwriter"

	"fjacquet/bankflow/cmd/root"
	"fjacquet/bankflow/internal/store"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/spf13/cobra"
)

var (
	mainCategory string
	subCategory  string
	seedFile     string
	limit        int
)

// Cmd is the parent patterns command
var Cmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage category keyword patterns",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List patterns, most used first",
	RunE:  listFunc,
}

var addCmd = &cobra.Command{
	Use:   "add <pattern>",
	Short: "Add or repoint a keyword pattern",
	Long: `Add a keyword pattern for a category given by display names, for example
patterns add "decathlon" --category "Shopping" --subcategory "Clothing".`,
	Args: cobra.ExactArgs(1),
	RunE: addFunc,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default patterns that do not exist yet",
	RunE:  seedFunc,
}

func init() {
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n patterns (0 = all)")

	addCmd.Flags().StringVarP(&mainCategory, "category", "m", "", "Main category (display name)")
	addCmd.Flags().StringVarP(&subCategory, "subcategory", "s", "", "Subcategory (display name)")
	_ = addCmd.MarkFlagRequired("category")
	_ = addCmd.MarkFlagRequired("subcategory")

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Seed file (default: store.patterns_file)")

	Cmd.AddCommand(listCmd, addCmd, seedCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	patterns, err := c.GetStore().ListPatterns(cmd.Context())
	if err != nil {
		return err
	}
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tCATEGORY\tSUBCATEGORY\tCONFIDENCE\tUSES")
	for _, p := range patterns {
		main, sub, err := taxonomy.ToDisplay(p.MainCategory, p.SubCategory)
		if err != nil {
			main, sub = string(p.MainCategory), string(p.SubCategory)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", p.Pattern, main, sub, p.Confidence, p.UsageCount)
	}
	return w.Flush()
}

func addFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	p, err := c.GetRecategorizer().AddPattern(cmd.Context(), args[0], mainCategory, subCategory)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q -> %s (confidence %.2f, %d uses)\n",
		p.Pattern, p.Category(), p.Confidence, p.UsageCount)
	return nil
}

func seedFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	file := seedFile
	if file == "" {
		file = c.GetConfig().Store.PatternsFile
	}
	n, err := store.SeedFromFile(cmd.Context(), c.GetStore(), file, c.GetLogger())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d patterns created\n", n)
	return nil
}
