// Package importcsv implements the import command.
package importcsv

import (
	"errors"
	"fmt"
	"io"
	"os"

	"fjacquet/bankflow/cmd/root"
	"fjacquet/bankflow/internal/fileutils"
	"fjacquet/bankflow/internal/importer"
	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/parsererror"

	"github.com/spf13/cobra"
)

var showErrors bool

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Import transactions from bank CSV files",
	Long: `Import transactions from one or more bank-exported CSV files. Each file is
one batch: rows are normalized, categorized, checked for duplicates and stored.
A directory argument imports every .csv file below it.
Use "-" to read from standard input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: importFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&showErrors, "errors", "e", false, "Print every row error")
}

func importFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	logger := c.GetLogger()
	out := cmd.OutOrStdout()

	paths, err := fileutils.ExpandInputs(args, ".csv")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files found")
	}

	var failed int
	for _, path := range paths {
		res, err := importFile(cmd, c.GetImporter(), path)
		var batchErr *parsererror.BatchError
		switch {
		case errors.As(err, &batchErr):
			failed++
			fmt.Fprintf(out, "%s: %v\n", path, err)
		case err != nil:
			failed++
			logger.WithError(err).Error("Import failed", logging.F(logging.FieldFile, path))
			fmt.Fprintf(out, "%s: %v\n", path, err)
			continue
		}
		printResult(out, path, res)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func importFile(cmd *cobra.Command, imp *importer.Orchestrator, path string) (*importer.Result, error) {
	if path == fileutils.StdinPath {
		return imp.ImportCSV(cmd.Context(), cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return imp.ImportCSV(cmd.Context(), f)
}

func printResult(out io.Writer, path string, res *importer.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(out, "%s: %d rows, %d imported, %d duplicates, %d errors\n",
		path, res.Total, res.AcceptedCount(), res.Duplicates, res.ErrorCount())
	if res.Stopped {
		fmt.Fprintf(out, "%s: stopped after too many errors\n", path)
	}
	if showErrors {
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}
}
