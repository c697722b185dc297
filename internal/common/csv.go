// Package common holds CSV plumbing shared by import and export.
package common

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/bankflow/internal/dateutils"
	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

const utf8BOM = "\ufeff"

// RawTable is a CSV file split into its header and data rows. Rows keep
// their original width so the normalizer can reject malformed ones.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// ReadRawCSV reads header and rows from r. Quotes are parsed leniently and
// rows may have any number of fields.
func ReadRawCSV(r io.Reader, delimiter rune, logger logging.Logger) (*RawTable, error) {
	logger = logging.OrDiscard(logger)
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	reader := gocsv.LazyCSVReader(r)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.Comma = delimiter
		cr.FieldsPerRecord = -1
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &RawTable{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row %d: %w", len(table.Rows)+1, err)
		}
		if isBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	logger.Debug("Read raw CSV",
		logging.F(logging.FieldCount, len(table.Rows)),
		logging.F(logging.FieldDelimiter, string(delimiter)))
	return table, nil
}

// ReadRawCSVFile opens path and reads it with ReadRawCSV.
func ReadRawCSVFile(path string, delimiter rune, logger logging.Logger) (*RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.OrDiscard(logger).WithError(err).Warn("Failed to close file")
		}
	}()
	return ReadRawCSV(file, delimiter, logger)
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ExportRow is the CSV shape of an exported transaction.
type ExportRow struct {
	ID           string `csv:"ID"`
	Date         string `csv:"Date"`
	Description  string `csv:"Description"`
	Amount       string `csv:"Amount"`
	Direction    string `csv:"Direction"`
	MainCategory string `csv:"MainCategory"`
	SubCategory  string `csv:"SubCategory"`
	Account      string `csv:"Account"`
	Counterparty string `csv:"Counterparty"`
	Notes        string `csv:"Notes"`
}

// ToExportRows flattens transactions for CSV output.
func ToExportRows(transactions []models.Transaction) []ExportRow {
	rows := make([]ExportRow, len(transactions))
	for i, tx := range transactions {
		rows[i] = ExportRow{
			ID:           tx.ID,
			Date:         dateutils.ToISODate(tx.Date),
			Description:  tx.Description,
			Amount:       models.FormatAmount(tx.Amount),
			Direction:    tx.Direction.String(),
			MainCategory: tx.MainCategory.String(),
			SubCategory:  tx.SubCategory.String(),
			Account:      tx.Account,
			Counterparty: tx.Counterparty,
			Notes:        tx.Notes,
		}
	}
	return rows
}

// WriteTransactions writes transactions as CSV to w.
func WriteTransactions(w io.Writer, transactions []models.Transaction, delimiter rune) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(ToExportRows(transactions), gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteTransactionsToCSV writes transactions to csvFile, creating parent
// directories as needed.
func WriteTransactionsToCSV(transactions []models.Transaction, csvFile string, delimiter rune, logger logging.Logger) error {
	logger = logging.OrDiscard(logger)

	dir := filepath.Dir(csvFile)
	if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteTransactions(file, transactions, delimiter); err != nil {
		return err
	}

	logger.Info("Wrote transactions to CSV file",
		logging.F(logging.FieldFile, csvFile),
		logging.F(logging.FieldCount, len(transactions)))
	return nil
}
