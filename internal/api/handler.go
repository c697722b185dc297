// Package api exposes the import and classification pipeline over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"fjacquet/bankflow/internal/dateutils"
	"fjacquet/bankflow/internal/importer"
	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/parsererror"
	"fjacquet/bankflow/internal/recategorizer"
	"fjacquet/bankflow/internal/store"
	"fjacquet/bankflow/internal/taxonomy"

	"github.com/gofiber/fiber/v2"
)

// Importer runs CSV batches through the pipeline.
type Importer interface {
	ImportCSV(ctx context.Context, r io.Reader) (*importer.Result, error)
	ImportBatch(ctx context.Context, header []string, rows [][]string) (*importer.Result, error)
}

// Recategorizer applies corrections and bulk reclassification.
type Recategorizer interface {
	Recategorize(ctx context.Context, month string) (*recategorizer.Summary, error)
	Correct(ctx context.Context, id, displayMain, displaySub string) (models.Transaction, bool, error)
	AddPattern(ctx context.Context, pattern, displayMain, displaySub string) (models.CategoryPattern, error)
}

// Reader lists stored records.
type Reader interface {
	List(ctx context.Context, filter store.Filter) ([]models.Transaction, error)
	Get(ctx context.Context, id string) (models.Transaction, error)
	ListPatterns(ctx context.Context) ([]models.CategoryPattern, error)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ImportRequest is the JSON form of an import: a header row and data rows.
type ImportRequest struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ImportResponse summarizes an import.
type ImportResponse struct {
	Success    bool                 `json:"success"`
	Total      int                  `json:"total"`
	Processed  int                  `json:"processed"`
	Accepted   int                  `json:"accepted"`
	Duplicates int                  `json:"duplicates"`
	Errors     []string             `json:"errors"`
	Stopped    bool                 `json:"stopped,omitempty"`
	Records    []TransactionPayload `json:"transactions"`
	// All is every stored transaction after the import, newest first.
	All []TransactionPayload `json:"allTransactions"`
}

// CategoryRequest names a category in display spelling.
type CategoryRequest struct {
	Main string `json:"main"`
	Sub  string `json:"sub"`
}

// PatternRequest adds a keyword pattern.
type PatternRequest struct {
	Pattern string `json:"pattern"`
	Main    string `json:"main"`
	Sub     string `json:"sub"`
}

// RecategorizeRequest optionally restricts recategorisation to a month.
type RecategorizeRequest struct {
	Month string `json:"month"`
}

// TransactionPayload is a transaction with display-spelled categories.
type TransactionPayload struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	Direction    string `json:"direction"`
	MainCategory string `json:"mainCategory"`
	SubCategory  string `json:"subCategory"`
	Account      string `json:"account"`
	Counterparty string `json:"counterparty,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// PatternPayload is a pattern with display-spelled categories.
type PatternPayload struct {
	Pattern      string  `json:"pattern"`
	MainCategory string  `json:"mainCategory"`
	SubCategory  string  `json:"subCategory"`
	Confidence   float64 `json:"confidence"`
	UsageCount   int     `json:"usageCount"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	importer      Importer
	recategorizer Recategorizer
	reader        Reader
	logger        logging.Logger
}

// NewHandler creates a Handler.
func NewHandler(imp Importer, recat Recategorizer, reader Reader, logger logging.Logger) *Handler {
	return &Handler{
		importer:      imp,
		recategorizer: recat,
		reader:        reader,
		logger:        logging.OrDiscard(logger),
	}
}

// NewApp builds a fiber app with every route registered.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bankflow",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", HandleHealth)
	api.Get("/categories", HandleCategories)

	api.Post("/transactions/import", h.HandleImport)
	api.Get("/transactions", h.HandleListTransactions)
	api.Post("/transactions/recategorize", h.HandleRecategorize)
	api.Put("/transactions/:id/category", h.HandleCorrect)

	api.Get("/patterns", h.HandleListPatterns)
	api.Post("/patterns", h.HandleAddPattern)
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleCategories returns the taxonomy in display spelling.
func HandleCategories(c *fiber.Ctx) error {
	return c.JSON(taxonomy.Tree())
}

// HandleImport accepts a multipart "file" upload, a raw text/csv body or
// an ImportRequest JSON document.
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		res *importer.Result
		err error
	)
	switch {
	case strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm):
		fh, ferr := c.FormFile("file")
		if ferr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
		}
		f, ferr := fh.Open()
		if ferr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
		}
		defer f.Close()
		h.logger.Info("Importing uploaded file", logging.F(logging.FieldFile, fh.Filename))
		res, err = h.importer.ImportCSV(ctx, f)
	case strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON):
		var req ImportRequest
		if perr := c.BodyParser(&req); perr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body.")
		}
		res, err = h.importer.ImportBatch(ctx, req.Header, req.Rows)
	default:
		res, err = h.importer.ImportCSV(ctx, bytes.NewReader(c.Body()))
	}

	if err != nil {
		var batchErr *parsererror.BatchError
		if errors.As(err, &batchErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
				Error:   err.Error(),
				Details: batchErr.Errors,
			})
		}
		return err
	}

	all, err := h.reader.List(ctx, store.Filter{})
	if err != nil {
		return err
	}

	resp := ImportResponse{
		Success:    true,
		Total:      res.Total,
		Processed:  res.Processed,
		Accepted:   res.AcceptedCount(),
		Duplicates: res.Duplicates,
		Errors:     res.Errors,
		Stopped:    res.Stopped,
		Records:    toTransactionPayloads(res.Accepted),
		All:        toTransactionPayloads(all),
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleListTransactions lists transactions. Query parameters: month
// (YYYY-MM), from/to (any supported date), limit.
func (h *Handler) HandleListTransactions(c *fiber.Ctx) error {
	var filter store.Filter

	if month := c.Query("month"); month != "" {
		start, end, err := dateutils.ParseMonth(month)
		if err != nil {
			return &parsererror.ValidationError{Field: "month", Reason: err.Error()}
		}
		filter.From, filter.To = start, end
	}
	if from := c.Query("from"); from != "" {
		d, _, err := dateutils.ParseTransactionDate(from)
		if err != nil {
			return &parsererror.ValidationError{Field: "from", Reason: err.Error()}
		}
		filter.From = d
	}
	if to := c.Query("to"); to != "" {
		d, _, err := dateutils.ParseTransactionDate(to)
		if err != nil {
			return &parsererror.ValidationError{Field: "to", Reason: err.Error()}
		}
		filter.To = d.Add(24*time.Hour - time.Nanosecond)
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return &parsererror.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		filter.Limit = n
	}

	txs, err := h.reader.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(toTransactionPayloads(txs))
}

// HandleCorrect sets a transaction's category from display names.
func (h *Handler) HandleCorrect(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body.")
	}

	tx, corrected, err := h.recategorizer.Correct(c.UserContext(), c.Params("id"), req.Main, req.Sub)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"corrected":   corrected,
		"transaction": toTransactionPayload(tx),
	})
}

// HandleRecategorize reclassifies transactions still in the fallback
// category.
func (h *Handler) HandleRecategorize(c *fiber.Ctx) error {
	var req RecategorizeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body.")
		}
	}
	if req.Month == "" {
		req.Month = c.Query("month")
	}

	summary, err := h.recategorizer.Recategorize(c.UserContext(), req.Month)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// HandleListPatterns returns stored patterns, most used first.
func (h *Handler) HandleListPatterns(c *fiber.Ctx) error {
	patterns, err := h.reader.ListPatterns(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]PatternPayload, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, toPatternPayload(p))
	}
	return c.JSON(out)
}

// HandleAddPattern stores a user pattern.
func (h *Handler) HandleAddPattern(c *fiber.Ctx) error {
	var req PatternRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body.")
	}
	p, err := h.recategorizer.AddPattern(c.UserContext(), req.Pattern, req.Main, req.Sub)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toPatternPayload(p))
}

// handleError maps pipeline errors to status codes.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var (
		fe         *fiber.Error
		validation *parsererror.ValidationError
		missing    *parsererror.MissingColumnsError
		parseErr   *parsererror.ParseError
	)
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.As(err, &validation), errors.As(err, &missing), errors.As(err, &parseErr):
		status = fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		status = fiber.StatusConflict
	}

	msg := err.Error()
	if fe != nil {
		msg = fe.Message
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.WithError(err).Error("Request failed",
			logging.F(logging.FieldOperation, c.Method()+" "+c.Path()))
	}
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

func toTransactionPayloads(txs []models.Transaction) []TransactionPayload {
	out := make([]TransactionPayload, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionPayload(tx))
	}
	return out
}

func toTransactionPayload(tx models.Transaction) TransactionPayload {
	main, sub := displayNames(tx.Category())
	return TransactionPayload{
		ID:           tx.ID,
		Date:         dateutils.ToISODate(tx.Date),
		Description:  tx.Description,
		Amount:       models.FormatAmount(tx.Amount),
		Direction:    tx.Direction.String(),
		MainCategory: main,
		SubCategory:  sub,
		Account:      tx.Account,
		Counterparty: tx.Counterparty,
		Notes:        tx.Notes,
	}
}

func toPatternPayload(p models.CategoryPattern) PatternPayload {
	main, sub := displayNames(p.Category())
	return PatternPayload{
		Pattern:      p.Pattern,
		MainCategory: main,
		SubCategory:  sub,
		Confidence:   p.Confidence,
		UsageCount:   p.UsageCount,
	}
}

func displayNames(p taxonomy.Pair) (string, string) {
	main, sub, err := taxonomy.ToDisplay(p.Main, p.Sub)
	if err != nil {
		return string(p.Main), string(p.Sub)
	}
	return main, sub
}
