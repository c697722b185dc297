package logging

// Field names shared by every component so log lines can be filtered
// consistently.
const (
	FieldFile          = "file_path"
	FieldTransactionID = "transaction_id"
	FieldDescription   = "description"
	FieldDirection     = "direction"
	FieldCategory      = "category"
	FieldSubcategory   = "subcategory"
	FieldPattern       = "pattern"
	FieldStrategy      = "strategy"
	FieldRow           = "row"
	FieldAttempt       = "attempt"
	FieldReason        = "reason"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldMonth         = "month"
	FieldDelimiter     = "delimiter"
)
