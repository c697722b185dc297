package categorizer

import (
	"fmt"
	"strings"

	"fjacquet/bankflow/internal/taxonomy"
)

// ResponseError reports a model answer that is not a valid
// "Category -> Subcategory" pair. It is never retried.
type ResponseError struct {
	Response string
	Reason   string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("invalid model response %q: %s", e.Response, e.Reason)
}

// ParseResponse validates a raw model answer against the taxonomy. The
// answer must be exactly two display names separated by "->" forming a
// valid pair.
func ParseResponse(raw string) (taxonomy.Pair, error) {
	text := strings.Trim(strings.TrimSpace(raw), "\"'`")
	text = strings.TrimSpace(text)
	if text == "" {
		return taxonomy.Pair{}, &ResponseError{Response: raw, Reason: "empty"}
	}

	parts := strings.Split(text, "->")
	if len(parts) != 2 {
		return taxonomy.Pair{}, &ResponseError{Response: raw, Reason: "expected format \"Category -> Subcategory\""}
	}

	main := strings.TrimSpace(parts[0])
	sub := strings.TrimSpace(parts[1])
	if main == "" || sub == "" {
		return taxonomy.Pair{}, &ResponseError{Response: raw, Reason: "missing category or subcategory"}
	}

	pair, corrected, err := taxonomy.ToStorage(main, sub)
	if err != nil {
		return taxonomy.Pair{}, &ResponseError{Response: raw, Reason: err.Error()}
	}
	if corrected {
		return taxonomy.Pair{}, &ResponseError{Response: raw, Reason: "subcategory does not belong to category"}
	}
	return pair, nil
}
