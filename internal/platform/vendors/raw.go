package vendors

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paybridge/internal/platform/normalize"
)

var errMissing = errors.New("missing")

func isAbsent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// rawScalar renders a JSON string or number as text.
func rawScalar(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}
	v, err := normalize.DecodeValue(raw)
	if err != nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

func rawAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if isAbsent(raw) {
		return decimal.Decimal{}, errMissing
	}
	v, err := normalize.DecodeValue(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return normalize.ParseAmount(v)
}

// rawSourceTime is rawTime as a vendor timestamp, nil when absent.
func rawSourceTime(raw json.RawMessage) *time.Time {
	t := rawTime(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}

// rawQuantity accepts a JSON number or numeric string, 0 otherwise.
func rawQuantity(raw json.RawMessage) int {
	if isAbsent(raw) {
		return 0
	}
	v, err := normalize.DecodeValue(raw)
	if err != nil {
		return 0
	}
	return normalize.ParseQuantity(v)
}

// rawTime returns the zero time for absent or unparseable timestamps. Times
// without an offset are Brasilia wall clock.
func rawTime(raw json.RawMessage) time.Time {
	if isAbsent(raw) {
		return time.Time{}
	}
	v, err := normalize.DecodeValue(raw)
	if err != nil {
		return time.Time{}
	}
	t, _ := normalize.ParseTimeIn(v, normalize.Brasilia)
	return t
}
