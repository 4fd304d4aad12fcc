package normalize

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

var (
	errNotNumeric      = errors.New("not a number")
	errAmbiguousAmount = errors.New("ambiguous digit grouping")
	errNotTime         = errors.New("not a timestamp")
)

// Brasilia is the wall clock Brazilian vendors use for timestamps sent
// without an offset. Brazil has observed no daylight saving since 2019.
var Brasilia = loadLocation("America/Sao_Paulo", -3*60*60)

func loadLocation(name string, offset int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, offset)
	}
	return loc
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// ParseAmount accepts JSON numbers and numeric strings. In strings the last of
// "." and "," is the decimal separator and the other groups thousands, so
// "1.234,56" and "1,234.56" agree. A lone comma followed by exactly three
// digits could be either and is rejected.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case json.Number:
		return decimal.NewFromString(val.String())
	case float64:
		return decimal.NewFromFloat(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case string:
		s := strings.TrimSpace(val)
		s = strings.TrimPrefix(s, "R$")
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Decimal{}, errNotNumeric
		}
		plain, err := plainDecimal(s)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(plain)
	default:
		return decimal.Decimal{}, errNotNumeric
	}
}

// plainDecimal rewrites a grouped amount into "1234.56" form.
func plainDecimal(s string) (string, error) {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")

	var intPart, frac, group string
	switch {
	case dot < 0 && comma < 0:
		return sign + s, nil
	case dot >= 0 && comma >= 0:
		if dot > comma {
			intPart, frac, group = s[:dot], s[dot+1:], ","
		} else {
			intPart, frac, group = s[:comma], s[comma+1:], "."
		}
	default:
		sep := "."
		if comma >= 0 {
			sep = ","
		}
		switch n := strings.Count(s, sep); {
		case n > 1:
			intPart, group = s, sep
		case sep == "." || len(s)-strings.Index(s, sep)-1 != 3:
			idx := strings.Index(s, sep)
			intPart, frac = s[:idx], s[idx+1:]
		default:
			return "", errAmbiguousAmount
		}
	}

	if strings.ContainsAny(frac, ".,") {
		return "", errNotNumeric
	}
	if group != "" {
		groups := strings.Split(intPart, group)
		for i, g := range groups {
			if strings.ContainsAny(g, ".,") || g == "" || len(g) > 3 || (i > 0 && len(g) != 3) {
				return "", errAmbiguousAmount
			}
		}
		intPart = strings.Join(groups, "")
	}
	if frac == "" {
		return sign + intPart, nil
	}
	return sign + intPart + "." + frac, nil
}

// ParseTimeIn accepts RFC3339 and common vendor layouts, and unix seconds or
// milliseconds. Timestamps without an offset are read in loc. Results are UTC.
func ParseTimeIn(v any, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return time.Time{}, errNotTime
		}
		return fromUnix(n), nil
	case float64:
		return fromUnix(int64(val)), nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, errNotTime
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnix(n), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errNotTime
	default:
		return time.Time{}, errNotTime
	}
}

func fromUnix(n int64) time.Time {
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// ParseQuantity returns 0 when v is absent or not an integer.
func ParseQuantity(v any) int {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
		if f, err := val.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(val)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return 0
}
