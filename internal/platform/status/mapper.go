// Package status maps vendor status strings onto the canonical transaction status.
package status

import (
	"strings"

	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
)

// Vocabulary lists the vendor strings that count as completed or pending.
// Anything else maps to failed.
type Vocabulary struct {
	Completed []string
	Pending   []string
}

type Mapper func(vendorStatus string) txdomain.Status

func NewMapper(v Vocabulary) Mapper {
	buckets := make(map[string]txdomain.Status, len(v.Completed)+len(v.Pending))
	for _, s := range v.Pending {
		buckets[key(s)] = txdomain.StatusPending
	}
	// completed wins when a vendor lists the same string twice
	for _, s := range v.Completed {
		buckets[key(s)] = txdomain.StatusCompleted
	}
	return func(vendorStatus string) txdomain.Status {
		if status, ok := buckets[key(vendorStatus)]; ok {
			return status
		}
		return txdomain.StatusFailed
	}
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
