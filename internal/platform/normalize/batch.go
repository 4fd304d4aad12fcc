package normalize

import (
	"encoding/json"
	"errors"

	"github.com/smallbiznis/paybridge/internal/platform/domain"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"gorm.io/datatypes"
)

// All normalizes every item or fails on the first bad one. No partial
// result is returned.
func All(normalizer Normalizer, items []json.RawMessage) ([]*txdomain.Transaction, error) {
	out := make([]*txdomain.Transaction, 0, len(items))
	for i, item := range items {
		tx, err := normalizer(item)
		if err != nil {
			var nerr *domain.NormalizationError
			if errors.As(err, &nerr) {
				nerr.Index = i
			}
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// Blocks decodes optional vendor blocks into a metadata map, skipping
// absent and null ones.
func Blocks(blocks map[string]json.RawMessage) (datatypes.JSONMap, error) {
	metadata := datatypes.JSONMap{}
	for key, raw := range blocks {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		v, err := DecodeValue(raw)
		if err != nil {
			return nil, err
		}
		metadata[key] = v
	}
	if len(metadata) == 0 {
		return nil, nil
	}
	return metadata, nil
}
