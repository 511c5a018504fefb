package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate checks a catalog for required fields and coherent values.
//
// Rules:
//   - Name must be non-empty.
//   - Non-empty codes must be unique (case-insensitive).
//   - QuantityOnHand must be finite and not negative.
func Validate(entries []Entry) error {
	var errs []error

	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		prefix := fmt.Sprintf("entries[%d]", i)
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name must not be empty", prefix))
		}
		if e.Code != "" {
			key := strings.ToLower(strings.TrimSpace(e.Code))
			if prev, ok := seen[key]; ok {
				errs = append(errs, fmt.Errorf("%s.code %q is a duplicate of entries[%d]", prefix, e.Code, prev))
			} else {
				seen[key] = i
			}
		}
		if math.IsNaN(e.QuantityOnHand) || math.IsInf(e.QuantityOnHand, 0) || e.QuantityOnHand < 0 {
			errs = append(errs, fmt.Errorf("%s.quantity %v must be a finite, non-negative number", prefix, e.QuantityOnHand))
		}
	}

	return errors.Join(errs...)
}
