package analysis

import (
	"fmt"
	"math"
	"slices"

	"github.com/vigil-health/vigil/internal/employees"
)

// normalize enforces the scoring invariants on a decoded result and brings it
// into canonical form. Violations that indicate a fabricating or
// contract-breaking model (unknown identifiers, duplicates, out-of-range
// probabilities, unknown confidence values) are errors; ordering and decimal
// precision are corrected in place so identical inputs yield byte-identical
// results under deterministic generation.
func normalize(result *Result, condition string, records []employees.HealthSummary, opts Options) error {
	result.Condition = condition

	inputOrder := make(map[string]int, len(records))
	for i, rec := range records {
		inputOrder[rec.EmployeeID] = i
	}

	seen := make(map[string]bool, len(result.ScoredEmployees))

	for i := range result.ScoredEmployees {
		se := &result.ScoredEmployees[i]

		if _, known := inputOrder[se.EmployeeID]; !known {
			return fmt.Errorf("%w: employee %q not present in input", ErrInvalidResult, se.EmployeeID)
		}
		if seen[se.EmployeeID] {
			return fmt.Errorf("%w: duplicate employee %q", ErrInvalidResult, se.EmployeeID)
		}
		seen[se.EmployeeID] = true

		if se.RiskProbability < 0 || se.RiskProbability > 1 {
			return fmt.Errorf(
				"%w: risk_probability %v out of range for %q",
				ErrInvalidResult, se.RiskProbability, se.EmployeeID,
			)
		}
		se.RiskProbability = math.Round(se.RiskProbability*100) / 100

		switch se.Confidence {
		case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		default:
			return fmt.Errorf(
				"%w: unknown confidence %q for %q",
				ErrInvalidResult, se.Confidence, se.EmployeeID,
			)
		}

		if se.Evidence == nil {
			se.Evidence = []string{}
		}
	}

	if opts.FilterByThreshold {
		result.ScoredEmployees = slices.DeleteFunc(
			result.ScoredEmployees,
			func(se ScoredEmployee) bool {
				return se.RiskProbability <= opts.Threshold
			},
		)
	}

	// Non-increasing by probability; ties fall back to input record order so
	// output is deterministic regardless of how the model ordered its reply.
	slices.SortStableFunc(result.ScoredEmployees, func(a, b ScoredEmployee) int {
		switch {
		case a.RiskProbability > b.RiskProbability:
			return -1
		case a.RiskProbability < b.RiskProbability:
			return 1
		default:
			return inputOrder[a.EmployeeID] - inputOrder[b.EmployeeID]
		}
	})

	if result.ScoredEmployees == nil {
		result.ScoredEmployees = []ScoredEmployee{}
	}

	return nil
}
