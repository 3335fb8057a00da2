// Package sample reduces coordinate sequences to a bounded budget using
// deterministic stride selection.
package sample

import (
	"fmt"

	"github.com/enviducate/enviducate/internal/model"
)

// DefaultBudget is the default maximum number of sampled points.
const DefaultBudget = 50

// InvalidBudgetError reports a non-positive sample budget. This is a
// programming error, not an input condition.
type InvalidBudgetError struct {
	Budget int
}

func (e *InvalidBudgetError) Error() string {
	return fmt.Sprintf("sample budget must be positive, got %d", e.Budget)
}

// Code returns the stable API error code.
func (e *InvalidBudgetError) Code() string { return "invalid_budget" }

// Points samples at most budget points from the input. When the input already
// fits the budget it is returned unchanged, same order. Otherwise every
// stride-th element is taken starting at index 0, where
// stride = max(len/budget, 1). The selection is deterministic: repeated calls
// with the same input produce identical output, which keeps fingerprinted
// results cacheable and preserves spatial spread across the whole sequence
// instead of clustering near the start.
func Points(points []model.CoordinatePoint, budget int) ([]model.CoordinatePoint, error) {
	if budget <= 0 {
		return nil, &InvalidBudgetError{Budget: budget}
	}
	if len(points) <= budget {
		return points, nil
	}

	stride := len(points) / budget
	if stride < 1 {
		stride = 1
	}

	sampled := make([]model.CoordinatePoint, 0, budget)
	for i := 0; i < len(points) && len(sampled) < budget; i += stride {
		sampled = append(sampled, points[i])
	}
	return sampled, nil
}
