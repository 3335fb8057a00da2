// Package assemble combines classifier output, visualization artifacts, and
// registry metadata into the final EnvironmentalResult.
package assemble

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/enviducate/enviducate/internal/model"
)

// resultNamespace seeds deterministic result IDs. Derived once; never changes
// so the same fingerprint always yields the same ID.
var resultNamespace = uuid.MustParse("7ad1c2f6-3e04-4a4b-9b6f-5f1f6f4a8d21")

// IncompleteResultError reports an assembly invariant violation. It indicates
// an internal pipeline bug, not bad caller input.
type IncompleteResultError struct {
	Detail string
}

func (e *IncompleteResultError) Error() string {
	return "incomplete result: " + e.Detail
}

// Code returns the stable API error code.
func (e *IncompleteResultError) Code() string { return "incomplete_result" }

// Input carries everything the assembler needs for one result.
type Input struct {
	Query          string
	Fingerprint    string
	Category       model.Category
	Summary        string
	Sources        []string
	Charities      []model.Charity
	Visualizations []model.Visualization
}

// Assembler builds EnvironmentalResults with deterministic IDs and share URLs.
type Assembler struct {
	shareBaseURL string
	now          func() time.Time
}

// New creates an Assembler. shareBaseURL is the public prefix for shareable
// result URLs.
func New(shareBaseURL string) *Assembler {
	return &Assembler{shareBaseURL: shareBaseURL, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (a *Assembler) WithNow(t time.Time) *Assembler {
	a.now = func() time.Time { return t }
	return a
}

// Assemble validates the inputs and builds the result. The ID and shareable
// URL are derived from the fingerprint alone, so two assemblies of the same
// fingerprint within the cache lifetime produce the same URL. generatedAt is
// stamped here, once.
func (a *Assembler) Assemble(in Input) (*model.EnvironmentalResult, error) {
	if !in.Category.Valid() {
		return nil, &IncompleteResultError{Detail: fmt.Sprintf("unrecognized category %q", in.Category)}
	}
	if len(in.Visualizations) != 3 {
		return nil, &IncompleteResultError{Detail: fmt.Sprintf("expected 3 visualizations, got %d", len(in.Visualizations))}
	}
	seen := make(map[model.VisualizationType]bool, 3)
	for _, v := range in.Visualizations {
		seen[v.Type] = true
	}
	for _, kind := range []model.VisualizationType{model.VizPinpoints, model.VizHeatmap, model.VizNumbers} {
		if !seen[kind] {
			return nil, &IncompleteResultError{Detail: fmt.Sprintf("missing %s visualization", kind)}
		}
	}

	id := uuid.NewSHA1(resultNamespace, []byte(in.Fingerprint)).String()
	shareToken := in.Fingerprint
	if len(shareToken) > 8 {
		shareToken = shareToken[:8]
	}

	return &model.EnvironmentalResult{
		ID:             id,
		OriginalQuery:  in.Query,
		Category:       in.Category,
		Summary:        in.Summary,
		Sources:        in.Sources,
		Charities:      in.Charities,
		Visualizations: in.Visualizations,
		ShareableURL:   fmt.Sprintf("%s/result/%s", a.shareBaseURL, shareToken),
		GeneratedAt:    a.now(),
	}, nil
}
