package assemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enviducate/enviducate/internal/model"
)

func validInput() Input {
	return Input{
		Query:       "forest loss near Marquette",
		Fingerprint: "abcdef0123456789",
		Category:    model.CategoryDeforestation,
		Summary:     "summary",
		Sources:     []string{"Hansen Global Forest Change 2024"},
		Charities:   []model.Charity{{Name: "Releaf Michigan", URL: "https://releafmichigan.org"}},
		Visualizations: []model.Visualization{
			{Type: model.VizPinpoints, Pinpoints: &model.PinpointsData{}},
			{Type: model.VizHeatmap, Heatmap: &model.HeatmapData{}},
			{Type: model.VizNumbers, Numbers: &model.NumbersData{}},
		},
	}
}

func TestAssemble(t *testing.T) {
	stamp := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	a := New("https://enviducate.org").WithNow(stamp)

	result, err := a.Assemble(validInput())
	require.NoError(t, err)

	assert.Equal(t, "forest loss near Marquette", result.OriginalQuery)
	assert.Equal(t, model.CategoryDeforestation, result.Category)
	assert.Equal(t, stamp, result.GeneratedAt)
	assert.Equal(t, "https://enviducate.org/result/abcdef01", result.ShareableURL)
	assert.NotEmpty(t, result.ID)
	assert.Len(t, result.Visualizations, 3)
}

func TestAssemble_DeterministicPerFingerprint(t *testing.T) {
	a := New("https://enviducate.org")

	first, err := a.Assemble(validInput())
	require.NoError(t, err)
	second, err := a.Assemble(validInput())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ShareableURL, second.ShareableURL)

	other := validInput()
	other.Fingerprint = "ffff00001111"
	third, err := a.Assemble(other)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.NotEqual(t, first.ShareableURL, third.ShareableURL)
}

func TestAssemble_Incomplete(t *testing.T) {
	a := New("https://enviducate.org")

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"unknown category", func(in *Input) { in.Category = "lava" }},
		{"too few artifacts", func(in *Input) { in.Visualizations = in.Visualizations[:2] }},
		{"duplicate kind", func(in *Input) {
			in.Visualizations[2] = in.Visualizations[0]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := a.Assemble(in)
			require.Error(t, err)

			var incomplete *IncompleteResultError
			require.ErrorAs(t, err, &incomplete)
			assert.Equal(t, "incomplete_result", incomplete.Code())
		})
	}
}

func TestAssemble_ShortFingerprintToken(t *testing.T) {
	a := New("https://enviducate.org")
	in := validInput()
	in.Fingerprint = "abc"

	result, err := a.Assemble(in)
	require.NoError(t, err)
	assert.Equal(t, "https://enviducate.org/result/abc", result.ShareableURL)
}
