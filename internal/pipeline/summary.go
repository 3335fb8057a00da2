package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/pkg/anthropic"
)

const summarySystemPrompt = `You are an environmental educator. Answer the user's question about Michigan's environment using the provided data. Write 2-4 sentences for a general audience: what the data shows, why it matters, and one thing the reader can do. Do not invent numbers that are not in the data.`

// Summarizer produces the educational summary for a result. The AI model is
// tried once with a bounded timeout; every failure falls back to the template
// so a result always carries a summary.
type Summarizer struct {
	ai      anthropic.Client
	model   string
	timeout time.Duration
}

// NewSummarizer creates a Summarizer. A nil client always uses the template.
func NewSummarizer(ai anthropic.Client, aiModel string, timeout time.Duration) *Summarizer {
	return &Summarizer{ai: ai, model: aiModel, timeout: timeout}
}

// Summarize returns an educational summary of the query's result. Never
// returns an empty string.
func (s *Summarizer) Summarize(ctx context.Context, query string, category model.Category, numbers model.NumbersData, sources []string) string {
	if s.ai == nil {
		return fallbackSummary(query)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: 400,
		System:    summarySystemPrompt,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: summaryPrompt(query, category, numbers, sources),
		}},
	})
	if err != nil {
		zap.L().Warn("pipeline: summary generation failed, using fallback",
			zap.String("category", string(category)), zap.Error(err))
		return fallbackSummary(query)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return fallbackSummary(query)
	}
	return text
}

func summaryPrompt(query string, category model.Category, numbers model.NumbersData, sources []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %q\nCategory: %s\nRegion area: %s\nChange: %+.1f%% over %s\n",
		query, category, numbers.TotalArea, numbers.PercentageChange, numbers.Timeframe)
	for _, m := range numbers.KeyMetrics {
		fmt.Fprintf(&b, "Metric: %s = %s (%+.1f%%)\n", m.Label, m.Value, m.Change)
	}
	if len(sources) > 0 {
		fmt.Fprintf(&b, "Sources: %s\n", strings.Join(sources, "; "))
	}
	return b.String()
}

// fallbackSummary mirrors the templated copy used when no model is reachable.
func fallbackSummary(query string) string {
	return fmt.Sprintf("Environmental analysis of %s in Michigan reveals important data about our natural environment. The region shows various environmental indicators that help us understand the health of our ecosystems. Monitoring these indicators helps protect natural resources, and community action can make a positive difference.", strings.TrimSpace(query))
}
