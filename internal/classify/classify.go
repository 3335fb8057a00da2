// Package classify maps free-text environmental queries to a single category.
// An optional Claude-backed classifier is consulted first; the ordered keyword
// heuristic is the fallback, so classification never fails outright.
package classify

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/pkg/anthropic"
)

// rule is one ordered keyword rule. First match wins; there is no weighting.
type rule struct {
	keywords []string
	category model.Category
}

// rules is the ordered heuristic rule list. The order is a deliberate,
// auditable tie-break: a query containing both "forest" and "fire" resolves
// to deforestation because the forest rule comes first.
var rules = []rule{
	{keywords: []string{"forest", "deforest"}, category: model.CategoryDeforestation},
	{keywords: []string{"fire"}, category: model.CategoryWildfire},
}

// heuristicDefault is the category when no rule matches.
const heuristicDefault = model.CategoryBiodiversity

// Heuristic classifies a query with the ordered keyword rules alone.
func Heuristic(query string) model.Category {
	lowered := strings.ToLower(query)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r.category
			}
		}
	}
	return heuristicDefault
}

const classifySystemPrompt = `You classify environmental queries about Michigan into exactly one category. Respond with only the category word, nothing else. Categories: deforestation, biodiversity, wildfire, energy, water, forest, wildlife, air, environmental.`

// Classifier classifies queries, preferring the AI model when configured.
type Classifier struct {
	ai      anthropic.Client
	model   string
	timeout time.Duration
}

// New creates a Classifier. A nil client disables the AI path entirely.
func New(ai anthropic.Client, aiModel string, timeout time.Duration) *Classifier {
	return &Classifier{ai: ai, model: aiModel, timeout: timeout}
}

// Classify returns exactly one category for the query. The AI classifier is
// tried once with a bounded timeout; any failure, timeout, or unrecognized
// answer falls through to the keyword heuristic without surfacing an error.
func (c *Classifier) Classify(ctx context.Context, query string) model.Category {
	if c.ai == nil {
		return Heuristic(query)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: 16,
		System:    classifySystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: query}},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			zap.L().Warn("classify: AI call timed out, using heuristic", zap.Duration("timeout", c.timeout))
		} else {
			zap.L().Warn("classify: AI call failed, using heuristic", zap.Error(err))
		}
		return Heuristic(query)
	}

	answer := model.Category(strings.ToLower(strings.TrimSpace(resp.Text)))
	if !answer.Valid() {
		zap.L().Warn("classify: AI returned unrecognized category, using heuristic",
			zap.String("answer", resp.Text))
		return Heuristic(query)
	}
	return answer
}
