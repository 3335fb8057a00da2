// Package registry holds the curated charity and source attributions served
// with each result, keyed by category and loaded from an embedded YAML file.
package registry

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/enviducate/enviducate/internal/model"
)

//go:embed registry.yaml
var registryYAML []byte

// Registry resolves per-category charities and data sources.
type Registry struct {
	Charities map[string][]model.Charity `yaml:"charities"`
	Sources   map[string][]string        `yaml:"sources"`
}

// Load parses the embedded registry file.
func Load() (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(registryYAML, &r); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal")
	}
	return &r, nil
}

// CharitiesFor returns charities for a category, falling back to the default
// set when the category has no dedicated entries.
func (r *Registry) CharitiesFor(category model.Category) []model.Charity {
	if cs, ok := r.Charities[string(category)]; ok {
		return cs
	}
	return r.Charities["default"]
}

// SourcesFor returns data source attributions for a category, falling back to
// the default set.
func (r *Registry) SourcesFor(category model.Category) []string {
	if ss, ok := r.Sources[string(category)]; ok {
		return ss
	}
	return r.Sources["default"]
}
