package extract

import (
	"errors"
	"fmt"
	"sort"

	"github.com/alvmarrod/graph-weaver/internal/fetch"
	"github.com/alvmarrod/graph-weaver/internal/graph"
)

// ErrUnknownExtractor is returned when a configured extractor name is not registered
var ErrUnknownExtractor = errors.New("unknown extractor")

// Extractor turns a fetched page into typed results.
// ID is the type token carried by every result it produces.
type Extractor interface {
	ID() string
	Extract(resp *fetch.Response) ([]graph.Result, error)
}

// Registry maps type tokens to extractors
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates a registry holding the given extractors
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// DefaultRegistry holds every built-in extractor
func DefaultRegistry() *Registry {
	return NewRegistry(NewURLExtractor(), NewEmailExtractor())
}

// Register adds or replaces an extractor under its ID
func (r *Registry) Register(e Extractor) {
	r.extractors[e.ID()] = e
}

// Names returns the registered type tokens, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves configured names into extractors. The url extractor is always
// included first since it drives the crawl; duplicate names are ignored.
func (r *Registry) Lookup(names []string) ([]Extractor, error) {
	var selected []Extractor
	seen := make(map[string]bool)

	if e, ok := r.extractors[graph.TypeURL]; ok {
		selected = append(selected, e)
		seen[graph.TypeURL] = true
	}

	for _, name := range names {
		if seen[name] {
			continue
		}
		e, ok := r.extractors[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownExtractor, name, r.Names())
		}
		seen[name] = true
		selected = append(selected, e)
	}

	return selected, nil
}
