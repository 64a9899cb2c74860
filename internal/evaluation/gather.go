package evaluation

import "sync"

// Result is the normalized outcome of one successfully evaluated trait.
type Result struct {
	// Position is the index of the trait in the input list.
	Position  int
	TraitName string
	Kind      Kind
	Raw       Value
	Rationale string
	Score     float64
	Required  bool
	Degraded  bool
}

// Failure records a trait whose evaluation produced no result.
type Failure struct {
	Position  int
	TraitName string
	Reason    string
}

// GatherSet collects trait outcomes from concurrent tasks. Order of
// arrival carries no meaning. Once sealed, further appends are ignored.
type GatherSet struct {
	mu       sync.Mutex
	results  []Result
	failures []Failure
	sealed   bool
}

// NewGatherSet returns an empty set.
func NewGatherSet() *GatherSet {
	return &GatherSet{}
}

// Add appends a result. It reports false when the set is already sealed.
func (g *GatherSet) Add(r Result) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return false
	}
	g.results = append(g.results, r)
	return true
}

// Fail appends a failure. It reports false when the set is already sealed.
func (g *GatherSet) Fail(f Failure) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return false
	}
	g.failures = append(g.failures, f)
	return true
}

// Merge appends every entry of other into g. Merging is a plain union, so
// the final content does not depend on merge order or grouping.
func (g *GatherSet) Merge(other *GatherSet) {
	if other == nil || other == g {
		return
	}
	results, failures := other.snapshot()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return
	}
	g.results = append(g.results, results...)
	g.failures = append(g.failures, failures...)
}

// Seal stops accepting entries and returns a copy of what was gathered.
func (g *GatherSet) Seal() ([]Result, []Failure) {
	g.mu.Lock()
	g.sealed = true
	g.mu.Unlock()
	return g.snapshot()
}

// Len returns the number of results gathered so far.
func (g *GatherSet) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.results)
}

func (g *GatherSet) snapshot() ([]Result, []Failure) {
	g.mu.Lock()
	defer g.mu.Unlock()
	results := make([]Result, len(g.results))
	copy(results, g.results)
	failures := make([]Failure, len(g.failures))
	copy(failures, g.failures)
	return results, failures
}
