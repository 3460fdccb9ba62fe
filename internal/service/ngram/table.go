package ngram

import (
	"fmt"
	"sort"

	model "postag-go/internal/model/ngram"
)

// Entry is one (context, symbol) -> probability cell
type Entry struct {
	Context     []string `json:"context" yaml:"context"`
	Symbol      string   `json:"symbol" yaml:"symbol"`
	Probability float64  `json:"probability" yaml:"probability"`
}

// ProbabilityTable is an explicit conditional probability table. Absent cells
// have probability 0.
type ProbabilityTable struct {
	cells    map[string]float64     // n-gram key -> probability
	contexts map[string]model.NGram // context key -> context
}

// NewProbabilityTable builds a read-only table from explicit entries
func NewProbabilityTable(entries []Entry) (*ProbabilityTable, error) {
	table := newProbabilityTable()
	for _, e := range entries {
		if e.Probability < 0 || e.Probability > 1 {
			return nil, fmt.Errorf("probability of %q given %v out of range: %g", e.Symbol, e.Context, e.Probability)
		}
		table.set(e.Context, e.Symbol, e.Probability)
	}
	return table, nil
}

func newProbabilityTable() *ProbabilityTable {
	return &ProbabilityTable{
		cells:    make(map[string]float64),
		contexts: make(map[string]model.NGram),
	}
}

func (t *ProbabilityTable) set(context []string, symbol string, p float64) {
	ctx := make(model.NGram, len(context))
	copy(ctx, context)
	ng := append(append(model.NGram{}, ctx...), symbol)
	t.cells[ng.Key()] = p
	t.contexts[ctx.Key()] = ctx
}

// Probability returns the stored cell, 0 when absent
func (t *ProbabilityTable) Probability(context []string, symbol string) float64 {
	ng := append(append(model.NGram{}, context...), symbol)
	return t.cells[ng.Key()]
}

// DistinctContexts returns every context that has at least one cell, sorted
func (t *ProbabilityTable) DistinctContexts() []model.NGram {
	out := make([]model.NGram, 0, len(t.contexts))
	for _, ctx := range t.contexts {
		out = append(out, ctx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Len returns the number of cells
func (t *ProbabilityTable) Len() int {
	return len(t.cells)
}

// Entries returns every cell in key order
func (t *ProbabilityTable) Entries() []Entry {
	keys := make([]string, 0, len(t.cells))
	for k := range t.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		ng := model.FromKey(k)
		entries[i] = Entry{Context: ng.Context(), Symbol: ng.LastToken(), Probability: t.cells[k]}
	}
	return entries
}
