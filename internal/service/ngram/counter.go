package ngram

import (
	"fmt"
	"sort"

	model "postag-go/internal/model/ngram"
)

// CountTable maps n-grams of a single order to their occurrence counts.
// It is read-only once built.
type CountTable struct {
	order  int
	counts map[string]int64 // n-gram key -> count
	total  int64            // sum of all counts
}

// NGramWithCount pairs an n-gram with its frequency
type NGramWithCount struct {
	NGram model.NGram `json:"ngram"`
	Count int64       `json:"count"`
}

// CountNGrams tallies every order-n window of every sentence. Windows never
// cross sentence boundaries. Order 0 yields the empty table.
func CountNGrams(sentences []model.Sentence, n int) (*CountTable, error) {
	if n < 0 {
		return nil, configErrorf("count n-grams", ErrInvalidOrder, "n=%d", n)
	}
	table := newCountTable(n)
	if n == 0 {
		return table, nil
	}
	for _, sentence := range sentences {
		for _, ng := range sentence.Windows(n) {
			table.add(ng, 1)
		}
	}
	return table, nil
}

// TableFromNGrams tallies an explicit list of n-grams that all have the given order
func TableFromNGrams(order int, grams []model.NGram) (*CountTable, error) {
	if order < 0 {
		return nil, configErrorf("count n-grams", ErrInvalidOrder, "n=%d", order)
	}
	table := newCountTable(order)
	for _, ng := range grams {
		if len(ng) != order {
			return nil, fmt.Errorf("n-gram %q has length %d, table order is %d", ng.String(), len(ng), order)
		}
		table.add(ng, 1)
	}
	return table, nil
}

// TableFromCounts rebuilds a table from raw key counts, e.g. a persisted snapshot
func TableFromCounts(order int, counts map[string]int64) (*CountTable, error) {
	if order < 0 {
		return nil, configErrorf("count n-grams", ErrInvalidOrder, "n=%d", order)
	}
	table := newCountTable(order)
	for key, count := range counts {
		ng := model.FromKey(key)
		if len(ng) != order {
			return nil, fmt.Errorf("n-gram %q has length %d, table order is %d", ng.String(), len(ng), order)
		}
		if count <= 0 {
			return nil, fmt.Errorf("n-gram %q has non-positive count %d", ng.String(), count)
		}
		table.add(ng, count)
	}
	return table, nil
}

func newCountTable(order int) *CountTable {
	return &CountTable{
		order:  order,
		counts: make(map[string]int64),
	}
}

func (t *CountTable) add(ng model.NGram, count int64) {
	t.counts[ng.Key()] += count
	t.total += count
}

// Order returns the n-gram order of the table
func (t *CountTable) Order() int {
	return t.order
}

// Count returns the count of an n-gram, 0 when absent
func (t *CountTable) Count(ng model.NGram) int64 {
	return t.counts[ng.Key()]
}

// Contains reports whether the n-gram was observed
func (t *CountTable) Contains(ng model.NGram) bool {
	_, ok := t.counts[ng.Key()]
	return ok
}

// Len returns the number of distinct n-grams
func (t *CountTable) Len() int {
	return len(t.counts)
}

// Total returns the sum of all counts, i.e. the number of counted windows
func (t *CountTable) Total() int64 {
	return t.total
}

// Keys returns every distinct n-gram sorted by key
func (t *CountTable) Keys() []model.NGram {
	keys := t.sortedKeys()
	result := make([]model.NGram, len(keys))
	for i, key := range keys {
		result[i] = model.FromKey(key)
	}
	return result
}

// Each calls fn for every n-gram in key order
func (t *CountTable) Each(fn func(ng model.NGram, count int64)) {
	for _, key := range t.sortedKeys() {
		fn(model.FromKey(key), t.counts[key])
	}
}

// Counts returns a copy of the raw key counts
func (t *CountTable) Counts() map[string]int64 {
	out := make(map[string]int64, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// MostCommon returns the m most frequent n-grams, highest count first and
// ties in key order. m <= 0 returns all of them.
func (t *CountTable) MostCommon(m int) []NGramWithCount {
	keys := t.sortedKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return t.counts[keys[i]] > t.counts[keys[j]]
	})
	if m > 0 && m < len(keys) {
		keys = keys[:m]
	}
	result := make([]NGramWithCount, len(keys))
	for i, key := range keys {
		result[i] = NGramWithCount{NGram: model.FromKey(key), Count: t.counts[key]}
	}
	return result
}

// Tokens returns the distinct tokens appearing anywhere in the table's keys
func (t *CountTable) Tokens() []string {
	seen := make(map[string]struct{})
	for key := range t.counts {
		for _, tok := range model.FromKey(key) {
			seen[tok] = struct{}{}
		}
	}
	tokens := make([]string, 0, len(seen))
	for tok := range seen {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

func (t *CountTable) sortedKeys() []string {
	keys := make([]string, 0, len(t.counts))
	for key := range t.counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
