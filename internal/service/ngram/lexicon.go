package ngram

import (
	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate is used when NewLexicon is given a rate outside (0, 1)
const DefaultFalsePositiveRate = 0.01

// Lexicon answers "was this symbol seen in training" from a bloom filter
// alone. Indexed symbols always test positive; a symbol never indexed tests
// positive at roughly the configured false positive rate, so every answer
// built on it (unknown word flags, unknown word counts) is approximate.
type Lexicon struct {
	filter *bloom.BloomFilter
	rate   float64
	size   int
}

// NewLexicon indexes symbols in a filter sized for len(symbols) entries
func NewLexicon(symbols []string, falsePositiveRate float64) *Lexicon {
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}
	expected := uint(len(symbols))
	if expected == 0 {
		expected = 1
	}
	lex := &Lexicon{
		filter: bloom.NewWithEstimates(expected, falsePositiveRate),
		rate:   falsePositiveRate,
	}
	for _, s := range symbols {
		// count first sightings only
		if !lex.filter.TestAndAddString(s) {
			lex.size++
		}
	}
	return lex
}

// Contains reports whether symbol was probably indexed
func (l *Lexicon) Contains(symbol string) bool {
	return l.filter.TestString(symbol)
}

// Unknown returns the tokens that were certainly never indexed, in input order
func (l *Lexicon) Unknown(tokens []string) []string {
	var unknown []string
	for _, tok := range tokens {
		if !l.Contains(tok) {
			unknown = append(unknown, tok)
		}
	}
	return unknown
}

// Len returns the number of distinct symbols indexed. A symbol whose first
// sighting collided with earlier ones is not counted.
func (l *Lexicon) Len() int {
	return l.size
}

// FalsePositiveRate returns the rate the filter was sized for
func (l *Lexicon) FalsePositiveRate() float64 {
	return l.rate
}
