package ngram

import (
	"fmt"
	"sort"

	model "postag-go/internal/model/ngram"
)

// FreqOfFreqs maps a count value c to the number of distinct n-grams seen exactly c times
type FreqOfFreqs map[int64]int64

// FrequencyOfFrequencies derives the Nc table of a count table
func FrequencyOfFrequencies(t *CountTable) FreqOfFreqs {
	nc := make(FreqOfFreqs)
	for _, count := range t.counts {
		nc[count]++
	}
	return nc
}

// Get returns N[c], 0 when no n-gram has count c
func (nc FreqOfFreqs) Get(c int64) int64 {
	return nc[c]
}

// Observed returns the number of distinct observed n-grams, sum(Nc.values())
func (nc FreqOfFreqs) Observed() int64 {
	var sum int64
	for _, v := range nc {
		sum += v
	}
	return sum
}

// CheckCoverage verifies N[c] > 0 for every c in 1..upTo
func (nc FreqOfFreqs) CheckCoverage(upTo int64) error {
	if nc[1] <= 0 {
		return ErrMissingSingletons
	}
	var missing []int64
	for c := int64(2); c <= upTo; c++ {
		if nc[c] <= 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no n-grams with count %v", ErrFrequencyGap, missing)
	}
	return nil
}

// Counts returns the observed count values in ascending order
func (nc FreqOfFreqs) Counts() []int64 {
	counts := make([]int64, 0, len(nc))
	for c := range nc {
		counts = append(counts, c)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })
	return counts
}

// VocabularySource selects how the vocabulary size V is derived
type VocabularySource string

const (
	// VocabTrainingTokens is the number of distinct tokens in the training sentences
	VocabTrainingTokens VocabularySource = "training_token_count"
	// VocabNGramKeys is the number of distinct n-grams of the model's order
	VocabNGramKeys VocabularySource = "ngram_key_count"
)

// Valid reports whether the source is one of the recognized values
func (s VocabularySource) Valid() bool {
	return s == VocabTrainingTokens || s == VocabNGramKeys
}

// VocabularySize is the single place V is computed. Both sources are derived from
// the same sentences the count tables are built from.
func VocabularySize(sentences []model.Sentence, counts *CountTable, source VocabularySource) (int, error) {
	switch source {
	case VocabTrainingTokens:
		seen := make(map[string]struct{})
		for _, sentence := range sentences {
			for _, tok := range sentence {
				seen[tok] = struct{}{}
			}
		}
		return len(seen), nil
	case VocabNGramKeys:
		if counts == nil {
			return 0, configErrorf("vocabulary size", ErrVocabularySource, "%s requires a count table", source)
		}
		return counts.Len(), nil
	default:
		return 0, configErrorf("vocabulary size", ErrVocabularySource, "%q", source)
	}
}
