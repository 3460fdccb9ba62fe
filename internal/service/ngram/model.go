package ngram

import (
	"fmt"
	"math"
	"sort"

	model "postag-go/internal/model/ngram"

	"go.uber.org/zap"
)

// Model answers P(symbol | context). Zero means the model asserts impossibility.
type Model interface {
	Probability(context []string, symbol string) float64
}

// ContextModel is a Model that can enumerate the contexts it was trained on
type ContextModel interface {
	Model
	DistinctContexts() []model.NGram
}

// ConditionalModel is an immutable n-gram model over a pair of count tables
// (order n and n-1) and one smoothing policy.
type ConditionalModel struct {
	order          int
	counts         *CountTable // order n
	contexts       *CountTable // order n-1
	smoother       Smoother
	config         SmoothingConfig
	vocabularySize int
	contextKeys    []model.NGram // sorted distinct contexts of observed n-grams
}

// TrainConditionalModel counts order n and n-1 windows over the sentences and
// wraps them with the configured smoother.
func TrainConditionalModel(sentences []model.Sentence, n int, cfg SmoothingConfig) (*ConditionalModel, error) {
	if n < 1 {
		return nil, configErrorf("train model", ErrInvalidOrder, "n=%d", n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	counts, err := CountNGrams(sentences, n)
	if err != nil {
		return nil, err
	}
	contexts, err := CountNGrams(sentences, n-1)
	if err != nil {
		return nil, err
	}
	v, err := VocabularySize(sentences, counts, cfg.VocabularySource)
	if err != nil {
		return nil, err
	}
	return NewModelFromTables(counts, contexts, cfg, v)
}

// NewModelFromTables builds the smoother for cfg and wraps the tables with it
func NewModelFromTables(counts, contexts *CountTable, cfg SmoothingConfig, vocabularySize int) (*ConditionalModel, error) {
	smoother, err := NewSmoother(cfg, counts, vocabularySize)
	if err != nil {
		return nil, err
	}
	m, err := NewConditionalModel(counts, contexts, smoother)
	if err != nil {
		return nil, err
	}
	m.config = cfg
	m.vocabularySize = vocabularySize
	return m, nil
}

// NewConditionalModel wraps an existing smoother. contexts must have order n-1.
func NewConditionalModel(counts, contexts *CountTable, smoother Smoother) (*ConditionalModel, error) {
	if counts == nil || contexts == nil {
		return nil, configErrorf("conditional model", ErrOrderMismatch, "nil count table")
	}
	if counts.Order() < 1 {
		return nil, configErrorf("conditional model", ErrInvalidOrder, "n=%d", counts.Order())
	}
	if contexts.Order() != counts.Order()-1 {
		return nil, configErrorf("conditional model", ErrOrderMismatch, "orders %d and %d", counts.Order(), contexts.Order())
	}
	if smoother == nil {
		return nil, configErrorf("conditional model", ErrUnknownSmoothing, "nil smoother")
	}

	seen := make(map[string]model.NGram)
	for key := range counts.counts {
		ctx := model.FromKey(key).Context()
		seen[ctx.Key()] = ctx
	}
	contextKeys := make([]model.NGram, 0, len(seen))
	for _, ctx := range seen {
		contextKeys = append(contextKeys, ctx)
	}
	sort.Slice(contextKeys, func(i, j int) bool {
		return contextKeys[i].Key() < contextKeys[j].Key()
	})

	return &ConditionalModel{
		order:       counts.Order(),
		counts:      counts,
		contexts:    contexts,
		smoother:    smoother,
		contextKeys: contextKeys,
	}, nil
}

// Probability calculates the probability of a symbol given its context. A
// context longer than n-1 is trimmed to its last n-1 tokens.
func (m *ConditionalModel) Probability(context []string, symbol string) float64 {
	want := m.order - 1
	if len(context) > want {
		context = context[len(context)-want:]
	}
	ng := make(model.NGram, 0, len(context)+1)
	ng = append(ng, context...)
	ng = append(ng, symbol)

	var contextCount int64
	if want == 0 {
		// the empty context occurs once per counted window
		contextCount = m.counts.Total()
	} else if len(context) == want {
		contextCount = m.contexts.Count(model.NGram(context))
	}
	return m.smoother.Smooth(m.counts.Count(ng), contextCount)
}

// DistinctContexts returns the contexts of every observed n-gram, sorted
func (m *ConditionalModel) DistinctContexts() []model.NGram {
	out := make([]model.NGram, len(m.contextKeys))
	copy(out, m.contextKeys)
	return out
}

// Order returns n
func (m *ConditionalModel) Order() int {
	return m.order
}

// Counts returns the order-n count table
func (m *ConditionalModel) Counts() *CountTable {
	return m.counts
}

// Contexts returns the order n-1 count table
func (m *ConditionalModel) Contexts() *CountTable {
	return m.contexts
}

// Smoother returns the estimator backing the model
func (m *ConditionalModel) Smoother() Smoother {
	return m.smoother
}

// Config returns the smoothing configuration the model was trained with
func (m *ConditionalModel) Config() SmoothingConfig {
	return m.config
}

// SequenceProbability multiplies the conditional probability of every order-n
// window of the sentence.
func (m *ConditionalModel) SequenceProbability(sentence model.Sentence) float64 {
	prob := 1.0
	for _, ng := range sentence.Windows(m.order) {
		prob *= m.Probability(ng.Context(), ng.LastToken())
	}
	return prob
}

// LogProbability is the natural log of SequenceProbability, -Inf for an impossible sentence
func (m *ConditionalModel) LogProbability(sentence model.Sentence) float64 {
	total := 0.0
	for _, ng := range sentence.Windows(m.order) {
		p := m.Probability(ng.Context(), ng.LastToken())
		if p == 0 {
			return math.Inf(-1)
		}
		total += math.Log(p)
	}
	return total
}

// CrossEntropy calculates the per-window cross-entropy in bits. Windows the
// model gives zero probability are skipped.
func (m *ConditionalModel) CrossEntropy(sentence model.Sentence) float64 {
	totalLogProb := 0.0
	count := 0
	for _, ng := range sentence.Windows(m.order) {
		prob := m.Probability(ng.Context(), ng.LastToken())
		if prob > 0 {
			totalLogProb += math.Log2(prob)
			count++
		}
	}
	if count == 0 {
		return 0.0
	}
	return -totalLogProb / float64(count)
}

// Perplexity calculates the perplexity of a sentence
func (m *ConditionalModel) Perplexity(sentence model.Sentence) float64 {
	return math.Pow(2, m.CrossEntropy(sentence))
}

// Table materializes the probability of every observed n-gram
func (m *ConditionalModel) Table() *ProbabilityTable {
	table := newProbabilityTable()
	m.counts.Each(func(ng model.NGram, count int64) {
		table.set(ng.Context(), ng.LastToken(), m.Probability(ng.Context(), ng.LastToken()))
	})
	return table
}

// WarnFallbacks logs the Good-Turing counts of m that were left undiscounted
func WarnFallbacks(name string, m *ConditionalModel, logger *zap.Logger) {
	gt, ok := m.Smoother().(*GoodTuringSmoother)
	if !ok {
		return
	}
	if fallbacks := gt.Fallbacks(); len(fallbacks) > 0 {
		logger.Warn("Negative Good-Turing estimate, using raw counts",
			zap.String("model", name),
			zap.Int64s("counts", fallbacks))
	}
}

// ModelStats contains statistics about an n-gram model
type ModelStats struct {
	N              int    `json:"n"`
	VocabularySize int    `json:"vocabulary_size"`
	NGramCount     int    `json:"ngram_count"`
	ContextCount   int    `json:"context_count"`
	TotalNGrams    int64  `json:"total_ngrams"`
	SmootherName   string `json:"smoother_name"`
}

// Stats returns statistics about the model
func (m *ConditionalModel) Stats() ModelStats {
	return ModelStats{
		N:              m.order,
		VocabularySize: m.vocabularySize,
		NGramCount:     m.counts.Len(),
		ContextCount:   len(m.contextKeys),
		TotalNGrams:    m.counts.Total(),
		SmootherName:   m.smoother.Name(),
	}
}

// MaxPermutationWords bounds ScoredPermutations to 8! sequences
const MaxPermutationWords = 8

// ScoredSequence is a candidate sentence with its model probability
type ScoredSequence struct {
	Tokens      []string `json:"tokens"`
	Probability float64  `json:"probability"`
}

// ScoredPermutations scores every ordering of words, each wrapped in Start and
// Stop, and returns them best first. limit > 0 truncates the result.
func (m *ConditionalModel) ScoredPermutations(words []string, limit int) ([]ScoredSequence, error) {
	if len(words) == 0 {
		return nil, nil
	}
	if len(words) > MaxPermutationWords {
		return nil, fmt.Errorf("too many words for permutation scoring: %d > %d", len(words), MaxPermutationWords)
	}

	var result []ScoredSequence
	perm := make([]string, len(words))
	copy(perm, words)
	sort.Strings(perm)
	seen := make(map[string]struct{})
	permute(perm, 0, func(p []string) {
		key := model.NGram(p).Key()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		tokens := make([]string, len(p))
		copy(tokens, p)
		result = append(result, ScoredSequence{
			Tokens:      tokens,
			Probability: m.SequenceProbability(model.NewSentence(tokens)),
		})
	})

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Probability != result[j].Probability {
			return result[i].Probability > result[j].Probability
		}
		return model.NGram(result[i].Tokens).Key() < model.NGram(result[j].Tokens).Key()
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func permute(items []string, i int, emit func([]string)) {
	if i == len(items) {
		emit(items)
		return
	}
	for j := i; j < len(items); j++ {
		items[i], items[j] = items[j], items[i]
		permute(items, i+1, emit)
		items[i], items[j] = items[j], items[i]
	}
}
