package tagger

import (
	"fmt"

	model "postag-go/internal/model/ngram"
	"postag-go/internal/service/ngram"

	"go.uber.org/zap"
)

// TrainConfig holds the smoothing policy of each HMM component and the false
// positive rate of the known-word lexicon (0 selects the default).
type TrainConfig struct {
	Transition               ngram.SmoothingConfig
	Emission                 ngram.SmoothingConfig
	LexiconFalsePositiveRate float64
}

// HMM bundles the transition model P(tag_i | tag_i-1), the emission model
// P(word | tag) and the set of words seen in training.
type HMM struct {
	Transition *ngram.ConditionalModel
	Emission   *ngram.ConditionalModel
	Words      *ngram.Lexicon
}

// Train estimates both HMM components from a gold-tagged corpus in one pass
func Train(corpus []model.TaggedSentence, cfg TrainConfig, logger *zap.Logger) (*HMM, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("empty training corpus")
	}

	tagSentences := make([]model.Sentence, 0, len(corpus))
	pairSentences := make([]model.Sentence, 0, len(corpus))
	var pairs, tags []model.NGram
	var words []string
	for i, ts := range corpus {
		if len(ts.Words) != len(ts.Tags) {
			return nil, fmt.Errorf("sentence %d: %d words but %d tags", i, len(ts.Words), len(ts.Tags))
		}
		tagSentences = append(tagSentences, model.NewSentence(ts.Tags))
		for j, word := range ts.Words {
			tag := ts.Tags[j]
			pairs = append(pairs, model.NGram{tag, word})
			tags = append(tags, model.NGram{tag})
			pairSentences = append(pairSentences, model.Sentence{tag, word})
			words = append(words, word)
		}
	}

	transition, err := ngram.TrainConditionalModel(tagSentences, 2, cfg.Transition)
	if err != nil {
		return nil, fmt.Errorf("transition model: %w", err)
	}

	emission, err := trainEmission(pairs, tags, pairSentences, cfg.Emission)
	if err != nil {
		return nil, fmt.Errorf("emission model: %w", err)
	}

	ngram.WarnFallbacks("transition", transition, logger)
	ngram.WarnFallbacks("emission", emission, logger)

	h := &HMM{
		Transition: transition,
		Emission:   emission,
		Words:      ngram.NewLexicon(words, cfg.LexiconFalsePositiveRate),
	}

	logger.Info("Trained HMM",
		zap.Int("sentences", len(corpus)),
		zap.Int("tokens", len(pairs)),
		zap.Int("states", len(StateSet(transition))),
		zap.Int("words", h.Words.Len()),
		zap.String("transition_smoother", transition.Smoother().Name()),
		zap.String("emission_smoother", emission.Smoother().Name()))

	return h, nil
}

func trainEmission(pairs, tags []model.NGram, pairSentences []model.Sentence, cfg ngram.SmoothingConfig) (*ngram.ConditionalModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	counts, err := ngram.TableFromNGrams(2, pairs)
	if err != nil {
		return nil, err
	}
	tagCounts, err := ngram.TableFromNGrams(1, tags)
	if err != nil {
		return nil, err
	}
	v, err := ngram.VocabularySize(pairSentences, counts, cfg.VocabularySource)
	if err != nil {
		return nil, err
	}
	return ngram.NewModelFromTables(counts, tagCounts, cfg, v)
}

// FromModels reassembles an HMM from restored components. The word lexicon is
// rebuilt from the emission table's keys.
func FromModels(transition, emission *ngram.ConditionalModel, lexiconFalsePositiveRate float64) (*HMM, error) {
	if transition.Order() != 2 || emission.Order() != 2 {
		return nil, fmt.Errorf("hmm components must be bigram models, got orders %d and %d", transition.Order(), emission.Order())
	}
	var words []string
	emission.Counts().Each(func(ng model.NGram, _ int64) {
		words = append(words, ng.LastToken())
	})
	return &HMM{
		Transition: transition,
		Emission:   emission,
		Words:      ngram.NewLexicon(words, lexiconFalsePositiveRate),
	}, nil
}

// NewDecoder creates a decoder over the trained components
func (h *HMM) NewDecoder(logger *zap.Logger) (*Decoder, error) {
	return NewDecoder(h.Transition, h.Emission, logger, WithLexicon(h.Words))
}
