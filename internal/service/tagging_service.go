package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"postag-go/internal/config"
	model "postag-go/internal/model/ngram"
	"postag-go/internal/service/eval"
	"postag-go/internal/service/ngram"
	"postag-go/internal/service/tagger"

	"go.uber.org/zap"
)

// Names under which models are persisted
const (
	LanguageModelName   = "language"
	TransitionModelName = "transition"
	EmissionModelName   = "emission"
)

var (
	ErrNoLanguageModel = errors.New("no language model loaded")
	ErrNoTagger        = errors.New("no tagger loaded")
	ErrUnknownModel    = errors.New("unknown model name")
)

// TaggingService owns the trained models and exposes the query, decode and
// evaluation operations to the CLI, HTTP and MCP front ends. Models are
// immutable; swapping one in is the only write.
type TaggingService struct {
	cfg      *config.Config
	store    *ngram.ModelStore
	language *ngram.ConditionalModel
	hmm      *tagger.HMM
	decoder  *tagger.Decoder
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewTaggingService creates an empty service. store may be nil when
// persistence is not needed.
func NewTaggingService(cfg *config.Config, store *ngram.ModelStore, logger *zap.Logger) *TaggingService {
	return &TaggingService{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// TrainLanguageModel builds the n-gram language model from bounded sentences
func (s *TaggingService) TrainLanguageModel(sentences []model.Sentence) error {
	lm, err := ngram.TrainConditionalModel(sentences, s.cfg.Language.N, s.cfg.Language.SmoothingConfig)
	if err != nil {
		return fmt.Errorf("failed to train language model: %w", err)
	}
	ngram.WarnFallbacks(LanguageModelName, lm, s.logger)
	s.mu.Lock()
	s.language = lm
	s.mu.Unlock()

	stats := lm.Stats()
	s.logger.Info("Trained language model",
		zap.Int("sentences", len(sentences)),
		zap.Int("n", stats.N),
		zap.Int("vocabulary_size", stats.VocabularySize),
		zap.Int("ngrams", stats.NGramCount),
		zap.String("smoother", stats.SmootherName))
	return nil
}

// TrainTagger estimates the HMM from a gold-tagged corpus
func (s *TaggingService) TrainTagger(corpus []model.TaggedSentence) error {
	h, err := tagger.Train(corpus, tagger.TrainConfig{
		Transition:               s.cfg.Transition,
		Emission:                 s.cfg.Emission,
		LexiconFalsePositiveRate: s.cfg.Lexicon.FalsePositiveRate,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("failed to train tagger: %w", err)
	}
	return s.setHMM(h)
}

func (s *TaggingService) setHMM(h *tagger.HMM) error {
	dec, err := h.NewDecoder(s.logger)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	s.mu.Lock()
	s.hmm = h
	s.decoder = dec
	s.mu.Unlock()
	return nil
}

func (s *TaggingService) languageModel() (*ngram.ConditionalModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.language == nil {
		return nil, ErrNoLanguageModel
	}
	return s.language, nil
}

func (s *TaggingService) currentDecoder() (*tagger.Decoder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.decoder == nil {
		return nil, ErrNoTagger
	}
	return s.decoder, nil
}

// ProbabilityTable materializes the observed cells of the named model
func (s *TaggingService) ProbabilityTable(name string) (*ngram.ProbabilityTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch name {
	case LanguageModelName:
		if s.language == nil {
			return nil, ErrNoLanguageModel
		}
		return s.language.Table(), nil
	case TransitionModelName, EmissionModelName:
		if s.hmm == nil {
			return nil, ErrNoTagger
		}
		if name == TransitionModelName {
			return s.hmm.Transition.Table(), nil
		}
		return s.hmm.Emission.Table(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Probability returns P(symbol | context) under the language model
func (s *TaggingService) Probability(history []string, symbol string) (float64, error) {
	lm, err := s.languageModel()
	if err != nil {
		return 0, err
	}
	return lm.Probability(history, symbol), nil
}

// SequenceScore is the language model's view of one sentence
type SequenceScore struct {
	Tokens         []string `json:"tokens"`
	Probability    float64  `json:"probability"`
	LogProbability float64  `json:"log_probability"`
	Perplexity     float64  `json:"perplexity"`
}

// ScoreSequence wraps tokens in Start/Stop and scores every window
func (s *TaggingService) ScoreSequence(tokens []string) (*SequenceScore, error) {
	lm, err := s.languageModel()
	if err != nil {
		return nil, err
	}
	sentence := model.NewSentence(tokens)
	return &SequenceScore{
		Tokens:         tokens,
		Probability:    lm.SequenceProbability(sentence),
		LogProbability: lm.LogProbability(sentence),
		Perplexity:     lm.Perplexity(sentence),
	}, nil
}

// ScoredPermutations ranks all orderings of words by language model probability
func (s *TaggingService) ScoredPermutations(words []string, limit int) ([]ngram.ScoredSequence, error) {
	lm, err := s.languageModel()
	if err != nil {
		return nil, err
	}
	return lm.ScoredPermutations(words, limit)
}

// MostCommon returns the m most frequent order-n n-grams of the language model
func (s *TaggingService) MostCommon(m int) ([]ngram.NGramWithCount, int64, error) {
	lm, err := s.languageModel()
	if err != nil {
		return nil, 0, err
	}
	return lm.Counts().MostCommon(m), lm.Counts().Total(), nil
}

// Tag decodes one sentence. Words may or may not carry Start/Stop markers.
func (s *TaggingService) Tag(ctx context.Context, words []string) (*tagger.Result, error) {
	dec, err := s.currentDecoder()
	if err != nil {
		return nil, err
	}
	if s.cfg.App.SentenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.App.SentenceTimeout)
		defer cancel()
	}
	return dec.Tag(ctx, words)
}

// TagBatch decodes sentences on the configured worker pool, results in input order
func (s *TaggingService) TagBatch(ctx context.Context, sentences [][]string, onProgress func()) ([]tagger.BatchResult, tagger.BatchSummary, error) {
	dec, err := s.currentDecoder()
	if err != nil {
		return nil, tagger.BatchSummary{}, err
	}
	var opts []tagger.BatchOption
	if onProgress != nil {
		opts = append(opts, tagger.WithProgress(onProgress))
	}
	bt := tagger.NewBatchTagger(dec, s.cfg.App.Workers, s.cfg.App.SentenceTimeout, s.logger, opts...)
	results, summary := bt.TagAll(ctx, sentences)
	return results, summary, nil
}

// Evaluation bundles an evaluation report with the predictions it was computed from
type Evaluation struct {
	Report    eval.Report         `json:"report"`
	Summary   tagger.BatchSummary `json:"summary"`
	Predicted [][]string          `json:"-"`
	Unknown   int                 `json:"unknown_words"`
}

// Evaluate tags the words of a gold corpus and scores the predictions
func (s *TaggingService) Evaluate(ctx context.Context, corpus []model.TaggedSentence, onProgress func()) (*Evaluation, error) {
	words := make([][]string, len(corpus))
	gold := make([][]string, len(corpus))
	for i, ts := range corpus {
		words[i] = ts.Words
		gold[i] = ts.Tags
	}

	results, summary, err := s.TagBatch(ctx, words, onProgress)
	if err != nil {
		return nil, err
	}
	predicted := make([][]string, len(results))
	for i, r := range results {
		if r.Err == nil {
			predicted[i] = r.Result.Tags
		}
	}

	report, err := eval.Evaluate(predicted, gold, eval.Options{MaxSentenceLength: s.cfg.Evaluation.MaxSentenceLength})
	if err != nil {
		return nil, err
	}

	unknown := 0
	s.mu.RLock()
	if s.hmm != nil {
		for _, w := range words {
			unknown += len(s.hmm.Words.Unknown(w))
		}
	}
	s.mu.RUnlock()

	s.logger.Info("Evaluation complete",
		zap.Float64("accuracy", report.Accuracy),
		zap.Float64("average_overlap", report.AverageOverlap),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("excluded", report.Excluded),
		zap.Int("filtered", report.Filtered),
		zap.Int("unknown_words", unknown))

	return &Evaluation{Report: report, Summary: summary, Predicted: predicted, Unknown: unknown}, nil
}

// ServiceStats describes the loaded models
type ServiceStats struct {
	Language   *ngram.ModelStats `json:"language,omitempty"`
	Transition *ngram.ModelStats `json:"transition,omitempty"`
	Emission   *ngram.ModelStats `json:"emission,omitempty"`
	States     []string          `json:"states,omitempty"`
	Words      int               `json:"words,omitempty"`
}

// Stats returns statistics about whatever models are loaded
func (s *TaggingService) Stats() ServiceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats ServiceStats
	if s.language != nil {
		ls := s.language.Stats()
		stats.Language = &ls
	}
	if s.hmm != nil {
		ts := s.hmm.Transition.Stats()
		es := s.hmm.Emission.Stats()
		stats.Transition = &ts
		stats.Emission = &es
		stats.Words = s.hmm.Words.Len()
	}
	if s.decoder != nil {
		stats.States = s.decoder.States()
	}
	return stats
}

// SaveModels persists every loaded model
func (s *TaggingService) SaveModels() error {
	if s.store == nil {
		return errors.New("no model store configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.language != nil {
		if _, err := s.store.Save(LanguageModelName, s.language); err != nil {
			return err
		}
	}
	if s.hmm != nil {
		if _, err := s.store.Save(TransitionModelName, s.hmm.Transition); err != nil {
			return err
		}
		if _, err := s.store.Save(EmissionModelName, s.hmm.Emission); err != nil {
			return err
		}
	}
	return nil
}

// LoadModels restores whichever models exist in the store
func (s *TaggingService) LoadModels() error {
	if s.store == nil {
		return errors.New("no model store configured")
	}
	loaded := 0
	if s.store.ModelExists(LanguageModelName) {
		lm, err := s.store.Load(LanguageModelName)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.language = lm
		s.mu.Unlock()
		loaded++
	}
	if s.store.ModelExists(TransitionModelName) && s.store.ModelExists(EmissionModelName) {
		transition, err := s.store.Load(TransitionModelName)
		if err != nil {
			return err
		}
		emission, err := s.store.Load(EmissionModelName)
		if err != nil {
			return err
		}
		h, err := tagger.FromModels(transition, emission, s.cfg.Lexicon.FalsePositiveRate)
		if err != nil {
			return err
		}
		if err := s.setHMM(h); err != nil {
			return err
		}
		loaded++
	}
	if loaded == 0 {
		return errors.New("no saved models found")
	}
	return nil
}
