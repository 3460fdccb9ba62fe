package ngram

import (
	"fmt"
	"math"
)

// Policy names a smoothing strategy
type Policy string

const (
	PolicyNone       Policy = "none"
	PolicyAddOne     Policy = "add_one"
	PolicyGoodTuring Policy = "good_turing"
)

// SmoothingConfig selects a policy and carries the parameters it needs.
// K is read only by good_turing.
type SmoothingConfig struct {
	Policy           Policy           `yaml:"smoothing" json:"smoothing"`
	K                int              `yaml:"k" json:"k"`
	VocabularySource VocabularySource `yaml:"vocabulary_size_source" json:"vocabulary_size_source"`
}

// Validate reports configuration errors before any table is built
func (c SmoothingConfig) Validate() error {
	switch c.Policy {
	case PolicyNone, PolicyAddOne:
	case PolicyGoodTuring:
		if c.K < 1 {
			return configErrorf("smoothing config", ErrInvalidCutoff, "k=%d", c.K)
		}
	default:
		return configErrorf("smoothing config", ErrUnknownSmoothing, "%q", c.Policy)
	}
	if !c.VocabularySource.Valid() {
		return configErrorf("smoothing config", ErrVocabularySource, "%q", c.VocabularySource)
	}
	return nil
}

// Smoother defines the interface for n-gram probability smoothing algorithms
type Smoother interface {
	// Smooth computes P(symbol | context)
	// ngramCount: count of the full n-gram, 0 when unseen
	// contextCount: count of the context (n-1 gram), 0 when the context is unseen
	Smooth(ngramCount, contextCount int64) float64

	// Name returns the name of the smoothing algorithm
	Name() string
}

// NewSmoother builds the estimator for a policy. counts is the order-n table
// the estimator is applied to; Good-Turing derives its Nc table from it once.
func NewSmoother(cfg SmoothingConfig, counts *CountTable, vocabularySize int) (Smoother, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Policy {
	case PolicyNone:
		return NewMLESmoother(), nil
	case PolicyAddOne:
		return NewAddOneSmoother(vocabularySize)
	case PolicyGoodTuring:
		return NewGoodTuringSmoother(counts, vocabularySize, cfg.K)
	}
	return nil, configErrorf("smoothing", ErrUnknownSmoothing, "%q", cfg.Policy)
}

// MLESmoother is the unsmoothed relative frequency estimator
type MLESmoother struct{}

// NewMLESmoother creates a maximum-likelihood estimator
func NewMLESmoother() *MLESmoother {
	return &MLESmoother{}
}

func (s *MLESmoother) Smooth(ngramCount, contextCount int64) float64 {
	if contextCount <= 0 {
		// unseen context is a dead path, not an error
		return 0
	}
	return clampProbability(float64(ngramCount) / float64(contextCount))
}

func (s *MLESmoother) Name() string {
	return string(PolicyNone)
}

// AddOneSmoother implements Laplace smoothing
type AddOneSmoother struct {
	vocabularySize int
}

// NewAddOneSmoother creates a Laplace smoother over a vocabulary of size v
func NewAddOneSmoother(v int) (*AddOneSmoother, error) {
	if v < 1 {
		return nil, configErrorf("add-one smoother", ErrVocabularySource, "vocabulary size %d", v)
	}
	return &AddOneSmoother{vocabularySize: v}, nil
}

func (s *AddOneSmoother) Smooth(ngramCount, contextCount int64) float64 {
	numerator := float64(ngramCount) + 1
	denominator := float64(contextCount) + float64(s.vocabularySize)
	return clampProbability(numerator / denominator)
}

func (s *AddOneSmoother) Name() string {
	return string(PolicyAddOne)
}

// VocabularySize returns V
func (s *AddOneSmoother) VocabularySize() int {
	return s.vocabularySize
}

// GoodTuringSmoother discounts counts up to k with the Katz-corrected
// Good-Turing estimate. Counts above k are left untouched, as is any r whose
// corrected estimate comes out negative.
type GoodTuringSmoother struct {
	k         int64
	nc        FreqOfFreqs
	unseen    float64           // N0, possible but unseen n-grams
	adjusted  map[int64]float64 // r -> c*(r) for r in 0..k
	fallbacks []int64           // r values kept at c*(r) = r
}

// NewGoodTuringSmoother builds the adjusted count table once for the whole corpus
func NewGoodTuringSmoother(counts *CountTable, vocabularySize int, k int) (*GoodTuringSmoother, error) {
	const op = "good-turing smoother"
	if k < 1 {
		return nil, configErrorf(op, ErrInvalidCutoff, "k=%d", k)
	}
	if counts == nil || counts.Order() < 1 {
		return nil, configErrorf(op, ErrInvalidOrder, "")
	}

	nc := FrequencyOfFrequencies(counts)
	kk := int64(k)
	if err := nc.CheckCoverage(kk + 1); err != nil {
		return nil, configErrorf(op, err, "k=%d", k)
	}

	possible := math.Pow(float64(vocabularySize), float64(counts.Order()))
	unseen := possible - float64(nc.Observed())
	if unseen <= 0 {
		return nil, configErrorf(op, ErrNoUnseenMass, "V=%d order=%d observed=%d", vocabularySize, counts.Order(), nc.Observed())
	}

	n1 := float64(nc.Get(1))
	common := float64(kk+1) * float64(nc.Get(kk+1)) / n1
	denominator := 1 - common
	if math.Abs(denominator) < 1e-12 {
		return nil, configErrorf(op, ErrDegenerateDiscount, "(k+1)N[k+1]/N[1]=%g", common)
	}

	adjusted := make(map[int64]float64, k+1)
	adjusted[0] = n1 / unseen
	var fallbacks []int64
	for r := int64(1); r <= kk; r++ {
		turing := float64(r+1) * float64(nc.Get(r+1)) / float64(nc.Get(r))
		cStar := (turing - float64(r)*common) / denominator
		if cStar < 0 {
			// negative estimate, keep the raw count
			cStar = float64(r)
			fallbacks = append(fallbacks, r)
		}
		adjusted[r] = cStar
	}

	return &GoodTuringSmoother{
		k:         kk,
		nc:        nc,
		unseen:    unseen,
		adjusted:  adjusted,
		fallbacks: fallbacks,
	}, nil
}

// Fallbacks returns the counts r <= k whose Katz estimate was negative and
// were left undiscounted, ascending.
func (s *GoodTuringSmoother) Fallbacks() []int64 {
	out := make([]int64, len(s.fallbacks))
	copy(out, s.fallbacks)
	return out
}

// AdjustedCount returns c*(r)
func (s *GoodTuringSmoother) AdjustedCount(r int64) float64 {
	if r > s.k {
		return float64(r)
	}
	if r < 0 {
		return 0
	}
	return s.adjusted[r]
}

// Unseen returns N0
func (s *GoodTuringSmoother) Unseen() float64 {
	return s.unseen
}

// FrequencyOfFrequencies returns the Nc table the smoother was built from
func (s *GoodTuringSmoother) FrequencyOfFrequencies() FreqOfFreqs {
	return s.nc
}

func (s *GoodTuringSmoother) Smooth(ngramCount, contextCount int64) float64 {
	if contextCount <= 0 {
		return 0
	}
	return clampProbability(s.AdjustedCount(ngramCount) / float64(contextCount))
}

func (s *GoodTuringSmoother) Name() string {
	return fmt.Sprintf("%s(k=%d)", PolicyGoodTuring, s.k)
}

func clampProbability(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
