package ngram

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

const epsilon = 1e-9

// unigramTable builds an order-1 table with the given number of keys per count value
func unigramTable(t *testing.T, perCount map[int64]int) *CountTable {
	t.Helper()
	counts := make(map[string]int64)
	for c, n := range perCount {
		for i := 0; i < n; i++ {
			counts[fmt.Sprintf("w%d_%d", c, i)] = c
		}
	}
	table, err := TableFromCounts(1, counts)
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}
	return table
}

func TestFrequencyOfFrequencies(t *testing.T) {
	table := unigramTable(t, map[int64]int{1: 10, 2: 4, 3: 1})
	nc := FrequencyOfFrequencies(table)

	if nc.Get(1) != 10 || nc.Get(2) != 4 || nc.Get(3) != 1 {
		t.Fatalf("Unexpected Nc table: %v", nc)
	}
	if nc.Get(4) != 0 {
		t.Fatalf("Expected N[4]=0, got %d", nc.Get(4))
	}
	if nc.Observed() != 15 {
		t.Fatalf("Expected 15 observed n-grams, got %d", nc.Observed())
	}
	counts := nc.Counts()
	if len(counts) != 3 || counts[0] != 1 || counts[2] != 3 {
		t.Fatalf("Expected ascending counts [1 2 3], got %v", counts)
	}
	if err := nc.CheckCoverage(3); err != nil {
		t.Fatalf("Expected coverage up to 3, got %v", err)
	}
	if err := nc.CheckCoverage(4); !errors.Is(err, ErrFrequencyGap) {
		t.Fatalf("Expected frequency gap, got %v", err)
	}
}

func TestMLESmoother(t *testing.T) {
	s := NewMLESmoother()
	if p := s.Smooth(1, 4); math.Abs(p-0.25) > epsilon {
		t.Fatalf("Expected 0.25, got %f", p)
	}
	if p := s.Smooth(0, 4); p != 0 {
		t.Fatalf("Expected 0 for unseen n-gram, got %f", p)
	}
	if p := s.Smooth(0, 0); p != 0 {
		t.Fatalf("Expected 0 for unseen context, got %f", p)
	}
}

func TestAddOneSmoother(t *testing.T) {
	s, err := NewAddOneSmoother(10)
	if err != nil {
		t.Fatalf("Failed to create smoother: %v", err)
	}

	if p := s.Smooth(2, 5); math.Abs(p-3.0/15.0) > epsilon {
		t.Fatalf("Expected 0.2, got %f", p)
	}

	// Every estimate is strictly positive and at most one
	for _, tc := range [][2]int64{{0, 0}, {0, 100}, {5, 5}, {100, 100}} {
		p := s.Smooth(tc[0], tc[1])
		if p <= 0 || p > 1 {
			t.Fatalf("Smooth(%d, %d)=%f outside (0, 1]", tc[0], tc[1], p)
		}
	}

	if _, err := NewAddOneSmoother(0); !IsConfigError(err) {
		t.Fatalf("Expected config error for V=0, got %v", err)
	}
}

func TestGoodTuringSmoother_AdjustedCounts(t *testing.T) {
	table := unigramTable(t, map[int64]int{1: 10, 2: 4, 3: 1})
	s, err := NewGoodTuringSmoother(table, 100, 2)
	if err != nil {
		t.Fatalf("Failed to create smoother: %v", err)
	}

	// N0 = V^1 - observed
	if math.Abs(s.Unseen()-85) > epsilon {
		t.Fatalf("Expected N0=85, got %f", s.Unseen())
	}
	if got := s.AdjustedCount(0); math.Abs(got-10.0/85.0) > epsilon {
		t.Fatalf("Expected c*(0)=N1/N0, got %f", got)
	}

	// common = 3*N3/N1 = 0.3
	want1 := (2.0*4.0/10.0 - 0.3) / 0.7
	if got := s.AdjustedCount(1); math.Abs(got-want1) > epsilon {
		t.Fatalf("Expected c*(1)=%f, got %f", want1, got)
	}
	want2 := (3.0*1.0/4.0 - 2*0.3) / 0.7
	if got := s.AdjustedCount(2); math.Abs(got-want2) > epsilon {
		t.Fatalf("Expected c*(2)=%f, got %f", want2, got)
	}

	// Above the cutoff counts are left alone
	for r := int64(3); r < 10; r++ {
		if got := s.AdjustedCount(r); got != float64(r) {
			t.Fatalf("Expected c*(%d)=%d, got %f", r, r, got)
		}
	}

	// Discounting never inflates a seen count
	for r := int64(1); r <= 2; r++ {
		if s.AdjustedCount(r) > float64(r) {
			t.Fatalf("Expected c*(%d) <= %d, got %f", r, r, s.AdjustedCount(r))
		}
	}

	if s.Name() != "good_turing(k=2)" {
		t.Fatalf("Unexpected name %s", s.Name())
	}
}

func TestGoodTuringSmoother_Smooth(t *testing.T) {
	table := unigramTable(t, map[int64]int{1: 10, 2: 4, 3: 1})
	s, err := NewGoodTuringSmoother(table, 100, 2)
	if err != nil {
		t.Fatalf("Failed to create smoother: %v", err)
	}

	if p := s.Smooth(0, 21); math.Abs(p-(10.0/85.0)/21.0) > epsilon {
		t.Fatalf("Unexpected unseen probability %f", p)
	}
	if p := s.Smooth(3, 21); math.Abs(p-3.0/21.0) > epsilon {
		t.Fatalf("Expected undiscounted 3/21, got %f", p)
	}
	if p := s.Smooth(1, 0); p != 0 {
		t.Fatalf("Expected 0 for unseen context, got %f", p)
	}
	// Clamped to a probability
	if p := s.Smooth(7, 1); p != 1 {
		t.Fatalf("Expected clamp to 1, got %f", p)
	}
}

func TestGoodTuringSmoother_ConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		perCount map[int64]int
		v        int
		k        int
		want     error
	}{
		{"zero cutoff", map[int64]int{1: 3, 2: 1}, 100, 0, ErrInvalidCutoff},
		{"no singletons", map[int64]int{2: 3, 3: 1}, 100, 1, ErrMissingSingletons},
		{"gap below cutoff", map[int64]int{1: 3, 3: 1}, 100, 2, ErrFrequencyGap},
		{"gap at k+1", map[int64]int{1: 3}, 100, 1, ErrFrequencyGap},
		{"no unseen mass", map[int64]int{1: 3, 2: 1}, 2, 1, ErrNoUnseenMass},
		{"degenerate discount", map[int64]int{1: 2, 2: 1}, 100, 1, ErrDegenerateDiscount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table := unigramTable(t, tc.perCount)
			_, err := NewGoodTuringSmoother(table, tc.v, tc.k)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
			if !IsConfigError(err) {
				t.Fatalf("Expected a ConfigError, got %T", err)
			}
		})
	}
}

func TestGoodTuringSmoother_NegativeEstimateKeepsRawCount(t *testing.T) {
	// common = 3*N3/N1 = 0.6, c*(1) = (2*1/10 - 0.6)/0.4 = -1
	table := unigramTable(t, map[int64]int{1: 10, 2: 1, 3: 2})
	s, err := NewGoodTuringSmoother(table, 100, 2)
	if err != nil {
		t.Fatalf("Expected a usable smoother, got %v", err)
	}

	if c := s.AdjustedCount(1); c != 1 {
		t.Fatalf("Expected c*(1) to fall back to 1, got %f", c)
	}
	// c*(2) = (3*2/1 - 2*0.6)/0.4
	if c := s.AdjustedCount(2); math.Abs(c-12) > epsilon {
		t.Fatalf("Expected c*(2)=12, got %f", c)
	}
	if c := s.AdjustedCount(0); math.Abs(c-10.0/87) > epsilon {
		t.Fatalf("Expected c*(0)=10/87, got %f", c)
	}
	fallbacks := s.Fallbacks()
	if len(fallbacks) != 1 || fallbacks[0] != 1 {
		t.Fatalf("Expected fallbacks [1], got %v", fallbacks)
	}
	if p := s.Smooth(1, 4); math.Abs(p-0.25) > epsilon {
		t.Fatalf("Expected P=1/4 for a fallback count, got %f", p)
	}

	clean := unigramTable(t, map[int64]int{1: 10, 2: 4, 3: 1})
	gt, err := NewGoodTuringSmoother(clean, 100, 2)
	if err != nil {
		t.Fatalf("Failed to create smoother: %v", err)
	}
	if len(gt.Fallbacks()) != 0 {
		t.Fatalf("Expected no fallbacks, got %v", gt.Fallbacks())
	}
}

func TestSmoothingConfig_Validate(t *testing.T) {
	valid := SmoothingConfig{Policy: PolicyGoodTuring, K: 3, VocabularySource: VocabNGramKeys}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	unknown := SmoothingConfig{Policy: "kneser_ney", VocabularySource: VocabTrainingTokens}
	if err := unknown.Validate(); !errors.Is(err, ErrUnknownSmoothing) {
		t.Fatalf("Expected unknown smoothing, got %v", err)
	}

	badSource := SmoothingConfig{Policy: PolicyNone, VocabularySource: "guess"}
	if err := badSource.Validate(); !errors.Is(err, ErrVocabularySource) {
		t.Fatalf("Expected bad vocabulary source, got %v", err)
	}

	// K is ignored by the policies that do not use it
	noK := SmoothingConfig{Policy: PolicyAddOne, VocabularySource: VocabTrainingTokens}
	if err := noK.Validate(); err != nil {
		t.Fatalf("Expected add_one without k to validate, got %v", err)
	}
}

func TestVocabularySize(t *testing.T) {
	corpus := sentences([]string{"a", "b"}, []string{"a", "c"})
	table, err := CountNGrams(corpus, 2)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}

	v, err := VocabularySize(corpus, table, VocabTrainingTokens)
	if err != nil {
		t.Fatalf("Failed to compute V: %v", err)
	}
	if v != 5 {
		t.Fatalf("Expected 5 distinct tokens including markers, got %d", v)
	}

	v, err = VocabularySize(corpus, table, VocabNGramKeys)
	if err != nil {
		t.Fatalf("Failed to compute V: %v", err)
	}
	if v != table.Len() {
		t.Fatalf("Expected V=%d distinct bigrams, got %d", table.Len(), v)
	}

	if _, err := VocabularySize(corpus, table, "other"); !IsConfigError(err) {
		t.Fatalf("Expected config error, got %v", err)
	}
}
