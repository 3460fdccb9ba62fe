package tagger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	model "postag-go/internal/model/ngram"
	"postag-go/internal/service/ngram"

	"go.uber.org/zap"
)

// ErrNoTagging means the model admits no tag sequence for the sentence
var ErrNoTagging = errors.New("no viable tagging")

// NoTaggingError locates where decoding collapsed. It matches ErrNoTagging.
type NoTaggingError struct {
	Position int    // 1-based word position, 0 for an empty sentence
	Word     string // word at Position
	Unknown  bool   // word was certainly never seen in training
}

func (e *NoTaggingError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("%v: empty sentence", ErrNoTagging)
	}
	if e.Unknown {
		return fmt.Sprintf("%v: dead path at position %d, unknown word %q", ErrNoTagging, e.Position, e.Word)
	}
	return fmt.Sprintf("%v: dead path at position %d (%q)", ErrNoTagging, e.Position, e.Word)
}

func (e *NoTaggingError) Is(target error) bool {
	return target == ErrNoTagging
}

// Result is the most likely tag sequence and its joint probability
type Result struct {
	Tags           []string `json:"tags"`
	Probability    float64  `json:"probability"`
	LogProbability float64  `json:"log_probability"`
}

// Option configures a Decoder
type Option func(*Decoder)

// WithLexicon lets the decoder tell unknown words apart from improbable ones
func WithLexicon(lex *ngram.Lexicon) Option {
	return func(d *Decoder) { d.lexicon = lex }
}

// WithStates overrides the state set derived from the transition model
func WithStates(states []string) Option {
	return func(d *Decoder) {
		d.states = normalizeStates(states)
	}
}

// Decoder runs Viterbi over an immutable transition and emission model. It is
// safe for concurrent use; every Tag call owns its own score table.
type Decoder struct {
	transition ngram.Model
	emission   ngram.Model
	states     []string    // sorted; index order is the tie-break order
	logStart   []float64   // log T(Start, s)
	logTrans   [][]float64 // [from][to] log T(from, to)
	lexicon    *ngram.Lexicon
	logger     *zap.Logger
}

// NewDecoder derives the state set from the transition contexts and caches
// the log transition matrix.
func NewDecoder(transition ngram.ContextModel, emission ngram.Model, logger *zap.Logger, opts ...Option) (*Decoder, error) {
	d := &Decoder{
		transition: transition,
		emission:   emission,
		states:     StateSet(transition),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	if len(d.states) == 0 {
		return nil, fmt.Errorf("transition model has no states")
	}

	n := len(d.states)
	d.logStart = make([]float64, n)
	d.logTrans = make([][]float64, n)
	for i, from := range d.states {
		d.logStart[i] = logProb(transition.Probability([]string{model.Start}, from))
		d.logTrans[i] = make([]float64, n)
		for j, to := range d.states {
			d.logTrans[i][j] = logProb(transition.Probability([]string{from}, to))
		}
	}

	logger.Debug("Created Viterbi decoder", zap.Int("states", n))
	return d, nil
}

// StateSet returns the distinct tags used as transition contexts, without
// the boundary markers, in lexicographic order.
func StateSet(transition ngram.ContextModel) []string {
	var states []string
	for _, ctx := range transition.DistinctContexts() {
		if len(ctx) == 0 {
			continue
		}
		states = append(states, ctx.LastToken())
	}
	return normalizeStates(states)
}

func normalizeStates(states []string) []string {
	seen := make(map[string]struct{}, len(states))
	out := make([]string, 0, len(states))
	for _, s := range states {
		if s == model.Start || s == model.Stop {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// States returns the decoder's state set
func (d *Decoder) States() []string {
	out := make([]string, len(d.states))
	copy(out, d.states)
	return out
}

// Tag decodes the most likely tag sequence. Leading Start and trailing Stop
// markers are stripped. A dead path returns an error matching ErrNoTagging;
// ctx bounds the run.
func (d *Decoder) Tag(ctx context.Context, sentence []string) (*Result, error) {
	words := model.Sentence(sentence).Content()
	if len(words) == 0 {
		return nil, &NoTaggingError{}
	}

	n := len(d.states)
	m := len(words)
	score := make([][]float64, m)
	back := make([][]int, m)
	emit := make([]float64, n)

	d.emissions(words[0], emit)
	score[0] = make([]float64, n)
	back[0] = make([]int, n)
	for j := range d.states {
		score[0][j] = d.logStart[j] + emit[j]
		back[0][j] = -1
	}
	if dead(score[0]) {
		return nil, d.deadPath(1, words[0])
	}

	for t := 1; t < m; t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("decoding interrupted at position %d: %w", t+1, err)
		}
		d.emissions(words[t], emit)
		prev := score[t-1]
		score[t] = make([]float64, n)
		back[t] = make([]int, n)
		for j := range d.states {
			score[t][j] = math.Inf(-1)
			back[t][j] = -1
			if math.IsInf(emit[j], -1) {
				continue
			}
			best := math.Inf(-1)
			arg := -1
			for i := range d.states {
				if math.IsInf(prev[i], -1) {
					continue
				}
				v := prev[i] + d.logTrans[i][j]
				if v > best {
					best = v
					arg = i
				}
			}
			if arg >= 0 {
				score[t][j] = best + emit[j]
				back[t][j] = arg
			}
		}
		if dead(score[t]) {
			return nil, d.deadPath(t+1, words[t])
		}
	}

	last := score[m-1]
	best, arg := math.Inf(-1), -1
	for j, v := range last {
		if v > best {
			best = v
			arg = j
		}
	}
	if arg < 0 {
		return nil, d.deadPath(m, words[m-1])
	}

	tags := make([]string, m)
	for t := m - 1; t >= 0; t-- {
		tags[t] = d.states[arg]
		arg = back[t][arg]
	}

	return &Result{
		Tags:           tags,
		Probability:    math.Exp(best),
		LogProbability: best,
	}, nil
}

func (d *Decoder) emissions(word string, out []float64) {
	for j, s := range d.states {
		out[j] = logProb(d.emission.Probability([]string{s}, word))
	}
}

func (d *Decoder) deadPath(position int, word string) error {
	err := &NoTaggingError{Position: position, Word: word}
	if d.lexicon != nil {
		err.Unknown = !d.lexicon.Contains(word)
	}
	return err
}

func dead(scores []float64) bool {
	for _, v := range scores {
		if !math.IsInf(v, -1) {
			return false
		}
	}
	return true
}

func logProb(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return math.Log(p)
}
