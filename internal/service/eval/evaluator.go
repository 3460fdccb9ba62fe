package eval

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Options controls which sentences are scored
type Options struct {
	// MaxSentenceLength keeps only gold sentences shorter than this; 0 scores all
	MaxSentenceLength int
}

// Report aggregates tagging quality over the sentences that produced a tagging
type Report struct {
	Accuracy       float64 `json:"accuracy"`        // token-level, percent
	AverageOverlap float64 `json:"average_overlap"` // mean per-sentence overlap, percent
	ExactMatch     float64 `json:"exact_match"`     // sentences tagged entirely right, percent
	CorrectTokens  int     `json:"correct_tokens"`
	ComparedTokens int     `json:"compared_tokens"`
	Evaluated      int     `json:"evaluated"`
	Excluded       int     `json:"excluded"` // no tagging found
	Filtered       int     `json:"filtered"` // at or over MaxSentenceLength
}

func (r Report) String() string {
	return fmt.Sprintf("accuracy %.2f%% (%d/%d tokens), overlap %.2f%%, exact %.2f%%, evaluated %d, excluded %d, filtered %d",
		r.Accuracy, r.CorrectTokens, r.ComparedTokens, r.AverageOverlap, r.ExactMatch, r.Evaluated, r.Excluded, r.Filtered)
}

// Evaluate compares predicted tag sequences with gold ones. A nil prediction
// marks a sentence without tagging; it is excluded from every statistic and counted.
func Evaluate(predicted, gold [][]string, opts Options) (Report, error) {
	if len(predicted) != len(gold) {
		return Report{}, fmt.Errorf("predicted and gold sentence counts differ: %d vs %d", len(predicted), len(gold))
	}

	var report Report
	var overlapSum float64
	var exact int
	for i, g := range gold {
		if opts.MaxSentenceLength > 0 && len(g) >= opts.MaxSentenceLength {
			report.Filtered++
			continue
		}
		p := predicted[i]
		if p == nil {
			report.Excluded++
			continue
		}
		report.Evaluated++

		correct := CorrectTags(p, g)
		report.CorrectTokens += correct
		report.ComparedTokens += len(g)
		if correct == len(g) && len(p) == len(g) {
			exact++
		}
		overlapSum += Overlap(p, g)
	}

	if report.ComparedTokens > 0 {
		report.Accuracy = 100 * float64(report.CorrectTokens) / float64(report.ComparedTokens)
	}
	if report.Evaluated > 0 {
		report.AverageOverlap = overlapSum / float64(report.Evaluated)
		report.ExactMatch = 100 * float64(exact) / float64(report.Evaluated)
	}
	return report, nil
}

// CorrectTags counts positions where predicted and gold agree
func CorrectTags(predicted, gold []string) int {
	n := len(predicted)
	if len(gold) < n {
		n = len(gold)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if predicted[i] == gold[i] {
			correct++
		}
	}
	return correct
}

// Overlap is the set-based similarity of two tag sequences, in percent:
// (len(gold) - |symmetric difference| / 2) / len(gold) * 100.
// An empty gold sequence scores 100 only against an empty prediction.
func Overlap(predicted, gold []string) float64 {
	if len(gold) == 0 {
		if len(predicted) == 0 {
			return 100
		}
		return 0
	}
	ps := toSet(predicted)
	gs := toSet(gold)
	diff := 0
	for tag := range ps {
		if _, ok := gs[tag]; !ok {
			diff++
		}
	}
	for tag := range gs {
		if _, ok := ps[tag]; !ok {
			diff++
		}
	}
	same := float64(len(gold)) - float64(diff)/2
	return same / float64(len(gold)) * 100
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// WriteDump writes each tagged sentence as a tokens line, a tags line and a
// blank line. Untagged sentences and those not shorter than opts.MaxSentenceLength are skipped.
func WriteDump(w io.Writer, inputs, predicted [][]string, opts Options) error {
	if len(inputs) != len(predicted) {
		return fmt.Errorf("input and predicted sentence counts differ: %d vs %d", len(inputs), len(predicted))
	}
	bw := bufio.NewWriter(w)
	for i, tokens := range inputs {
		if predicted[i] == nil {
			continue
		}
		if opts.MaxSentenceLength > 0 && len(tokens) >= opts.MaxSentenceLength {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s\n%s\n\n", strings.Join(tokens, " "), strings.Join(predicted[i], " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}
