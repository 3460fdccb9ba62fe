package eval

import (
	"bytes"
	"math"
	"testing"
)

func TestEvaluate_Accuracy(t *testing.T) {
	gold := [][]string{
		{"D", "N", "V"},
		{"D", "N"},
	}
	predicted := [][]string{
		{"D", "N", "N"},
		{"D", "N"},
	}

	report, err := Evaluate(predicted, gold, Options{})
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}
	if report.CorrectTokens != 4 || report.ComparedTokens != 5 {
		t.Fatalf("Expected 4/5 tokens, got %d/%d", report.CorrectTokens, report.ComparedTokens)
	}
	if math.Abs(report.Accuracy-80) > 1e-9 {
		t.Fatalf("Expected 80%% accuracy, got %f", report.Accuracy)
	}
	if math.Abs(report.ExactMatch-50) > 1e-9 {
		t.Fatalf("Expected 50%% exact match, got %f", report.ExactMatch)
	}
	// First sentence: sets {D,N} vs {D,N,V}, difference 1 -> (3-0.5)/3
	wantOverlap := ((3-0.5)/3*100 + 100) / 2
	if math.Abs(report.AverageOverlap-wantOverlap) > 1e-9 {
		t.Fatalf("Expected overlap %f, got %f", wantOverlap, report.AverageOverlap)
	}
	if report.Evaluated != 2 {
		t.Fatalf("Expected 2 evaluated sentences, got %d", report.Evaluated)
	}
}

func TestEvaluate_ExcludesUntagged(t *testing.T) {
	gold := [][]string{{"D", "N"}, {"V"}}
	predicted := [][]string{{"D", "N"}, nil}

	report, err := Evaluate(predicted, gold, Options{})
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}
	if report.Excluded != 1 || report.Evaluated != 1 {
		t.Fatalf("Expected 1 excluded and 1 evaluated, got %+v", report)
	}
	// Untagged sentences do not count as wrong
	if report.Accuracy != 100 {
		t.Fatalf("Expected 100%% accuracy, got %f", report.Accuracy)
	}
}

func TestEvaluate_LengthFilter(t *testing.T) {
	gold := [][]string{{"A"}, {"A", "B", "C"}, {"A", "B"}}
	predicted := [][]string{{"A"}, {"X", "X", "X"}, {"A", "B"}}

	report, err := Evaluate(predicted, gold, Options{MaxSentenceLength: 3})
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}
	if report.Filtered != 1 || report.Evaluated != 2 {
		t.Fatalf("Expected 1 filtered and 2 evaluated, got %+v", report)
	}
	if report.Accuracy != 100 {
		t.Fatalf("Expected the long sentence to be ignored, got %f", report.Accuracy)
	}

	// a sentence exactly at the limit is filtered too
	report, err = Evaluate(predicted, gold, Options{MaxSentenceLength: 2})
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}
	if report.Filtered != 2 || report.Evaluated != 1 {
		t.Fatalf("Expected 2 filtered and 1 evaluated, got %+v", report)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	report, err := Evaluate(nil, nil, Options{})
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}
	if report.Accuracy != 0 || report.Evaluated != 0 {
		t.Fatalf("Expected zero report, got %+v", report)
	}

	if _, err := Evaluate([][]string{{"A"}}, nil, Options{}); err == nil {
		t.Fatalf("Expected error for mismatched lengths")
	}
}

func TestOverlap(t *testing.T) {
	if got := Overlap([]string{"A", "B"}, []string{"A", "C"}); math.Abs(got-50) > 1e-9 {
		t.Fatalf("Expected 50, got %f", got)
	}
	if got := Overlap([]string{"A", "A", "B"}, []string{"A", "B", "B"}); got != 100 {
		t.Fatalf("Expected set overlap to ignore order and repeats, got %f", got)
	}
	if got := Overlap(nil, nil); got != 100 {
		t.Fatalf("Expected 100 for two empty sequences, got %f", got)
	}
	if got := Overlap([]string{"A"}, nil); got != 0 {
		t.Fatalf("Expected 0 against empty gold, got %f", got)
	}
}

func TestCorrectTags(t *testing.T) {
	if got := CorrectTags([]string{"A", "B", "C"}, []string{"A", "X"}); got != 1 {
		t.Fatalf("Expected 1, got %d", got)
	}
}

func TestWriteDump(t *testing.T) {
	inputs := [][]string{{"the", "dog"}, {"fish"}, {"a", "b", "c"}}
	predicted := [][]string{{"D", "N"}, nil, {"X", "Y", "Z"}}

	var buf bytes.Buffer
	if err := WriteDump(&buf, inputs, predicted, Options{MaxSentenceLength: 3}); err != nil {
		t.Fatalf("Failed to write dump: %v", err)
	}
	want := "the dog\nD N\n\n"
	if buf.String() != want {
		t.Fatalf("Expected %q, got %q", want, buf.String())
	}

	if err := WriteDump(&buf, inputs, predicted[:1], Options{}); err == nil {
		t.Fatalf("Expected error for mismatched lengths")
	}
}
