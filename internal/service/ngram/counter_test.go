package ngram

import (
	"errors"
	"testing"

	model "postag-go/internal/model/ngram"
)

func sentences(lines ...[]string) []model.Sentence {
	out := make([]model.Sentence, len(lines))
	for i, l := range lines {
		out[i] = model.NewSentence(l)
	}
	return out
}

func TestCountNGrams_TotalMatchesWindows(t *testing.T) {
	corpus := sentences(
		[]string{"the", "dog", "barked"},
		[]string{"the", "cat"},
	)

	for n := 1; n <= 4; n++ {
		table, err := CountNGrams(corpus, n)
		if err != nil {
			t.Fatalf("Failed to count %d-grams: %v", n, err)
		}
		want := int64(0)
		for _, s := range corpus {
			if len(s) >= n {
				want += int64(len(s) - n + 1)
			}
		}
		if table.Total() != want {
			t.Fatalf("n=%d: expected total %d, got %d", n, want, table.Total())
		}
		var sum int64
		table.Each(func(_ model.NGram, c int64) { sum += c })
		if sum != want {
			t.Fatalf("n=%d: expected count sum %d, got %d", n, want, sum)
		}
	}
}

func TestCountNGrams_Counts(t *testing.T) {
	corpus := sentences([]string{"a", "b"}, []string{"a", "c"})

	table, err := CountNGrams(corpus, 2)
	if err != nil {
		t.Fatalf("Failed to count bigrams: %v", err)
	}
	if got := table.Count(model.NGram{model.Start, "a"}); got != 2 {
		t.Fatalf("Expected count 2 for (START, a), got %d", got)
	}
	if got := table.Count(model.NGram{"a", "b"}); got != 1 {
		t.Fatalf("Expected count 1 for (a, b), got %d", got)
	}
	if table.Contains(model.NGram{"b", "a"}) {
		t.Fatalf("Expected (b, a) to be unseen")
	}
	if table.Len() != 5 {
		t.Fatalf("Expected 5 distinct bigrams, got %d", table.Len())
	}

	// Windows never cross sentence boundaries
	if table.Contains(model.NGram{model.Stop, model.Start}) {
		t.Fatalf("Expected no window spanning two sentences")
	}
}

func TestCountNGrams_Orders(t *testing.T) {
	corpus := sentences([]string{"a"})

	empty, err := CountNGrams(corpus, 0)
	if err != nil {
		t.Fatalf("Expected order 0 to succeed, got %v", err)
	}
	if empty.Len() != 0 || empty.Total() != 0 {
		t.Fatalf("Expected empty table for order 0")
	}

	long, err := CountNGrams(corpus, 10)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if long.Len() != 0 {
		t.Fatalf("Expected no windows longer than the sentence, got %d", long.Len())
	}

	_, err = CountNGrams(corpus, -1)
	if !errors.Is(err, ErrInvalidOrder) || !IsConfigError(err) {
		t.Fatalf("Expected invalid order config error, got %v", err)
	}
}

func TestCountTable_MostCommon(t *testing.T) {
	table, err := TableFromCounts(1, map[string]int64{
		"b": 3,
		"a": 3,
		"c": 1,
		"d": 5,
	})
	if err != nil {
		t.Fatalf("Failed to build table: %v", err)
	}

	top := table.MostCommon(3)
	if len(top) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(top))
	}
	expected := []string{"d", "a", "b"}
	for i, e := range top {
		if e.NGram.LastToken() != expected[i] {
			t.Fatalf("Position %d: expected %s, got %s", i, expected[i], e.NGram)
		}
	}
	if all := table.MostCommon(0); len(all) != 4 {
		t.Fatalf("Expected all 4 entries for m=0, got %d", len(all))
	}
	if table.Total() != 12 {
		t.Fatalf("Expected total 12, got %d", table.Total())
	}
}

func TestTableFromNGrams_RejectsWrongLength(t *testing.T) {
	_, err := TableFromNGrams(2, []model.NGram{{"a", "b"}, {"c"}})
	if err == nil {
		t.Fatalf("Expected error for mismatched n-gram length")
	}
}

func TestTableFromCounts_RejectsNonPositive(t *testing.T) {
	_, err := TableFromCounts(1, map[string]int64{"a": 0})
	if err == nil {
		t.Fatalf("Expected error for zero count")
	}
}

func TestCountTable_Tokens(t *testing.T) {
	table, err := CountNGrams(sentences([]string{"b", "a"}), 2)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	tokens := table.Tokens()
	expected := []string{model.Start, model.Stop, "a", "b"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, tokens)
	}
	for i := range expected {
		if tokens[i] != expected[i] {
			t.Fatalf("Expected %v, got %v", expected, tokens)
		}
	}
}
