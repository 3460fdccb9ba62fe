package ngram

import "strings"

// Reserved boundary tokens. Every sentence starts with Start and ends with Stop,
// and both are counted like any other token.
const (
	Start = "0START0"
	Stop  = "0STOP0"
)

// keySep joins tokens into map keys. Whitespace-tokenized input never contains it.
const keySep = "\x1f"

// Sentence is an ordered sequence of tokens bounded by Start and Stop
type Sentence []string

// NewSentence wraps tokens in the Start and Stop markers
func NewSentence(tokens []string) Sentence {
	s := make(Sentence, 0, len(tokens)+2)
	s = append(s, Start)
	s = append(s, tokens...)
	s = append(s, Stop)
	return s
}

// Bounded reports whether the sentence starts with Start and ends with Stop
func (s Sentence) Bounded() bool {
	return len(s) >= 2 && s[0] == Start && s[len(s)-1] == Stop
}

// Content returns the tokens between the boundary markers. Markers that are
// absent are not stripped.
func (s Sentence) Content() []string {
	tokens := []string(s)
	if len(tokens) > 0 && tokens[0] == Start {
		tokens = tokens[1:]
	}
	if len(tokens) > 0 && tokens[len(tokens)-1] == Stop {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// Windows returns every contiguous n-gram of length n inside the sentence.
// Nothing is returned for n < 1 or when the sentence is shorter than n.
func (s Sentence) Windows(n int) []NGram {
	if n < 1 || len(s) < n {
		return nil
	}
	result := make([]NGram, 0, len(s)-n+1)
	for i := 0; i <= len(s)-n; i++ {
		ng := make(NGram, n)
		copy(ng, s[i:i+n])
		result = append(result, ng)
	}
	return result
}

// TaggedSentence pairs observed words with their gold tags. Neither slice
// carries boundary markers.
type TaggedSentence struct {
	Words []string
	Tags  []string
}

// Len returns the number of word/tag pairs
func (ts TaggedSentence) Len() int {
	return len(ts.Words)
}

// NGram represents an n-gram (sequence of n tokens)
type NGram []string

// String returns the n-gram as a space-separated string
func (ng NGram) String() string {
	return strings.Join(ng, " ")
}

// Key returns an unambiguous map key for the n-gram
func (ng NGram) Key() string {
	return strings.Join(ng, keySep)
}

// FromKey reverses Key
func FromKey(key string) NGram {
	if key == "" {
		return NGram{}
	}
	return NGram(strings.Split(key, keySep))
}

// Context returns the context (all tokens except the last one)
func (ng NGram) Context() NGram {
	if len(ng) <= 1 {
		return NGram{}
	}
	return ng[:len(ng)-1]
}

// LastToken returns the last token in the n-gram
func (ng NGram) LastToken() string {
	if len(ng) == 0 {
		return ""
	}
	return ng[len(ng)-1]
}

// Equal reports whether both n-grams hold the same tokens in the same order
func (ng NGram) Equal(other NGram) bool {
	if len(ng) != len(other) {
		return false
	}
	for i := range ng {
		if ng[i] != other[i] {
			return false
		}
	}
	return true
}
