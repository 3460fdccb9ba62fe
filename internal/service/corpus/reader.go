package corpus

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	model "postag-go/internal/model/ngram"
)

var (
	taggedToken = regexp.MustCompile(`^([a-zA-Z]|-|')+/[a-zA-Z]+$`)
	quoteToken  = regexp.MustCompile("``")
)

// sentenceEnd is the period token of the tagged corpus
const sentenceEnd = "./."

// Open opens a corpus file, transparently decompressing gzip input
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open gzip corpus: %w", err)
		}
		return &gzipFile{Reader: gz, file: file}, nil
	}
	return &plainFile{Reader: br, file: file}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

type plainFile struct {
	*bufio.Reader
	file *os.File
}

func (p *plainFile) Close() error {
	return p.file.Close()
}

// ReadParagraphs splits text into sentences at blank lines. Each paragraph's
// whitespace-separated tokens are wrapped in Start and Stop.
func ReadParagraphs(r io.Reader) ([]model.Sentence, error) {
	var sentences []model.Sentence
	var current []string
	flush := func() {
		if len(current) > 0 {
			sentences = append(sentences, model.NewSentence(current))
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	flush()
	return sentences, nil
}

// ReadTagged parses a word/TAG corpus. Sentences end at a "./." token or a
// line of '=' characters; tokens that are not plain word/TAG pairs are dropped.
func ReadTagged(r io.Reader) ([]model.TaggedSentence, error) {
	var sentences []model.TaggedSentence
	var current model.TaggedSentence
	flush := func() {
		if current.Len() > 0 {
			sentences = append(sentences, current)
			current = model.TaggedSentence{}
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			if tok == sentenceEnd || isSeparator(tok) {
				flush()
				continue
			}
			if quoteToken.MatchString(tok) || !taggedToken.MatchString(tok) {
				continue
			}
			slash := strings.LastIndexByte(tok, '/')
			current.Words = append(current.Words, tok[:slash])
			current.Tags = append(current.Tags, tok[slash+1:])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tagged corpus: %w", err)
	}
	flush()
	return sentences, nil
}

func isSeparator(tok string) bool {
	return len(tok) >= 3 && strings.Trim(tok, "=") == ""
}

// Words returns the word sequences of a tagged corpus
func Words(corpus []model.TaggedSentence) [][]string {
	out := make([][]string, len(corpus))
	for i, ts := range corpus {
		out[i] = ts.Words
	}
	return out
}

// Tags returns the gold tag sequences of a tagged corpus
func Tags(corpus []model.TaggedSentence) [][]string {
	out := make([][]string, len(corpus))
	for i, ts := range corpus {
		out[i] = ts.Tags
	}
	return out
}
