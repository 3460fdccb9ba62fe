package main

import (
	"fmt"
	"strings"

	model "postag-go/internal/model/ngram"
	"postag-go/internal/service/corpus"
	"postag-go/internal/service/ngram"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
)

var (
	corpusFile string
	testFile   string
	orderN     int
	topM       int
	permWords  string
	permLimit  int
	saveModel  bool
)

func readSentences(path string) ([]model.Sentence, error) {
	f, err := corpus.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return corpus.ReadParagraphs(f)
}

func Count(cmd *commander.Command, args []string) error {
	if corpusFile == "" {
		return fmt.Errorf("missing required flag -corpus")
	}
	if _, err := setup(); err != nil {
		return err
	}

	sentences, err := readSentences(corpusFile)
	if err != nil {
		return err
	}
	counts, err := ngram.CountNGrams(sentences, orderN)
	if err != nil {
		return err
	}
	logger.Info("Counted n-grams",
		zap.Int("sentences", len(sentences)),
		zap.Int("n", orderN),
		zap.Int("distinct", counts.Len()),
		zap.Int64("total", counts.Total()))

	fmt.Printf("total %d-grams: %d\n", orderN, counts.Total())
	for _, nc := range counts.MostCommon(topM) {
		fmt.Printf("%d\t%s\n", nc.Count, nc.NGram)
	}
	return nil
}

func CountCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Count,
		UsageLine: "count -corpus <file> [-n 3] [-top 10]",
		Short:     "counts n-grams and prints the most common",
		Long: `
counts every n-gram of a paragraph corpus and prints the total and the most frequent

	$ ./postag count -corpus <train.txt> -n 2 -top 20
`,
		Flag: *flag.NewFlagSet("count", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&corpusFile, "corpus", "", "Training corpus, one sentence per blank-line separated paragraph")
	cmd.Flag.IntVar(&orderN, "n", 3, "N-gram order")
	cmd.Flag.IntVar(&topM, "top", 10, "Number of most common n-grams to print")
	return cmd
}

func LanguageModel(cmd *commander.Command, args []string) error {
	if corpusFile == "" {
		return fmt.Errorf("missing required flag -corpus")
	}
	cfg, err := setup()
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	sentences, err := readSentences(corpusFile)
	if err != nil {
		return err
	}
	if err := svc.TrainLanguageModel(sentences); err != nil {
		return err
	}
	if saveModel {
		if err := svc.SaveModels(); err != nil {
			return err
		}
	}

	if testFile != "" {
		tests, err := readSentences(testFile)
		if err != nil {
			return err
		}
		for _, s := range tests {
			score, err := svc.ScoreSequence(s.Content())
			if err != nil {
				return err
			}
			fmt.Printf("%g\t%.3f\t%s\n", score.Probability, score.Perplexity, strings.Join(score.Tokens, " "))
		}
	}

	if permWords != "" {
		scored, err := svc.ScoredPermutations(strings.Fields(permWords), permLimit)
		if err != nil {
			return err
		}
		for _, sc := range scored {
			fmt.Printf("%g\t%s\n", sc.Probability, strings.Join(sc.Tokens, " "))
		}
	}
	return nil
}

func LanguageModelCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       LanguageModel,
		UsageLine: "lm -corpus <file> [-test <file>] [-perms \"w1 w2 w3\"]",
		Short:     "trains a smoothed n-gram language model and scores sentences",
		Long: `
trains the language model configured under "language" and prints, for each test
sentence, its probability and perplexity. With -perms every ordering of the given
words is ranked by probability.

	$ ./postag lm -app app.yaml -corpus <train.txt> -test <test.txt>
	$ ./postag lm -corpus <train.txt> -perms "the dog barked" -limit 3
`,
		Flag: *flag.NewFlagSet("lm", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&corpusFile, "corpus", "", "Training corpus")
	cmd.Flag.StringVar(&testFile, "test", "", "Sentences to score")
	cmd.Flag.StringVar(&permWords, "perms", "", "Words whose orderings are ranked")
	cmd.Flag.IntVar(&permLimit, "limit", 0, "Number of orderings to print; 0 = all")
	cmd.Flag.BoolVar(&saveModel, "save", false, "Persist the trained model to app.model_dir")
	return cmd
}
