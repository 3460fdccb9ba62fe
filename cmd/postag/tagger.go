package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	model "postag-go/internal/model/ngram"
	"postag-go/internal/service"
	"postag-go/internal/service/corpus"
	"postag-go/internal/service/eval"

	"github.com/cheggaaa/pb/v3"
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"go.uber.org/zap"
)

var (
	taggedFile string
	goldFile   string
	inputFile  string
	dumpFile   string
	maxLength  int
	noProgress bool
)

func readTagged(path string) ([]model.TaggedSentence, error) {
	f, err := corpus.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return corpus.ReadTagged(f)
}

// progressBar returns a tick callback and a finisher. With -quiet both are no-ops.
func progressBar(total int) (func(), func()) {
	if noProgress {
		return nil, func() {}
	}
	bar := pb.StartNew(total)
	return func() { bar.Increment() }, func() { bar.Finish() }
}

// loadOrTrain restores saved models, or trains the tagger from -tagged when given
func loadOrTrain(svc *service.TaggingService) error {
	if taggedFile != "" {
		training, err := readTagged(taggedFile)
		if err != nil {
			return err
		}
		return svc.TrainTagger(training)
	}
	return svc.LoadModels()
}

func Train(cmd *commander.Command, args []string) error {
	if taggedFile == "" && corpusFile == "" {
		return fmt.Errorf("at least one of -tagged or -corpus is required")
	}
	cfg, err := setup()
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	if corpusFile != "" {
		sentences, err := readSentences(corpusFile)
		if err != nil {
			return err
		}
		if err := svc.TrainLanguageModel(sentences); err != nil {
			return err
		}
	}
	if taggedFile != "" {
		training, err := readTagged(taggedFile)
		if err != nil {
			return err
		}
		if err := svc.TrainTagger(training); err != nil {
			return err
		}
	}
	if err := svc.SaveModels(); err != nil {
		return err
	}
	logger.Info("Models saved", zap.String("model_dir", cfg.App.ModelDir))
	return nil
}

func TrainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Train,
		UsageLine: "train [-corpus <file>] [-tagged <file>]",
		Short:     "trains and saves the language model and the HMM tagger",
		Long: `
trains the language model from a paragraph corpus and the HMM tagger from a
word/TAG corpus, then saves both under app.model_dir

	$ ./postag train -app app.yaml -corpus <train.txt> -tagged <train.pos>
`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&corpusFile, "corpus", "", "Paragraph corpus for the language model")
	cmd.Flag.StringVar(&taggedFile, "tagged", "", "Tagged corpus for the HMM")
	return cmd
}

func Tag(cmd *commander.Command, args []string) error {
	if inputFile == "" {
		return fmt.Errorf("missing required flag -input")
	}
	cfg, err := setup()
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	if err := loadOrTrain(svc); err != nil {
		return err
	}

	sentences, err := readSentences(inputFile)
	if err != nil {
		return err
	}
	words := make([][]string, len(sentences))
	for i, s := range sentences {
		words[i] = s.Content()
	}

	tick, finish := progressBar(len(words))
	results, summary, err := svc.TagBatch(context.Background(), words, tick)
	finish()
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("# sentence %d: %v\n\n", r.Index, r.Err)
			continue
		}
		pairs := make([]string, len(r.Result.Tags))
		for j, tag := range r.Result.Tags {
			pairs[j] = words[r.Index][j] + "/" + tag
		}
		fmt.Printf("%s\n\n", strings.Join(pairs, " "))
	}
	logger.Info("Tagging complete",
		zap.String("run_id", summary.RunID),
		zap.Int("tagged", summary.Tagged),
		zap.Int("failed", summary.Failed),
		zap.Int("timed_out", summary.TimedOut),
		zap.Duration("elapsed", summary.Elapsed))
	return nil
}

func TagCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Tag,
		UsageLine: "tag -input <file> [-tagged <file>]",
		Short:     "tags every sentence of a paragraph corpus",
		Long: `
tags each blank-line separated sentence with saved models, or with a tagger
trained on the fly from -tagged, and prints word/TAG pairs

	$ ./postag tag -app app.yaml -input <raw.txt>
`,
		Flag: *flag.NewFlagSet("tag", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&inputFile, "input", "", "Sentences to tag")
	cmd.Flag.StringVar(&taggedFile, "tagged", "", "Train the tagger from this corpus instead of loading saved models")
	cmd.Flag.BoolVar(&noProgress, "quiet", false, "Do not draw a progress bar")
	return cmd
}

func Eval(cmd *commander.Command, args []string) error {
	if goldFile == "" {
		return fmt.Errorf("missing required flag -gold")
	}
	cfg, err := setup()
	if err != nil {
		return err
	}
	if maxLength >= 0 {
		cfg.Evaluation.MaxSentenceLength = maxLength
	}
	if dumpFile != "" {
		cfg.Evaluation.DumpPath = dumpFile
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	if err := loadOrTrain(svc); err != nil {
		return err
	}

	gold, err := readTagged(goldFile)
	if err != nil {
		return err
	}

	tick, finish := progressBar(len(gold))
	evaluation, err := svc.Evaluate(context.Background(), gold, tick)
	finish()
	if err != nil {
		return err
	}
	fmt.Println(evaluation.Report)
	fmt.Printf("Unknown words: %d (lexicon false positive rate %g)\n", evaluation.Unknown, cfg.Lexicon.FalsePositiveRate)

	if cfg.Evaluation.DumpPath != "" {
		if err := writeDump(cfg.Evaluation.DumpPath, corpus.Words(gold), evaluation.Predicted, cfg.Evaluation.MaxSentenceLength); err != nil {
			return err
		}
		logger.Info("Wrote tagging dump", zap.String("path", cfg.Evaluation.DumpPath))
	}
	return nil
}

func writeDump(path string, inputs, predicted [][]string, maxLen int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return eval.WriteDump(f, inputs, predicted, eval.Options{MaxSentenceLength: maxLen})
}

func EvalCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Eval,
		UsageLine: "eval -gold <file> [-tagged <file>] [-max-len 0] [-dump <file>]",
		Short:     "evaluates the tagger against a gold corpus",
		Long: `
tags the words of a gold word/TAG corpus and reports token accuracy, average
tag-set overlap and exact-match rate. Sentences of -max-len tokens or more are left out.

	$ ./postag eval -tagged <train.pos> -gold <test.pos> -max-len 15 -dump tagged.txt
`,
		Flag: *flag.NewFlagSet("eval", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&goldFile, "gold", "", "Gold tagged corpus")
	cmd.Flag.StringVar(&taggedFile, "tagged", "", "Train the tagger from this corpus instead of loading saved models")
	cmd.Flag.StringVar(&dumpFile, "dump", "", "Write tokens and predicted tags to this file")
	cmd.Flag.IntVar(&maxLength, "max-len", -1, "Exclusive sentence length limit; 0 = no limit, -1 = use configuration")
	cmd.Flag.BoolVar(&noProgress, "quiet", false, "Do not draw a progress bar")
	return cmd
}
