package tagger

import (
	"context"
	"errors"
	"time"

	"postag-go/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchResult is the outcome for one input sentence
type BatchResult struct {
	Index  int
	Result *Result // nil when Err is set
	Err    error
}

// BatchSummary counts outcomes of a batch run
type BatchSummary struct {
	RunID    string
	Total    int
	Tagged   int
	Failed   int // no viable tagging
	TimedOut int
	Elapsed  time.Duration
}

// BatchTagger fans sentences out to a worker pool, one decode per task, and
// gathers results by input position.
type BatchTagger struct {
	decoder    *Decoder
	workers    int
	timeout    time.Duration
	onProgress func()
	logger     *zap.Logger
}

// BatchOption configures a BatchTagger
type BatchOption func(*BatchTagger)

// WithProgress is called once per finished sentence, from worker goroutines
func WithProgress(fn func()) BatchOption {
	return func(b *BatchTagger) { b.onProgress = fn }
}

// NewBatchTagger creates a batch tagger. timeout <= 0 disables the per-sentence bound.
func NewBatchTagger(decoder *Decoder, workers int, timeout time.Duration, logger *zap.Logger, opts ...BatchOption) *BatchTagger {
	if workers < 1 {
		workers = 1
	}
	b := &BatchTagger{
		decoder: decoder,
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type batchTask struct {
	index    int
	sentence []string
}

// TagAll decodes every sentence. Per-sentence failures are recorded in the
// result slice and never abort the batch.
func (b *BatchTagger) TagAll(ctx context.Context, sentences [][]string) ([]BatchResult, BatchSummary) {
	runID := uuid.NewString()
	start := time.Now()
	results := make([]BatchResult, len(sentences))

	b.logger.Info("Starting batch decode",
		zap.String("run_id", runID),
		zap.Int("sentences", len(sentences)),
		zap.Int("workers", b.workers),
		zap.Duration("timeout", b.timeout))

	pool := util.NewExecutorPool(b.workers, b.workers*2, func(task any) {
		t := task.(batchTask)
		res, err := b.tagOne(ctx, t.sentence)
		// each index is written by exactly one task
		results[t.index] = BatchResult{Index: t.index, Result: res, Err: err}
		if err != nil {
			b.logger.Debug("Sentence not tagged",
				zap.String("run_id", runID),
				zap.Int("index", t.index),
				zap.Error(err))
		}
		if b.onProgress != nil {
			b.onProgress()
		}
	})
	for i, s := range sentences {
		pool.Submit(batchTask{index: i, sentence: s})
	}
	pool.Close()

	summary := BatchSummary{RunID: runID, Total: len(sentences), Elapsed: time.Since(start)}
	for _, r := range results {
		switch {
		case r.Err == nil:
			summary.Tagged++
		case errors.Is(r.Err, context.DeadlineExceeded):
			summary.TimedOut++
		default:
			summary.Failed++
		}
	}

	b.logger.Info("Completed batch decode",
		zap.String("run_id", runID),
		zap.Int("tagged", summary.Tagged),
		zap.Int("failed", summary.Failed),
		zap.Int("timed_out", summary.TimedOut),
		zap.Duration("elapsed", summary.Elapsed))

	return results, summary
}

func (b *BatchTagger) tagOne(ctx context.Context, sentence []string) (*Result, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.decoder.Tag(ctx, sentence)
}
