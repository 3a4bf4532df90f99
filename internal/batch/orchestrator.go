// Package batch runs many document evaluations concurrently against one
// rubric. The orchestrator bounds fan-out, isolates per-document failures,
// and collates outcomes into a single batch result.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/evaluation"
	"github.com/ahrav/go-rubric/internal/llm"
	"github.com/ahrav/go-rubric/internal/parser"
	"github.com/ahrav/go-rubric/pkg/events"
)

// DefaultConcurrency is the worker bound when none is configured.
const DefaultConcurrency = 4

// eventSource identifies the orchestrator in emitted event envelopes.
const eventSource = "batch-orchestrator"

// ErrNoDocuments indicates Run was called with an empty document set.
var ErrNoDocuments = errors.New("no documents to evaluate")

// Options configures a batch run.
type Options struct {
	// Concurrency bounds the number of simultaneous evaluations.
	// Zero means DefaultConcurrency; values below 1 are rejected.
	Concurrency int

	// OnProgress, when set, is called after each document finishes, with
	// the number of completed documents and the batch total. Calls are
	// serialized; completion order is arbitrary.
	OnProgress func(completed, total int)

	// Sink, when set, receives each outcome as it completes. Appends are
	// serialized by the orchestrator; the sink needs no locking of its own.
	Sink ResultSink

	// Events, when set, receives typed progress and completion envelopes.
	// Delivery is best effort and never fails the run.
	Events events.Sink

	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// Orchestrator evaluates document batches with bounded concurrency.
// One document's failure never aborts its siblings; every document ends
// in exactly one of the result or failure maps.
type Orchestrator struct {
	evaluator   *evaluation.Evaluator
	concurrency int
	onProgress  func(completed, total int)
	sink        ResultSink
	events      events.Sink
	logger      *slog.Logger
}

// NewOrchestrator builds an orchestrator around a shared evaluator.
func NewOrchestrator(evaluator *evaluation.Evaluator, opts Options) (*Orchestrator, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("orchestrator requires an evaluator")
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", opts.Concurrency)
	}
	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		evaluator:   evaluator,
		concurrency: concurrency,
		onProgress:  opts.OnProgress,
		sink:        opts.Sink,
		events:      opts.Events,
		logger:      logger,
	}, nil
}

// Run evaluates every document in the batch and collates the outcomes.
// Documents are keyed by ID; dispatch order is sorted by ID for
// reproducible runs, although completion order is arbitrary.
//
// On context cancellation, already-completed outcomes are retained,
// in-flight and unstarted documents are recorded as canceled failures, and
// the partial batch result is returned alongside the context error.
func (o *Orchestrator) Run(ctx context.Context, documents map[string]string) (*domain.BatchResult, error) {
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}

	ids := make([]string, 0, len(documents))
	for id := range documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	runID := uuid.NewString()
	batch := domain.NewBatchResult(runID)
	total := len(ids)
	start := time.Now()

	o.logger.Info("batch started", "run_id", runID, "documents", total, "concurrency", o.concurrency)

	var mu sync.Mutex
	completed := 0

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for _, id := range ids {
		if ctx.Err() != nil {
			mu.Lock()
			completed++
			o.recordFailureLocked(ctx, batch, &domain.FailureRecord{
				DocumentID: id,
				Kind:       domain.FailureCanceled,
				Message:    "batch canceled before dispatch",
			}, completed, total)
			mu.Unlock()
			continue
		}

		text := documents[id]
		g.Go(func() error {
			result, err := o.evaluator.Evaluate(ctx, id, text)

			mu.Lock()
			defer mu.Unlock()
			completed++
			if err != nil {
				o.recordFailureLocked(ctx, batch, classifyFailure(id, err), completed, total)
				return nil
			}
			batch.Results[id] = result
			o.appendResultLocked(ctx, runID, result, completed, total)
			return nil
		})
	}

	// Workers never return errors; failures are recorded per document.
	_ = g.Wait()

	elapsed := time.Since(start)
	o.logger.Info("batch finished",
		"run_id", runID,
		"succeeded", len(batch.Results),
		"failed", len(batch.Failures),
		"elapsed", elapsed)
	o.emit(ctx, events.TypeBatchCompleted, runID, events.BatchCompleted{
		Succeeded: len(batch.Results),
		Failed:    len(batch.Failures),
		Elapsed:   elapsed,
	})

	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}

// recordFailureLocked stores a failure and performs the per-completion
// bookkeeping. Callers must hold the run mutex.
func (o *Orchestrator) recordFailureLocked(
	ctx context.Context,
	batch *domain.BatchResult,
	rec *domain.FailureRecord,
	completed, total int,
) {
	batch.Failures[rec.DocumentID] = rec
	o.logger.Warn("document failed",
		"run_id", batch.RunID,
		"document_id", rec.DocumentID,
		"kind", rec.Kind,
		"message", rec.Message)

	if o.sink != nil {
		if err := o.sink.AppendFailure(rec); err != nil {
			o.logger.Warn("sink append failed", "document_id", rec.DocumentID, "error", err)
		}
	}
	o.emit(ctx, events.TypeDocumentFailed, batch.RunID, events.DocumentFailed{
		DocumentID: rec.DocumentID,
		Kind:       string(rec.Kind),
		Message:    rec.Message,
		Completed:  completed,
		Total:      total,
	})
	if o.onProgress != nil {
		o.onProgress(completed, total)
	}
}

// appendResultLocked stores a success and performs the per-completion
// bookkeeping. Callers must hold the run mutex.
func (o *Orchestrator) appendResultLocked(
	ctx context.Context,
	runID string,
	result *domain.EvaluationResult,
	completed, total int,
) {
	if o.sink != nil {
		if err := o.sink.Append(result); err != nil {
			o.logger.Warn("sink append failed", "document_id", result.DocumentID, "error", err)
		}
	}
	o.emit(ctx, events.TypeDocumentEvaluated, runID, events.DocumentEvaluated{
		DocumentID:   result.DocumentID,
		OverallScore: result.OverallScore,
		Completed:    completed,
		Total:        total,
	})
	if o.onProgress != nil {
		o.onProgress(completed, total)
	}
}

func (o *Orchestrator) emit(ctx context.Context, eventType, runID string, payload any) {
	if o.events == nil {
		return
	}
	env, err := events.New(eventType, eventSource, runID, payload)
	if err != nil {
		o.logger.Warn("event build failed", "type", eventType, "error", err)
		return
	}
	// Best effort with a detached context so cancellation of the run does
	// not suppress its own terminal events.
	if err := o.events.Append(context.WithoutCancel(ctx), env); err != nil {
		o.logger.Warn("event append failed", "type", eventType, "error", err)
	}
}

// classifyFailure maps an evaluation error onto a failure record.
func classifyFailure(documentID string, err error) *domain.FailureRecord {
	kind := domain.FailureInternal
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		kind = domain.FailureCanceled
	default:
		var provErr *llm.ProviderError
		var violation *parser.SchemaViolation
		if errors.As(err, &provErr) {
			kind = domain.FailureProvider
		} else if errors.As(err, &violation) {
			kind = domain.FailureSchema
		}
	}
	return &domain.FailureRecord{
		DocumentID: documentID,
		Kind:       kind,
		Message:    err.Error(),
	}
}
