package summarize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/ai/structured"
	"github.com/hrygo/condense/ai/tokenizer"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/fault"
	"github.com/hrygo/condense/job"
	"github.com/hrygo/condense/observability/metrics"
)

// Engine turns requests into asynchronous jobs. Validation happens
// synchronously at submit time; everything that can fail from bad input
// fails before a job exists. One goroutine drives each accepted job.
type Engine struct {
	store           job.Store
	svc             llm.Service
	defaultEncoding string
}

// NewEngine builds an engine over a job store and a model service.
func NewEngine(store job.Store, svc llm.Service, defaultEncoding string) *Engine {
	if defaultEncoding == "" {
		defaultEncoding = "cl100k_base"
	}
	return &Engine{store: store, svc: svc, defaultEncoding: defaultEncoding}
}

// Submit validates the request, registers a pending job, and starts the
// strategy in the background. The returned job is already in the store.
func (e *Engine) Submit(req *Request) (*job.Job, error) {
	encoding := req.Encoding
	if encoding == "" {
		encoding = e.defaultEncoding
	}
	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fault.InvalidArgumentf("unknown encoding %q", encoding)
	}

	strategy, err := NewStrategy(req, e.svc, codec)
	if err != nil {
		return nil, err
	}

	j := job.New(string(req.Method), req)
	e.store.Put(j)

	go e.run(context.Background(), j, strategy, req)
	return j, nil
}

func (e *Engine) run(ctx context.Context, j *job.Job, strategy Strategy, req *Request) {
	start := time.Now()
	j.Start()
	slog.Info("summarize: job started", "job", j.ID(), "method", strategy.Name())

	tree := document.NewTree(req.Document)
	err := strategy.Run(ctx, j, tree)

	// Deleting a job from the store is the cancellation signal. The strategy
	// may still finish its current step; its outcome is simply discarded.
	if _, ok := e.store.Get(j.ID()); !ok {
		slog.Info("summarize: job deleted mid-run, discarding outcome", "job", j.ID())
		return
	}

	if err != nil {
		j.Fail(classify(err))
		slog.Warn("summarize: job failed", "job", j.ID(), "method", strategy.Name(), "error", err)
	} else {
		j.Complete(req.Document)
		slog.Info("summarize: job complete", "job", j.ID(), "method", strategy.Name(),
			"duration", time.Since(start))
	}

	snap := j.Snapshot()
	metrics.RecordJob(string(req.Method), string(snap.Status))
	metrics.ObserveJobDuration(string(req.Method), time.Since(start).Seconds())
}

// classify maps a strategy error onto the serializable failure record. An
// exhausted repair loop keeps its best-effort value and final raw reply.
func classify(err error) *job.Failure {
	var up *structured.UnprocessableError
	if errors.As(err, &up) {
		return &job.Failure{
			Kind:        fault.Unprocessable,
			Message:     up.Error(),
			BestEffort:  up.BestEffort,
			RawResponse: up.RawResponse,
		}
	}
	return &job.Failure{Kind: fault.KindOf(err), Message: err.Error()}
}
