// Package summarize drives model invocations across a chunk tree under six
// accumulation disciplines, writing results back into annotation fields.
package summarize

import (
	"context"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/ai/structured"
	"github.com/hrygo/condense/ai/tokenizer"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/fault"
	"github.com/hrygo/condense/job"
	"github.com/hrygo/condense/observability/metrics"
)

// Strategy walks a document tree, invoking the model once per step and
// updating the job's progress counters after every step. Execution within
// one job is strictly sequential: fold variants carry a genuine data
// dependency between steps, and map's independence is deliberately not
// exploited for parallelism.
type Strategy interface {
	Name() string
	Run(ctx context.Context, j *job.Job, tree *document.Tree) error
}

// NewStrategy normalizes and validates the request, then selects one
// strategy from the closed method set.
func NewStrategy(req *Request, svc llm.Service, codec tokenizer.Codec) (Strategy, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	b := base{req: req, svc: svc, codec: codec, name: string(req.Method)}
	switch req.Method {
	case MethodFull:
		return &fullStrategy{base: b}, nil
	case MethodMap:
		return &mapStrategy{base: b}, nil
	case MethodFold:
		return &foldStrategy{base: b}, nil
	case MethodDeltaFold:
		return &deltaFoldStrategy{base: b}, nil
	case MethodMerge:
		return &mergeStrategy{base: b}, nil
	case MethodMapMerge:
		return &mapMergeStrategy{base: b}, nil
	default:
		// validate already rejected anything outside the closed set
		return nil, fault.InvalidArgumentf("unknown method %q", req.Method)
	}
}

// base carries what every strategy needs for one step.
type base struct {
	req   *Request
	svc   llm.Service
	codec tokenizer.Codec
	name  string
}

func (b *base) options() llm.Options {
	opts := llm.Options{
		Temperature:     b.req.Temperature,
		MaxOutputTokens: b.req.MaxOutputTokens,
	}
	if len(b.req.JSONSchema) > 0 {
		opts.JSONOutput = true
	}
	return opts
}

// generate performs one model invocation. Without a schema the reply text is
// the value. With a schema and no retries, a reply that fails to parse is
// captured as a sentinel value so the pipeline continues; with retries the
// bounded repair loop runs instead and exhaustion surfaces as unprocessable.
func (b *base) generate(ctx context.Context, systemPrompt string, transcript []llm.Message, opts llm.Options) (any, string, error) {
	metrics.RecordInvocation(b.name)

	if len(b.req.JSONSchema) > 0 && b.req.JSONSchemaRetries >= 1 {
		value, raw, err := structured.GenerateValidated(ctx, b.svc, systemPrompt, transcript, opts, string(b.req.JSONSchema), b.req.JSONSchemaRetries)
		if err != nil {
			return nil, raw, err
		}
		return value, raw, nil
	}

	raw, err := b.svc.Invoke(ctx, systemPrompt, transcript, opts)
	if err != nil {
		return nil, "", fault.Generationf(err, "model invocation failed")
	}
	if len(b.req.JSONSchema) == 0 {
		return raw, raw, nil
	}
	value, _ := structured.Parse(raw)
	return value, raw, nil
}
