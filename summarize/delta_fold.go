package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/job"
)

// deltaFoldStrategy asks each step for only the information not already in
// the accumulated summary. Every delta lands on its chunk under the delta
// annotation field, and the running JSON array of deltas is written to the
// root at the end.
type deltaFoldStrategy struct {
	base
}

func (s *deltaFoldStrategy) Name() string { return string(MethodDeltaFold) }

const deltaStepDirective = `Report only information in the new text that is not already covered by the summary so far. If everything is already covered, respond with an empty summary.`

func (s *deltaFoldStrategy) Run(ctx context.Context, j *job.Job, tree *document.Tree) error {
	chunks, err := tree.Root.Group(s.req.ChunkGroup)
	if err != nil {
		return err
	}
	j.SetChunksTotal(len(chunks))

	tracker := newBudgetTracker(s.req.Budget, s.req.TokensPerWord, s.codec)

	acc := make([]any, 0, len(chunks)+1)
	if s.req.InitialSummary != "" {
		acc = append(acc, s.req.InitialSummary)
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := tree.Resolve(chunk)
		if err != nil {
			return err
		}
		neighbors, err := s.neighborContext(tree, chunks, i)
		if err != nil {
			return err
		}

		var limit *int
		if tracker != nil {
			l := tracker.wordLimit(len(chunks) - i)
			limit = &l
		}
		system := s.systemPrompt(systemPromptBase, s.req.Guidance, limit)

		prior, err := json.Marshal(acc)
		if err != nil {
			return err
		}
		transcript := []llm.Message{llm.UserMessage(deltaPrompt(string(prior), neighbors, text))}

		value, raw, err := s.generate(ctx, system, transcript, s.options())
		if err != nil {
			return err
		}

		chunk.SetAnnotation(s.req.AnnotationFieldDelta, value)
		acc = jsonSum(s.req.JSONSum, acc, value)
		tracker.consume(raw)
		j.StepCompleted()

		slog.Debug("summarize: delta-fold step done", "chunk", chunk.ID, "index", i, "total", len(chunks))
	}

	tree.Root.SetAnnotation(s.req.AnnotationField, acc)
	return nil
}

// jsonSum folds one delta into the accumulator. Append splices array-valued
// deltas element-wise and pushes anything else as one element; nested always
// pushes the delta as a single element.
func jsonSum(mode JSONSum, acc []any, delta any) []any {
	if mode == JSONSumAppend {
		if arr, ok := delta.([]any); ok {
			return append(acc, arr...)
		}
	}
	return append(acc, delta)
}

func deltaPrompt(priorJSON, neighbors, text string) string {
	prompt := fmt.Sprintf("Summary so far (JSON array of deltas):\n%s\n\n", priorJSON)
	if neighbors != "" {
		prompt += neighbors + "\n"
	}
	prompt += fmt.Sprintf("New text:\n%s\n\n%s", text, deltaStepDirective)
	return prompt
}
