package summarize

import (
	"context"
	"log/slog"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/job"
)

// mapStrategy issues one invocation per chunk, independent of other chunks'
// outputs, and writes each result to that chunk's annotation field. Chunks
// are still processed sequentially; ordering has no semantic effect here.
type mapStrategy struct {
	base
}

func (s *mapStrategy) Name() string { return string(MethodMap) }

func (s *mapStrategy) Run(ctx context.Context, j *job.Job, tree *document.Tree) error {
	chunks, err := tree.Root.Group(s.req.ChunkGroup)
	if err != nil {
		return err
	}
	j.SetChunksTotal(len(chunks))
	return s.runMap(ctx, j, tree, chunks)
}

// runMap is shared with map-merge, which sets its own total beforehand.
func (s *base) runMap(ctx context.Context, j *job.Job, tree *document.Tree, chunks []*document.Node) error {
	tracker := newBudgetTracker(s.req.Budget, s.req.TokensPerWord, s.codec)

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
		transcript := []llm.Message{llm.UserMessage(chunkPrompt(neighbors, text))}

		value, raw, err := s.generate(ctx, system, transcript, s.options())
		if err != nil {
			return err
		}

		chunk.SetAnnotation(s.req.AnnotationField, value)
		tracker.consume(raw)
		j.StepCompleted()

		slog.Debug("summarize: map step done", "chunk", chunk.ID, "index", i, "total", len(chunks))
	}
	return nil
}
