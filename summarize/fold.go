package summarize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/job"
)

// foldStrategy walks the chunks sequentially; step i receives chunk i plus
// the full accumulated summary from step i-1 and returns a replacement
// accumulated summary. Only the final value is written, to the root.
type foldStrategy struct {
	base
}

func (s *foldStrategy) Name() string { return string(MethodFold) }

const foldStepDirective = `Produce a complete replacement summary that covers both the summary so far and the new text.`

func (s *foldStrategy) Run(ctx context.Context, j *job.Job, tree *document.Tree) error {
	chunks, err := tree.Root.Group(s.req.ChunkGroup)
	if err != nil {
		return err
	}
	j.SetChunksTotal(len(chunks))

	acc := s.req.InitialSummary
	var finalValue any = acc

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

		system := s.systemPrompt(systemPromptBase, s.req.Guidance, nil)
		transcript := []llm.Message{llm.UserMessage(foldPrompt(acc, neighbors, text))}

		value, raw, err := s.generate(ctx, system, transcript, s.options())
		if err != nil {
			return err
		}

		// The raw reply is the next accumulator; the parsed value is what
		// lands in the annotation once the fold finishes.
		acc = raw
		finalValue = value
		j.StepCompleted()

		slog.Debug("summarize: fold step done", "chunk", chunk.ID, "index", i, "total", len(chunks))
	}

	tree.Root.SetAnnotation(s.req.AnnotationField, finalValue)
	return nil
}

func foldPrompt(acc, neighbors, text string) string {
	prompt := ""
	if acc != "" {
		prompt = fmt.Sprintf("Summary so far:\n%s\n\n", acc)
	}
	if neighbors != "" {
		prompt += neighbors + "\n"
	}
	prompt += fmt.Sprintf("New text:\n%s\n\n%s", text, foldStepDirective)
	return prompt
}
