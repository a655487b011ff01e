package summarize

import (
	"context"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/job"
)

// fullStrategy issues one invocation over the whole resolved document and
// writes the result to the root's annotation field.
type fullStrategy struct {
	base
}

func (s *fullStrategy) Name() string { return string(MethodFull) }

func (s *fullStrategy) Run(ctx context.Context, j *job.Job, tree *document.Tree) error {
	j.SetChunksTotal(1)

	text, err := tree.Resolve(tree.Root)
	if err != nil {
		return err
	}

	system := s.systemPrompt(systemPromptBase, s.req.Guidance, nil)
	transcript := []llm.Message{llm.UserMessage(chunkPrompt("", text))}

	value, _, err := s.generate(ctx, system, transcript, s.options())
	if err != nil {
		return err
	}

	tree.Root.SetAnnotation(s.req.AnnotationField, value)
	j.StepCompleted()
	return nil
}
