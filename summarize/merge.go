package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/fault"
	"github.com/hrygo/condense/job"
)

// mergeStrategy combines per-chunk summaries that already exist on the
// chunks' annotation fields into one summary on the root. Both merge modes
// cost exactly len(chunks)-1 invocations; they differ only in combination
// order, which matters when summaries are order-sensitive prose.
type mergeStrategy struct {
	base
}

func (s *mergeStrategy) Name() string { return string(MethodMerge) }

func (s *mergeStrategy) Run(ctx context.Context, j *job.Job, tree *document.Tree) error {
	chunks, err := tree.Root.Group(s.req.ChunkGroup)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fault.InvalidArgumentf("merge requires at least one summarized chunk in group %q", s.req.ChunkGroup)
	}

	parts, err := s.collectSummaries(chunks)
	if err != nil {
		return err
	}
	j.SetChunksTotal(mergeInvocations(len(parts)))

	final, err := s.runMerge(ctx, j, parts)
	if err != nil {
		return err
	}
	tree.Root.SetAnnotation(s.req.AnnotationField, final.value)
	return nil
}

// partial is one summary in flight during a merge: the annotation value and
// its textual form for prompting.
type partial struct {
	value any
	text  string
}

func mergeInvocations(n int) int {
	if n <= 1 {
		return 0
	}
	return n - 1
}

// collectSummaries reads the annotation field off every chunk. A missing
// annotation means the document was not mapped first, which is a structural
// defect of the input rather than a generation failure.
func (s *base) collectSummaries(chunks []*document.Node) ([]partial, error) {
	parts := make([]partial, 0, len(chunks))
	for _, chunk := range chunks {
		value, ok := chunk.Annotation(s.req.AnnotationField)
		if !ok {
			return nil, fault.Structuref("chunk %q has no %q annotation to merge", chunk.ID, s.req.AnnotationField)
		}
		text, err := annotationText(value)
		if err != nil {
			return nil, err
		}
		parts = append(parts, partial{value: value, text: text})
	}
	return parts, nil
}

func annotationText(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fault.Structuref("annotation value is not representable as JSON: %v", err)
	}
	return string(data), nil
}

// runMerge reduces the partials down to one. Shared with map-merge, which
// has already counted its map steps into the job total.
func (s *base) runMerge(ctx context.Context, j *job.Job, parts []partial) (partial, error) {
	switch {
	case len(parts) == 1:
		return parts[0], nil
	case s.req.MergeMode == MergeHierarchical:
		return s.mergeHierarchical(ctx, j, parts)
	default:
		return s.mergeLeftToRight(ctx, j, parts)
	}
}

func (s *base) mergeLeftToRight(ctx context.Context, j *job.Job, parts []partial) (partial, error) {
	acc := parts[0]
	for i := 1; i < len(parts); i++ {
		combined, err := s.combine(ctx, acc, parts[i])
		if err != nil {
			return partial{}, err
		}
		acc = combined
		j.StepCompleted()
		slog.Debug("summarize: merge step done", "mode", MergeLeftToRight, "step", i, "total", len(parts)-1)
	}
	return acc, nil
}

// mergeHierarchical reduces pairwise per level; an odd trailing summary is
// carried up unchanged, so the invocation count still comes out to n-1.
func (s *base) mergeHierarchical(ctx context.Context, j *job.Job, parts []partial) (partial, error) {
	level := parts
	for len(level) > 1 {
		next := make([]partial, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			combined, err := s.combine(ctx, level[i], level[i+1])
			if err != nil {
				return partial{}, err
			}
			next = append(next, combined)
			j.StepCompleted()
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		slog.Debug("summarize: merge level done", "mode", MergeHierarchical, "width", len(next))
		level = next
	}
	return level[0], nil
}

func (s *base) combine(ctx context.Context, a, b partial) (partial, error) {
	if err := ctx.Err(); err != nil {
		return partial{}, err
	}
	system := s.systemPrompt(mergePromptBase, s.req.MergeSummariesGuidance, nil)
	prompt := fmt.Sprintf("First summary:\n%s\n\nSecond summary:\n%s\n\nCombine these into a single summary.", a.text, b.text)
	transcript := []llm.Message{llm.UserMessage(prompt)}

	value, raw, err := s.generate(ctx, system, transcript, s.options())
	if err != nil {
		return partial{}, err
	}
	return partial{value: value, text: raw}, nil
}

// mapMergeStrategy summarizes every chunk, then merges those summaries into
// the root, as one job. Progress counts both phases up front.
type mapMergeStrategy struct {
	base
}

func (s *mapMergeStrategy) Name() string { return string(MethodMapMerge) }

func (s *mapMergeStrategy) Run(ctx context.Context, j *job.Job, tree *document.Tree) error {
	chunks, err := tree.Root.Group(s.req.ChunkGroup)
	if err != nil {
		return err
	}
	j.SetChunksTotal(len(chunks) + mergeInvocations(len(chunks)))

	if err := s.runMap(ctx, j, tree, chunks); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	parts, err := s.collectSummaries(chunks)
	if err != nil {
		return err
	}
	final, err := s.runMerge(ctx, j, parts)
	if err != nil {
		return err
	}
	tree.Root.SetAnnotation(s.req.AnnotationField, final.value)
	return nil
}
