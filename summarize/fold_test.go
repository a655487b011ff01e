package summarize

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/condense/ai/llm"
)

func TestFoldStrategy(t *testing.T) {
	step := 0
	svc := &mockService{
		invokeFunc: func(_ context.Context, _ string, _ []llm.Message, _ llm.Options) (string, error) {
			step++
			return fmt.Sprintf("summary after step %d", step), nil
		},
	}
	req := &Request{Document: testDoc(3), Method: MethodFold, ChunkGroup: "parts"}

	j, tree := runStrategy(t, req, svc)

	// Only the final accumulated summary is written, to the root.
	v, ok := tree.Root.Annotation("summary")
	require.True(t, ok)
	assert.Equal(t, "summary after step 3", v)

	chunks, _ := tree.Root.Group("parts")
	for _, chunk := range chunks {
		_, ok := chunk.Annotation("summary")
		assert.False(t, ok)
	}

	snap := j.Snapshot()
	assert.Equal(t, 3, snap.ChunksTotal)
	assert.Equal(t, 3, snap.ChunksCompleted)
}

func TestFoldStrategyThreadsAccumulator(t *testing.T) {
	svc := &mockService{
		invokeFunc: func(_ context.Context, _ string, transcript []llm.Message, _ llm.Options) (string, error) {
			return "acc+" + transcript[0].Content[:5], nil
		},
	}
	req := &Request{Document: testDoc(2), Method: MethodFold, ChunkGroup: "parts"}

	runStrategy(t, req, svc)

	calls := svc.invocations()
	require.Len(t, calls, 2)
	// Step one starts without a summary so far; step two carries the first
	// reply forward verbatim.
	assert.NotContains(t, calls[0].transcript[0].Content, "Summary so far")
	assert.Contains(t, calls[1].transcript[0].Content, "Summary so far")
	assert.Contains(t, calls[1].transcript[0].Content, "acc+")
}

func TestFoldStrategyInitialSummary(t *testing.T) {
	svc := &mockService{}
	req := &Request{
		Document:       testDoc(1),
		Method:         MethodFold,
		ChunkGroup:     "parts",
		InitialSummary: "prior knowledge about the document",
	}

	runStrategy(t, req, svc)

	calls := svc.invocations()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].transcript[0].Content, "prior knowledge about the document")
}

func TestFoldStrategyEmptyGroup(t *testing.T) {
	svc := &mockService{}
	req := &Request{Document: testDoc(0), Method: MethodFold, ChunkGroup: "parts", InitialSummary: "seed"}

	j, tree := runStrategy(t, req, svc)

	// Zero chunks means zero invocations; the seed is the result.
	assert.Empty(t, svc.invocations())
	v, ok := tree.Root.Annotation("summary")
	require.True(t, ok)
	assert.Equal(t, "seed", v)
	assert.Equal(t, 0, j.Snapshot().ChunksTotal)
}
