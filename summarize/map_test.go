package summarize

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/condense/ai/llm"
)

func TestFullStrategy(t *testing.T) {
	svc := &mockService{}
	req := &Request{Document: testDoc(0), Method: MethodFull}
	req.Document.Content = strPtr("the whole document")

	j, tree := runStrategy(t, req, svc)

	v, ok := tree.Root.Annotation("summary")
	require.True(t, ok)
	assert.Equal(t, "test summary", v)

	snap := j.Snapshot()
	assert.Equal(t, 1, snap.ChunksTotal)
	assert.Equal(t, 1, snap.ChunksCompleted)

	calls := svc.invocations()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].transcript[0].Content, "the whole document")
}

func TestMapStrategy(t *testing.T) {
	svc := &mockService{
		invokeFunc: func(_ context.Context, _ string, transcript []llm.Message, _ llm.Options) (string, error) {
			return "summary of: " + transcript[0].Content, nil
		},
	}
	req := &Request{Document: testDoc(3), Method: MethodMap, ChunkGroup: "parts"}

	j, tree := runStrategy(t, req, svc)

	chunks, err := tree.Root.Group("parts")
	require.NoError(t, err)
	for i, chunk := range chunks {
		v, ok := chunk.Annotation("summary")
		require.True(t, ok, "chunk %d", i)
		assert.Contains(t, v.(string), fmt.Sprintf("chunk text %d", i))
	}

	// The root gets nothing in map mode.
	_, ok := tree.Root.Annotation("summary")
	assert.False(t, ok)

	snap := j.Snapshot()
	assert.Equal(t, 3, snap.ChunksTotal)
	assert.Equal(t, 3, snap.ChunksCompleted)
	assert.Len(t, svc.invocations(), 3)
}

func TestMapStrategyGuidanceAndAnnotationField(t *testing.T) {
	svc := &mockService{}
	req := &Request{
		Document:        testDoc(1),
		Method:          MethodMap,
		ChunkGroup:      "parts",
		Guidance:        "Focus on the financial figures.",
		AnnotationField: "abstract",
	}

	_, tree := runStrategy(t, req, svc)

	chunks, _ := tree.Root.Group("parts")
	_, ok := chunks[0].Annotation("abstract")
	assert.True(t, ok)

	calls := svc.invocations()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].systemPrompt, "Focus on the financial figures.")
}

func TestMapStrategyNeighborContext(t *testing.T) {
	svc := &mockService{}
	req := &Request{
		Document:            testDoc(3),
		Method:              MethodMap,
		ChunkGroup:          "parts",
		ContextChunksBefore: 1,
		ContextChunksAfter:  1,
	}

	runStrategy(t, req, svc)

	calls := svc.invocations()
	require.Len(t, calls, 3)

	// The first chunk has no preceding neighbor.
	assert.NotContains(t, calls[0].transcript[0].Content, "Preceding context")
	assert.Contains(t, calls[0].transcript[0].Content, "chunk text 1")

	// The middle chunk sees both neighbors.
	assert.Contains(t, calls[1].transcript[0].Content, "chunk text 0")
	assert.Contains(t, calls[1].transcript[0].Content, "chunk text 2")

	// The last chunk has no following neighbor.
	assert.NotContains(t, calls[2].transcript[0].Content, "Following context")
}

func TestMapStrategyBudgetHint(t *testing.T) {
	svc := &mockService{
		invokeFunc: func(_ context.Context, _ string, _ []llm.Message, _ llm.Options) (string, error) {
			return strings.TrimSpace(strings.Repeat("word ", 30)), nil
		},
	}
	req := &Request{
		Document:      testDoc(2),
		Method:        MethodMap,
		ChunkGroup:    "parts",
		Budget:        60,
		TokensPerWord: 1.0,
	}

	runStrategy(t, req, svc)

	calls := svc.invocations()
	require.Len(t, calls, 2)
	// 60 tokens over 2 chunks: 30 words for the first step; the 30-token
	// reply leaves 30 tokens for the final chunk.
	assert.Contains(t, calls[0].systemPrompt, "roughly 30 words")
	assert.Contains(t, calls[1].systemPrompt, "roughly 30 words")
}

func TestMapStrategyBudgetExhausted(t *testing.T) {
	svc := &mockService{
		invokeFunc: func(_ context.Context, _ string, _ []llm.Message, _ llm.Options) (string, error) {
			return strings.TrimSpace(strings.Repeat("word ", 50)), nil
		},
	}
	req := &Request{
		Document:      testDoc(2),
		Method:        MethodMap,
		ChunkGroup:    "parts",
		Budget:        40,
		TokensPerWord: 1.0,
	}

	runStrategy(t, req, svc)

	calls := svc.invocations()
	require.Len(t, calls, 2)
	// The first reply blew through the whole budget; the hint for the second
	// chunk collapses to "as brief as possible" but the run still finishes.
	assert.Contains(t, calls[1].systemPrompt, "budget is exhausted")
}

func TestMapStrategyMissingGroup(t *testing.T) {
	req := &Request{Document: testDoc(2), Method: MethodMap, ChunkGroup: "sections"}
	s, err := NewStrategy(req, &mockService{}, fakeCodec{})
	require.NoError(t, err)

	tree := newTestTree(req)
	err = s.Run(context.Background(), newTestJob(req), tree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sections")
}

func strPtr(s string) *string { return &s }
