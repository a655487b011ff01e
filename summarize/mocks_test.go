package summarize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/condense/ai/llm"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/job"
)

// invocation records one model call for assertions.
type invocation struct {
	systemPrompt string
	transcript   []llm.Message
	opts         llm.Options
}

// mockService is a test double for llm.Service.
type mockService struct {
	mu         sync.Mutex
	calls      []invocation
	invokeFunc func(ctx context.Context, systemPrompt string, transcript []llm.Message, opts llm.Options) (string, error)
}

func (m *mockService) Invoke(ctx context.Context, systemPrompt string, transcript []llm.Message, opts llm.Options) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, invocation{systemPrompt: systemPrompt, transcript: transcript, opts: opts})
	m.mu.Unlock()

	if m.invokeFunc != nil {
		return m.invokeFunc(ctx, systemPrompt, transcript, opts)
	}
	return "test summary", nil
}

func (m *mockService) invocations() []invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]invocation(nil), m.calls...)
}

// fakeCodec counts whitespace-separated words as tokens. The strategies only
// need Count; Encode and Decode satisfy the interface for completeness.
type fakeCodec struct{}

func (fakeCodec) Encode(text string) []int {
	return make([]int, len(strings.Fields(text)))
}

func (fakeCodec) Decode(tokens []int) string {
	return strings.Repeat("w ", len(tokens))
}

func (fakeCodec) Count(text string) int {
	return len(strings.Fields(text))
}

// testDoc builds a document whose "parts" group holds n direct-content
// chunks ("chunk text 0", "chunk text 1", ...).
func testDoc(n int) *document.Node {
	children := make([]*document.Node, n)
	for i := range children {
		text := fmt.Sprintf("chunk text %d", i)
		children[i] = &document.Node{ID: fmt.Sprintf("c%d", i), Content: &text}
	}
	return &document.Node{
		ID:     "doc",
		Chunks: map[string][]*document.Node{"parts": children},
	}
}

func newTestJob(req *Request) *job.Job {
	j := job.New(string(req.Method), req)
	j.Start()
	return j
}

func newTestTree(req *Request) *document.Tree {
	return document.NewTree(req.Document)
}

// runStrategy builds and runs a strategy synchronously, returning the job
// and the indexed tree it ran over.
func runStrategy(t *testing.T, req *Request, svc llm.Service) (*job.Job, *document.Tree) {
	t.Helper()
	s, err := NewStrategy(req, svc, fakeCodec{})
	require.NoError(t, err)

	j := job.New(string(req.Method), req)
	j.Start()
	tree := document.NewTree(req.Document)
	require.NoError(t, s.Run(context.Background(), j, tree))
	return j, tree
}
