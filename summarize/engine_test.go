package summarize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/condense/ai/structured"
	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/fault"
	"github.com/hrygo/condense/job"
)

func TestEngineSubmitRejectsUnknownEncoding(t *testing.T) {
	store := job.NewMemoryStore(job.MemoryStoreConfig{})
	defer store.Close()
	e := NewEngine(store, &mockService{}, "cl100k_base")

	req := &Request{Document: testDoc(1), Method: MethodMap, ChunkGroup: "parts", Encoding: "no-such-encoding"}
	_, err := e.Submit(req)
	require.Error(t, err)
	assert.Equal(t, fault.InvalidArgument, fault.KindOf(err))
}

func TestEngineRunCompletesJob(t *testing.T) {
	store := job.NewMemoryStore(job.MemoryStoreConfig{})
	defer store.Close()
	e := NewEngine(store, &mockService{}, "cl100k_base")

	req := &Request{Document: testDoc(2), Method: MethodMap, ChunkGroup: "parts"}
	strategy, err := NewStrategy(req, &mockService{}, fakeCodec{})
	require.NoError(t, err)

	j := job.New(string(req.Method), req)
	store.Put(j)
	e.run(context.Background(), j, strategy, req)

	snap := j.Snapshot()
	assert.Equal(t, job.StatusComplete, snap.Status)
	require.NotNil(t, snap.Result)
	// The result is the annotated document itself.
	result, ok := snap.Result.(*document.Node)
	require.True(t, ok)
	_, ok = result.Chunks["parts"][0].Annotation("summary")
	assert.True(t, ok)
}

func TestEngineRunDiscardsDeletedJob(t *testing.T) {
	store := job.NewMemoryStore(job.MemoryStoreConfig{})
	defer store.Close()
	e := NewEngine(store, &mockService{}, "cl100k_base")

	req := &Request{Document: testDoc(1), Method: MethodMap, ChunkGroup: "parts"}
	strategy, err := NewStrategy(req, &mockService{}, fakeCodec{})
	require.NoError(t, err)

	// The job was deleted while the strategy ran; the outcome is dropped and
	// the record never turns terminal.
	j := job.New(string(req.Method), req)
	e.run(context.Background(), j, strategy, req)

	assert.False(t, j.Terminal())
}

func TestEngineRunFailsJob(t *testing.T) {
	store := job.NewMemoryStore(job.MemoryStoreConfig{})
	defer store.Close()
	e := NewEngine(store, &mockService{}, "cl100k_base")

	// The chunk group named by the request does not exist.
	req := &Request{Document: testDoc(1), Method: MethodMap, ChunkGroup: "sections"}
	strategy, err := NewStrategy(req, &mockService{}, fakeCodec{})
	require.NoError(t, err)

	j := job.New(string(req.Method), req)
	store.Put(j)
	e.run(context.Background(), j, strategy, req)

	snap := j.Snapshot()
	assert.Equal(t, job.StatusError, snap.Status)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, fault.Structure, snap.Failure.Kind)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind fault.Kind
	}{
		{
			name:     "classified fault keeps its kind",
			err:      fault.Structuref("bad tree"),
			wantKind: fault.Structure,
		},
		{
			name:     "unclassified error defaults to generation",
			err:      errors.New("connection reset"),
			wantKind: fault.Generation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := classify(tt.err)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.NotEmpty(t, f.Message)
		})
	}
}

func TestClassifyUnprocessable(t *testing.T) {
	cause := &structured.UnprocessableError{
		Attempts:    3,
		BestEffort:  map[string]any{"partial": true},
		RawResponse: "{not json",
		Cause:       errors.New("reply is not valid JSON"),
	}

	f := classify(fault.Generationf(cause, "generation gave up"))

	assert.Equal(t, fault.Unprocessable, f.Kind)
	assert.Equal(t, map[string]any{"partial": true}, f.BestEffort)
	assert.Equal(t, "{not json", f.RawResponse)
}
