package summarize

import (
	"encoding/json"

	"github.com/hrygo/condense/document"
	"github.com/hrygo/condense/fault"
)

// Method selects a summarization strategy. The set is closed; dispatch
// happens once at job creation.
type Method string

const (
	MethodFull      Method = "full"
	MethodMap       Method = "map"
	MethodFold      Method = "fold"
	MethodDeltaFold Method = "delta-fold"
	MethodMerge     Method = "merge"
	MethodMapMerge  Method = "map-merge"
)

// MergeMode is the topology used to combine partial summaries.
type MergeMode string

const (
	// MergeLeftToRight folds the summaries pairwise from first to last.
	MergeLeftToRight MergeMode = "left-to-right"
	// MergeHierarchical reduces the summaries as a balanced binary tree.
	MergeHierarchical MergeMode = "hierarchical"
)

// JSONSum selects how delta-fold accumulates deltas into the root array.
type JSONSum string

const (
	// JSONSumAppend concatenates array-valued deltas element-wise and
	// appends any other value as one element.
	JSONSumAppend JSONSum = "append"
	// JSONSumNested always pushes the delta as a single element.
	JSONSumNested JSONSum = "nested"
)

// Request is the caller's parameter set, captured immutably at job creation.
type Request struct {
	Document *document.Node `json:"document"`
	Method   Method         `json:"method"`

	// ChunkGroup names the root's chunk group to walk. Required for every
	// method except full.
	ChunkGroup string `json:"chunkGroup,omitempty"`

	// ContextChunksBefore/After include the resolved text of up to that many
	// neighboring chunks (by array position) as read-only prompt context.
	ContextChunksBefore int `json:"contextChunksBefore,omitempty"`
	ContextChunksAfter  int `json:"contextChunksAfter,omitempty"`

	// Guidance is free text injected into the system prompt.
	Guidance    string   `json:"guidance,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`

	// MaxOutputTokens caps each reply at the provider, unlike Budget which
	// only hints.
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`

	// JSONSchema, when set, constrains every generated value to one JSON
	// value conforming to it. JSONSchemaRetries selects the repair loop:
	// 0 captures parse failures as sentinel values; >= 1 retries generation
	// up to that many attempts before reporting unprocessable.
	JSONSchema        json.RawMessage `json:"jsonSchema,omitempty"`
	JSONSchemaRetries int             `json:"jsonSchemaRetries,omitempty"`

	// JSONSum applies to delta-fold only.
	JSONSum JSONSum `json:"jsonSum,omitempty"`

	// InitialSummary seeds fold's accumulator or delta-fold's array.
	InitialSummary string `json:"initialSummary,omitempty"`

	AnnotationField      string `json:"annotationField,omitempty"`      // default "summary"
	AnnotationFieldDelta string `json:"annotationFieldDelta,omitempty"` // default "summary_delta"

	MergeSummariesGuidance string    `json:"mergeSummariesGuidance,omitempty"`
	MergeMode              MergeMode `json:"mergeMode,omitempty"`

	// Budget is an advisory token ceiling for the whole run, divided
	// dynamically across remaining chunks using TokensPerWord.
	Budget        int     `json:"budget,omitempty"`
	TokensPerWord float64 `json:"tokensPerWord,omitempty"`

	// Encoding overrides the engine's default tokenizer encoding.
	Encoding string `json:"encoding,omitempty"`
}

const (
	defaultAnnotationField      = "summary"
	defaultAnnotationFieldDelta = "summary_delta"
	defaultTokensPerWord        = 1.5
)

// normalize fills defaults in place.
func (r *Request) normalize() {
	if r.AnnotationField == "" {
		r.AnnotationField = defaultAnnotationField
	}
	if r.AnnotationFieldDelta == "" {
		r.AnnotationFieldDelta = defaultAnnotationFieldDelta
	}
	if r.JSONSum == "" {
		r.JSONSum = JSONSumAppend
	}
	if r.MergeMode == "" {
		r.MergeMode = MergeLeftToRight
	}
	if r.Budget > 0 && r.TokensPerWord <= 0 {
		r.TokensPerWord = defaultTokensPerWord
	}
}

// validate checks the request before a job is created. Violations are
// InvalidArgument and fail fast.
func (r *Request) validate() error {
	if r.Document == nil {
		return fault.InvalidArgumentf("document is required")
	}
	switch r.Method {
	case MethodFull, MethodMap, MethodFold, MethodDeltaFold, MethodMerge, MethodMapMerge:
	case "":
		return fault.InvalidArgumentf("method is required")
	default:
		return fault.InvalidArgumentf("unknown method %q", r.Method)
	}
	if r.Method != MethodFull && r.ChunkGroup == "" {
		return fault.InvalidArgumentf("chunkGroup is required for method %q", r.Method)
	}
	if r.ContextChunksBefore < 0 || r.ContextChunksAfter < 0 {
		return fault.InvalidArgumentf("context chunk counts must be >= 0")
	}
	if r.Budget < 0 {
		return fault.InvalidArgumentf("budget must be >= 0, got %d", r.Budget)
	}
	if r.MaxOutputTokens < 0 {
		return fault.InvalidArgumentf("maxOutputTokens must be >= 0, got %d", r.MaxOutputTokens)
	}
	if r.TokensPerWord < 0 {
		return fault.InvalidArgumentf("tokensPerWord must be >= 0, got %v", r.TokensPerWord)
	}
	if r.JSONSchemaRetries < 0 {
		return fault.InvalidArgumentf("jsonSchemaRetries must be >= 0, got %d", r.JSONSchemaRetries)
	}
	if len(r.JSONSchema) == 0 && r.JSONSchemaRetries > 0 {
		return fault.InvalidArgumentf("jsonSchemaRetries requires jsonSchema")
	}
	switch r.JSONSum {
	case JSONSumAppend, JSONSumNested:
	default:
		return fault.InvalidArgumentf("unknown jsonSum %q", r.JSONSum)
	}
	switch r.MergeMode {
	case MergeLeftToRight, MergeHierarchical:
	default:
		return fault.InvalidArgumentf("unknown mergeMode %q", r.MergeMode)
	}
	return nil
}
