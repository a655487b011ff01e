package summarize

import (
	"fmt"
	"strings"

	"github.com/hrygo/condense/ai/structured"
	"github.com/hrygo/condense/document"
)

const (
	systemPromptBase = `You are a document summarization assistant. You produce faithful, information-dense summaries of the text you are given. Do not add information that is not present in the source. Respond with the summary only, without preamble.`

	mergePromptBase = `You are a document summarization assistant. You combine partial summaries of one document into a single coherent summary, preserving all distinct information and removing redundancy. Respond with the combined summary only, without preamble.`
)

// systemPrompt assembles the system prompt for a summarization step:
// base persona, caller guidance, word-limit hint, schema instruction.
func (b *base) systemPrompt(promptBase, guidance string, wordLimit *int) string {
	var sb strings.Builder
	sb.WriteString(promptBase)
	if guidance != "" {
		sb.WriteString("\n\n")
		sb.WriteString(guidance)
	}
	if wordLimit != nil {
		sb.WriteString("\n\n")
		if *wordLimit > 0 {
			fmt.Fprintf(&sb, "Keep this summary to roughly %d words or fewer.", *wordLimit)
		} else {
			sb.WriteString("The output budget is exhausted; be as brief as possible.")
		}
	}
	if len(b.req.JSONSchema) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(structured.Instruction(string(b.req.JSONSchema)))
	}
	return sb.String()
}

// neighborContext assembles the read-only context window around chunk i:
// the resolved text of up to ContextChunksBefore/After neighbors by array
// position. Neighbor text is never summarized or mutated.
func (b *base) neighborContext(tree *document.Tree, chunks []*document.Node, i int) (string, error) {
	before, after := b.req.ContextChunksBefore, b.req.ContextChunksAfter
	if before == 0 && after == 0 {
		return "", nil
	}

	var sb strings.Builder
	lo := i - before
	if lo < 0 {
		lo = 0
	}
	if lo < i {
		sb.WriteString("Preceding context (do not summarize):\n")
		for _, n := range chunks[lo:i] {
			text, err := tree.Resolve(n)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	hi := i + 1 + after
	if hi > len(chunks) {
		hi = len(chunks)
	}
	if hi > i+1 {
		sb.WriteString("Following context (do not summarize):\n")
		for _, n := range chunks[i+1 : hi] {
			text, err := tree.Resolve(n)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// chunkPrompt builds the user message for one chunk step.
func chunkPrompt(context, text string) string {
	var sb strings.Builder
	if context != "" {
		sb.WriteString(context)
		sb.WriteString("\n")
	}
	sb.WriteString("Summarize the following text:\n\n")
	sb.WriteString(text)
	return sb.String()
}
