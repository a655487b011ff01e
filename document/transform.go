package document

import (
	"fmt"

	"github.com/hrygo/condense/ai/tokenizer"
	"github.com/hrygo/condense/fault"
)

// MergeByTokenBudget re-chunks the named group of n so that small pieces
// coalesce up to a token budget. Children accumulate in order into a pending
// buffer; once the buffer crosses maxTokens it is flushed as one new chunk
// and, when overlapTokens > 0, the flushed buffer's last overlapTokens
// tokens seed the next one. A child that alone exceeds maxTokens is sliced
// into windows of maxTokens advanced by maxTokens-overlapTokens (minimum
// advance 1), one chunk per window, with the final window's tail carried
// forward as the next seed.
//
// New chunks own direct content (decoded token text), get ids of the form
// <parentId>/<newGroupName>@<index>, and are written into n's newGroupName
// group as well as returned.
func (t *Tree) MergeByTokenBudget(n *Node, groupName string, maxTokens int, codec tokenizer.Codec, overlapTokens int, newGroupName string) ([]*Node, error) {
	if maxTokens < 1 {
		return nil, fault.InvalidArgumentf("maxTokens must be >= 1, got %d", maxTokens)
	}
	if overlapTokens < 0 {
		return nil, fault.InvalidArgumentf("overlapTokens must be >= 0, got %d", overlapTokens)
	}
	children, err := n.Group(groupName)
	if err != nil {
		return nil, err
	}

	// The builder accumulates new chunks and is swapped into the tree at the
	// end; the source group is never mutated while being iterated.
	out := make([]*Node, 0, len(children))
	emit := func(tokens []int) {
		out = append(out, newChunk(n.ID, newGroupName, len(out), codec.Decode(tokens)))
	}

	var pending []int
	// fresh is false while pending holds nothing beyond a carried overlap
	// seed; a seed-only buffer is never flushed, as that would emit a chunk
	// duplicating the tail of the previous one.
	fresh := false
	seedFrom := func(tokens []int) {
		pending, fresh = nil, false
		if overlapTokens > 0 && len(tokens) > 0 {
			k := overlapTokens
			if k > len(tokens) {
				k = len(tokens)
			}
			pending = append(pending, tokens[len(tokens)-k:]...)
		}
	}

	for _, child := range children {
		text, err := t.Resolve(child)
		if err != nil {
			return nil, err
		}
		tokens := codec.Encode(text)

		if len(tokens) > maxTokens {
			if fresh {
				emit(pending)
			}
			advance := maxTokens - overlapTokens
			if advance < 1 {
				advance = 1
			}
			var last []int
			for start := 0; start < len(tokens); start += advance {
				end := start + maxTokens
				if end > len(tokens) {
					end = len(tokens)
				}
				last = tokens[start:end]
				emit(last)
				if end == len(tokens) {
					break
				}
			}
			seedFrom(last)
			continue
		}

		pending = append(pending, tokens...)
		fresh = true
		if len(pending) > maxTokens {
			flushed := pending
			emit(flushed)
			seedFrom(flushed)
		}
	}
	if fresh {
		emit(pending)
	}

	n.Chunks = ensureChunks(n.Chunks)
	n.Chunks[newGroupName] = out
	t.Reindex()
	return out, nil
}

// SplitOversizedByTokenBudget copies the named group into newGroupName,
// slicing any child whose token count exceeds maxTokens into non-overlapping
// consecutive windows of exactly maxTokens tokens (the last window may be
// shorter). Children within budget are copied unchanged apart from their id.
// Distinct children are never merged together; this is strictly a ceiling
// operation.
func (t *Tree) SplitOversizedByTokenBudget(n *Node, groupName string, maxTokens int, codec tokenizer.Codec, newGroupName string) ([]*Node, error) {
	if maxTokens < 1 {
		return nil, fault.InvalidArgumentf("maxTokens must be >= 1, got %d", maxTokens)
	}
	children, err := n.Group(groupName)
	if err != nil {
		return nil, err
	}

	out := make([]*Node, 0, len(children))
	for _, child := range children {
		text, err := t.Resolve(child)
		if err != nil {
			return nil, err
		}
		tokens := codec.Encode(text)

		if len(tokens) <= maxTokens {
			out = append(out, newChunk(n.ID, newGroupName, len(out), text))
			continue
		}
		for start := 0; start < len(tokens); start += maxTokens {
			end := start + maxTokens
			if end > len(tokens) {
				end = len(tokens)
			}
			out = append(out, newChunk(n.ID, newGroupName, len(out), codec.Decode(tokens[start:end])))
		}
	}

	n.Chunks = ensureChunks(n.Chunks)
	n.Chunks[newGroupName] = out
	t.Reindex()
	return out, nil
}

func newChunk(parentID, groupName string, index int, content string) *Node {
	c := content
	return &Node{
		ID:       fmt.Sprintf("%s/%s@%d", parentID, groupName, index),
		ParentID: parentID,
		Content:  &c,
	}
}

func ensureChunks(chunks map[string][]*Node) map[string][]*Node {
	if chunks == nil {
		return make(map[string][]*Node)
	}
	return chunks
}
