package document

import (
	"github.com/hrygo/condense/ai/tokenizer"
	"github.com/hrygo/condense/fault"
)

// Tree wraps a document root and indexes it by node id so substring
// references can find their parent during resolution.
//
// Resolution itself is fully lazy and never cached: a parent mutation is
// visible to every descendant that resolves afterward. Only the id index is
// maintained, and the mutating transforms reindex after swapping in new
// chunk groups.
type Tree struct {
	Root *Node

	byID map[string]*Node
}

// NewTree indexes a document root.
func NewTree(root *Node) *Tree {
	t := &Tree{Root: root}
	t.Reindex()
	return t
}

// Reindex rebuilds the id index after an external mutation of the tree.
func (t *Tree) Reindex() {
	t.byID = make(map[string]*Node)
	var walk func(n *Node)
	walk = func(n *Node) {
		t.byID[n.ID] = n
		for _, group := range n.Chunks {
			for _, child := range group {
				walk(child)
			}
		}
	}
	if t.Root != nil {
		walk(t.Root)
	}
}

// Lookup finds a node by id.
func (t *Tree) Lookup(id string) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Resolve computes the text a node represents via the precedence rule
// documented on Node. A substring reference that is out of bounds, names an
// unknown parent, or participates in a reference cycle is a structure error.
func (t *Tree) Resolve(n *Node) (string, error) {
	return t.resolve(n, make(map[string]bool))
}

func (t *Tree) resolve(n *Node, visiting map[string]bool) (string, error) {
	if n.Content != nil {
		return *n.Content, nil
	}

	if n.ParentID != "" && n.Start != nil && n.Length != nil {
		if visiting[n.ID] {
			return "", fault.Structuref("reference cycle through node %q", n.ID)
		}
		visiting[n.ID] = true
		defer delete(visiting, n.ID)

		parent, ok := t.byID[n.ParentID]
		if !ok {
			return "", fault.Structuref("node %q references unknown parent %q", n.ID, n.ParentID)
		}
		parentText, err := t.resolve(parent, visiting)
		if err != nil {
			return "", err
		}
		start, length := *n.Start, *n.Length
		runes := []rune(parentText)
		if start < 0 || length < 0 || start+length > len(runes) {
			return "", fault.Structuref(
				"node %q substring [%d, %d) out of bounds of parent %q (length %d)",
				n.ID, start, start+length, n.ParentID, len(runes))
		}
		return string(runes[start : start+length]), nil
	}

	if n.ContentChunkGroup != "" {
		if group, ok := n.Chunks[n.ContentChunkGroup]; ok {
			if visiting[n.ID] {
				return "", fault.Structuref("reference cycle through node %q", n.ID)
			}
			visiting[n.ID] = true
			defer delete(visiting, n.ID)

			var sb []byte
			for _, child := range group {
				text, err := t.resolve(child, visiting)
				if err != nil {
					return "", err
				}
				sb = append(sb, text...)
			}
			return string(sb), nil
		}
	}

	return "", nil
}

// TokenCount counts the tokens of a node's resolved content.
func (t *Tree) TokenCount(n *Node, codec tokenizer.Codec) (int, error) {
	text, err := t.Resolve(n)
	if err != nil {
		return 0, err
	}
	return codec.Count(text), nil
}
