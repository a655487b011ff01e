// Package document models recursively-chunked text documents and the
// token-budgeted transforms the summarization engine runs on them.
package document

import (
	"strings"

	"github.com/hrygo/condense/fault"
)

// Node represents a unit of text: a whole document or a chunk of one.
//
// The text a node stands for is never stored redundantly; it is resolved
// lazily through exactly one of three paths, in order:
//
//  1. direct Content, verbatim;
//  2. a substring of the parent's resolved content (ParentID + Start/Length);
//  3. the in-order concatenation of the children in ContentChunkGroup.
//
// A node matching none of the paths resolves to the empty string. Content,
// when present, always wins even if a parent reference or chunk group is
// also set; callers must not rely on the later paths being consulted once
// Content is set.
type Node struct {
	// ID is an opaque unique identifier, stable for the node's lifetime.
	ID string `json:"id"`

	// Content is optional direct text.
	Content *string `json:"content,omitempty"`

	// ParentID, Start and Length form an optional substring reference into
	// the named parent's resolved content. Start/Length index runes, not
	// bytes.
	ParentID string `json:"parentId,omitempty"`
	Start    *int   `json:"start,omitempty"`
	Length   *int   `json:"length,omitempty"`

	// ContentChunkGroup names one of this node's own chunk groups whose
	// children, concatenated in order, are this node's resolved content.
	ContentChunkGroup string `json:"contentChunkGroup,omitempty"`

	// Chunks maps a chunk-group name to an ordered sequence of children.
	// Order is semantically significant: it is concatenation order and
	// sequential-fold order.
	Chunks map[string][]*Node `json:"chunks,omitempty"`

	// Annotations is the write target for generated outputs (summaries,
	// deltas). It is never read to derive content.
	Annotations map[string]any `json:"annotations,omitempty"`

	// Metadata is free-form and never consulted by resolution or
	// summarization logic.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SetAnnotation writes a generated output onto the node.
func (n *Node) SetAnnotation(field string, value any) {
	if n.Annotations == nil {
		n.Annotations = make(map[string]any)
	}
	n.Annotations[field] = value
}

// Annotation reads a previously written output.
func (n *Node) Annotation(field string) (any, bool) {
	v, ok := n.Annotations[field]
	return v, ok
}

// Group returns the named chunk group, failing if it does not exist.
func (n *Node) Group(name string) ([]*Node, error) {
	group, ok := n.Chunks[name]
	if !ok {
		return nil, fault.Structuref("node %q has no chunk group %q", n.ID, name)
	}
	return group, nil
}

// deepCopy clones the node and its chunk trees. Annotation and metadata
// maps are copied one level deep.
func (n *Node) deepCopy() *Node {
	c := &Node{
		ID:                n.ID,
		ParentID:          n.ParentID,
		ContentChunkGroup: n.ContentChunkGroup,
	}
	if n.Content != nil {
		s := *n.Content
		c.Content = &s
	}
	if n.Start != nil {
		v := *n.Start
		c.Start = &v
	}
	if n.Length != nil {
		v := *n.Length
		c.Length = &v
	}
	if n.Chunks != nil {
		c.Chunks = make(map[string][]*Node, len(n.Chunks))
		for name, group := range n.Chunks {
			copied := make([]*Node, len(group))
			for i, child := range group {
				copied[i] = child.deepCopy()
			}
			c.Chunks[name] = copied
		}
	}
	if n.Annotations != nil {
		c.Annotations = make(map[string]any, len(n.Annotations))
		for k, v := range n.Annotations {
			c.Annotations[k] = v
		}
	}
	if n.Metadata != nil {
		c.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// NewMasterFromDocuments builds a root node whose chunk group groupName
// holds deep copies of all inputs, each re-parented to the new root id.
// The master id defaults to the ":"-joined ids of all inputs. An input
// whose id collides with the master id is suffixed "_child".
func NewMasterFromDocuments(documents []*Node, masterID, groupName string) *Node {
	if groupName == "" {
		groupName = "sources"
	}
	if masterID == "" {
		ids := make([]string, len(documents))
		for i, d := range documents {
			ids[i] = d.ID
		}
		masterID = strings.Join(ids, ":")
	}

	children := make([]*Node, len(documents))
	for i, d := range documents {
		c := d.deepCopy()
		if c.ID == masterID {
			c.ID += "_child"
		}
		c.ParentID = masterID
		children[i] = c
	}

	return &Node{
		ID:                masterID,
		ContentChunkGroup: groupName,
		Chunks:            map[string][]*Node{groupName: children},
	}
}
