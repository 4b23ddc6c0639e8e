package document

import "encoding/json"

// Node type discriminators used on the wire. These match the editor's
// serialized JSON, so they are camelCase rather than Go-style names.
const (
	TypeDoc            = "doc"
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeText           = "text"
	TypeImage          = "image"
	TypeSpacer         = "spacer"
	TypeLogo           = "logo"
	TypeQuestionBlock  = "questionBlock"
	TypeHorizontalRule = "horizontalRule"
	TypeHardBreak      = "hardBreak"
	TypeBulletList     = "bulletList"
	TypeOrderedList    = "orderedList"
	TypeListItem       = "listItem"
)

// ContentVersion tags every persisted document payload so the node schema
// can be migrated later. Unknown attrs keys are ignored on read, never rejected.
const ContentVersion = "tiptap_v1"

// Node is one entry in the document tree. Attrs is a flat map of
// primitive values; typed accessors narrow it per node type.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Mark is inline formatting applied to a text node (bold, italic, link, ...).
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// atomicTypes are nodes with no editable child content, treated as a single
// opaque unit. They must never carry content.
var atomicTypes = map[string]bool{
	TypeImage:          true,
	TypeSpacer:         true,
	TypeLogo:           true,
	TypeQuestionBlock:  true,
	TypeHorizontalRule: true,
	TypeHardBreak:      true,
}

// IsAtomic reports whether the node type is atomic.
func (n *Node) IsAtomic() bool {
	return atomicTypes[n.Type]
}

// NewDoc returns an empty document: a doc node with a single empty paragraph,
// which is the smallest schema-valid document the editor accepts.
func NewDoc() *Node {
	return &Node{
		Type:    TypeDoc,
		Content: []Node{{Type: TypeParagraph}},
	}
}

// NewSimpleDoc returns a single-paragraph document wrapping the given text.
// An empty string produces an empty paragraph.
func NewSimpleDoc(text string) *Node {
	p := Node{Type: TypeParagraph}
	if text != "" {
		p.Content = []Node{{Type: TypeText, Text: text}}
	}
	return &Node{Type: TypeDoc, Content: []Node{p}}
}

// Walk visits every node in the tree depth-first, parents before children.
// The visitor returns false to stop the walk early.
func (n *Node) Walk(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for i := range n.Content {
		if !n.Content[i].Walk(visit) {
			return false
		}
	}
	return true
}

// FindFirst returns the first node (depth-first) of the given type matching
// pred, or nil. The walk stops at the first match.
func (n *Node) FindFirst(nodeType string, pred func(attrs map[string]any) bool) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if node.Type == nodeType && pred(node.Attrs) {
			found = node
			return false
		}
		return true
	})
	return found
}

// UpdateFirst rewrites the attrs of the first matching node in place and
// reports whether a node was updated. No match is a no-op, not an error.
func (n *Node) UpdateFirst(nodeType string, pred func(attrs map[string]any) bool, update func(attrs map[string]any) map[string]any) bool {
	node := n.FindFirst(nodeType, pred)
	if node == nil {
		return false
	}
	attrs := make(map[string]any, len(node.Attrs))
	for k, v := range node.Attrs {
		attrs[k] = v
	}
	node.Attrs = update(attrs)
	return true
}

// RemoveFirst deletes the first matching node from the tree and reports
// whether anything was removed. No match is a no-op.
func (n *Node) RemoveFirst(nodeType string, pred func(attrs map[string]any) bool) bool {
	for i := range n.Content {
		child := &n.Content[i]
		if child.Type == nodeType && pred(child.Attrs) {
			n.Content = append(n.Content[:i], n.Content[i+1:]...)
			return true
		}
		if child.RemoveFirst(nodeType, pred) {
			return true
		}
	}
	return false
}

// InsertAt inserts a node into the document's top-level content at the given
// index. Indexes past the end append; negative indexes prepend.
func (n *Node) InsertAt(index int, node Node) {
	if index < 0 {
		index = 0
	}
	if index > len(n.Content) {
		index = len(n.Content)
	}
	n.Content = append(n.Content[:index], append([]Node{node}, n.Content[index:]...)...)
}

// Append adds a node to the end of the document's top-level content.
func (n *Node) Append(node Node) {
	n.Content = append(n.Content, node)
}

// Validate checks schema validity: atomic nodes never have content and text
// nodes never have children.
func (n *Node) Validate() error {
	var invalid *Node
	n.Walk(func(node *Node) bool {
		if node.IsAtomic() && len(node.Content) > 0 {
			invalid = node
			return false
		}
		if node.Type == TypeText && len(node.Content) > 0 {
			invalid = node
			return false
		}
		return true
	})
	if invalid != nil {
		return &SchemaError{NodeType: invalid.Type}
	}
	return nil
}

// SchemaError reports a node that violates the document schema.
type SchemaError struct {
	NodeType string
}

func (e *SchemaError) Error() string {
	return "document: node type " + e.NodeType + " violates schema"
}

// Clone deep-copies the tree through a JSON serialize/deserialize round trip.
// Attr maps handed out by editing frontends do not reliably survive crossing
// into the persistence layer unless fully detached, so every save and load
// path clones first.
func Clone(n *Node) (*Node, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	var out Node
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Parse decodes a serialized document. Unknown attrs keys are kept as-is so
// newer payloads survive older readers.
func Parse(raw json.RawMessage) (*Node, error) {
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Marshal encodes the document for storage.
func Marshal(n *Node) (json.RawMessage, error) {
	return json.Marshal(n)
}
