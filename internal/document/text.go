package document

import "strings"

// PlainText strips a document to its text content. Block-level nodes are
// separated by newlines; inline content is concatenated. Used for search
// snapshots and previews only — it is never a round-trip intermediate, rich
// content is always preserved in the document itself.
func PlainText(doc *Node) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	writePlainText(doc, &b)
	return strings.TrimSpace(b.String())
}

func writePlainText(n *Node, b *strings.Builder) {
	if n.Type == TypeText {
		b.WriteString(n.Text)
		return
	}
	for i := range n.Content {
		writePlainText(&n.Content[i], b)
	}
	switch n.Type {
	case TypeParagraph, TypeHeading, TypeListItem:
		b.WriteString("\n")
	case TypeHardBreak:
		b.WriteString("\n")
	}
}

// FirstLine returns the first line of a document's plain text, for collapsed
// previews of question stems.
func FirstLine(doc *Node) string {
	text := PlainText(doc)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
