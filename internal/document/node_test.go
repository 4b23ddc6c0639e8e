package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockIDPred(id int64) func(map[string]any) bool {
	return func(attrs map[string]any) bool {
		got, ok := NumericID(attrs, AttrBlockID)
		return ok && got == id
	}
}

func TestRemoveFirstByBlockID(t *testing.T) {
	doc := NewDoc()
	doc.Append(NewQuestionBlockNode(10, nil))
	doc.Append(Node{Type: TypeParagraph, Content: []Node{{Type: TypeText, Text: "between"}}})
	doc.Append(NewQuestionBlockNode(20, nil))

	removed := doc.RemoveFirst(TypeQuestionBlock, blockIDPred(10))
	assert.True(t, removed)
	assert.Nil(t, doc.FindFirst(TypeQuestionBlock, blockIDPred(10)))
	assert.NotNil(t, doc.FindFirst(TypeQuestionBlock, blockIDPred(20)))
}

func TestRemoveFirstNoMatchIsNoop(t *testing.T) {
	doc := NewDoc()
	doc.Append(NewQuestionBlockNode(10, nil))
	before := len(doc.Content)

	removed := doc.RemoveFirst(TypeQuestionBlock, blockIDPred(99))
	assert.False(t, removed)
	assert.Len(t, doc.Content, before)
}

func TestUpdateFirstStopsAtFirstMatch(t *testing.T) {
	doc := NewDoc()
	doc.Append(NewImageNode(ImageAttrs{Src: "a", UploadKey: "k1"}))
	doc.Append(NewImageNode(ImageAttrs{Src: "b", UploadKey: "k1"}))

	updated := doc.UpdateFirst(TypeImage,
		func(attrs map[string]any) bool { return AttrString(attrs, AttrUploadKey) == "k1" },
		func(attrs map[string]any) map[string]any {
			attrs[AttrSrc] = "rewritten"
			return attrs
		})
	require.True(t, updated)

	var srcs []string
	doc.Walk(func(n *Node) bool {
		if n.Type == TypeImage {
			srcs = append(srcs, AttrString(n.Attrs, AttrSrc))
		}
		return true
	})
	assert.Equal(t, []string{"rewritten", "b"}, srcs)
}

func TestOrphanDetection(t *testing.T) {
	cases := []struct {
		name   string
		attrs  map[string]any
		orphan bool
	}{
		{"nil attrs", nil, true},
		{"null blockId", map[string]any{AttrBlockID: nil}, true},
		{"non-numeric string", map[string]any{AttrBlockID: "abc"}, true},
		{"numeric string", map[string]any{AttrBlockID: "42"}, false},
		{"json number", map[string]any{AttrBlockID: float64(7)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseQuestionBlockAttrs(tc.attrs)
			assert.Equal(t, tc.orphan, parsed.IsOrphan())
		})
	}
}

func TestBlockIDsExcludesOrphans(t *testing.T) {
	doc := NewDoc()
	doc.Append(NewQuestionBlockNode(1, nil))
	doc.Append(Node{Type: TypeQuestionBlock, Attrs: map[string]any{AttrBlockID: nil}})
	doc.Append(Node{Type: TypeQuestionBlock, Attrs: map[string]any{AttrBlockID: "oops"}})
	doc.Append(NewQuestionBlockNode(3, nil))

	assert.Equal(t, []int64{1, 3}, BlockIDs(doc))
}

func TestValidateRejectsAtomicWithContent(t *testing.T) {
	doc := NewDoc()
	doc.Append(Node{
		Type:    TypeImage,
		Attrs:   map[string]any{AttrSrc: "/uploads/a.png"},
		Content: []Node{{Type: TypeParagraph}},
	})
	err := doc.Validate()
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, TypeImage, schemaErr.NodeType)
}

func TestPlainText(t *testing.T) {
	doc := &Node{Type: TypeDoc, Content: []Node{
		{Type: TypeParagraph, Content: []Node{{Type: TypeText, Text: "Photosynthesis "}, {Type: TypeText, Text: "basics"}}},
		{Type: TypeParagraph, Content: []Node{{Type: TypeText, Text: "Second line"}}},
	}}
	assert.Equal(t, "Photosynthesis basics\nSecond line", PlainText(doc))
	assert.Equal(t, "Photosynthesis basics", FirstLine(doc))
}
