package document

// QuestionBlock node attribute keys.
const (
	AttrBlockID        = "blockId"
	AttrQuestionItemID = "questionItemId"
)

// QuestionBlockAttrs is the typed view of a questionBlock node's attrs.
// BlockID is nil for an orphaned node (missing, null or non-numeric id).
type QuestionBlockAttrs struct {
	BlockID        *int64
	QuestionItemID *int64
}

// ParseQuestionBlockAttrs narrows a questionBlock node's attrs. It never
// coerces an invalid id: orphans keep a nil BlockID.
func ParseQuestionBlockAttrs(attrs map[string]any) QuestionBlockAttrs {
	var out QuestionBlockAttrs
	if id, ok := NumericID(attrs, AttrBlockID); ok {
		out.BlockID = &id
	}
	if id, ok := NumericID(attrs, AttrQuestionItemID); ok {
		out.QuestionItemID = &id
	}
	return out
}

// IsOrphan reports whether the node lacks a usable block reference and must
// render as a removable error stub.
func (a QuestionBlockAttrs) IsOrphan() bool {
	return a.BlockID == nil
}

// NewQuestionBlockNode builds an atomic questionBlock node referencing a
// persisted block row. questionItemID records provenance and may be nil.
func NewQuestionBlockNode(blockID int64, questionItemID *int64) Node {
	attrs := map[string]any{AttrBlockID: blockID}
	if questionItemID != nil {
		attrs[AttrQuestionItemID] = *questionItemID
	}
	return Node{Type: TypeQuestionBlock, Attrs: attrs}
}

// BlockIDs collects the block ids of all non-orphaned questionBlock nodes in
// document order. Orphans are excluded from save-time lookups.
func BlockIDs(doc *Node) []int64 {
	var ids []int64
	doc.Walk(func(n *Node) bool {
		if n.Type == TypeQuestionBlock {
			if attrs := ParseQuestionBlockAttrs(n.Attrs); !attrs.IsOrphan() {
				ids = append(ids, *attrs.BlockID)
			}
		}
		return true
	})
	return ids
}
