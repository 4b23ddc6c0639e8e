package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperforge/paperforge-backend/internal/document"
)

func TestOptionLabelSequence(t *testing.T) {
	assert.Equal(t, "A", OptionLabel(0))
	assert.Equal(t, "D", OptionLabel(3))
	assert.Equal(t, "Z", OptionLabel(25))
	assert.Equal(t, "AA", OptionLabel(26))
	assert.Equal(t, "a", PartLabel(0))
	assert.Equal(t, "c", PartLabel(2))
}

func TestRemoveOptionRelabelsContiguously(t *testing.T) {
	doc := NewBlankDoc(QuestionTypeMCQ)
	require.Len(t, doc.Options, 4)
	doc.SetOptionContent(2, document.NewSimpleDoc("was C"))
	doc.SetOptionContent(3, document.NewSimpleDoc("was D"))

	removed := doc.RemoveOption(2) // delete C
	require.True(t, removed)
	require.Len(t, doc.Options, 3)

	assert.Equal(t, "A", doc.Options[0].Label)
	assert.Equal(t, "B", doc.Options[1].Label)
	assert.Equal(t, "C", doc.Options[2].Label)
	// Former D keeps its content in the C slot.
	assert.Equal(t, "was D", document.PlainText(doc.Options[2].Content))
}

func TestRemoveOptionFloor(t *testing.T) {
	doc := NewBlankDoc(QuestionTypeMCQ)
	require.True(t, doc.RemoveOption(3))
	require.True(t, doc.RemoveOption(2))
	require.Len(t, doc.Options, 2)

	assert.False(t, doc.RemoveOption(1), "deleting below the two-option floor must be a no-op")
	assert.Len(t, doc.Options, 2)
}

func TestRemovePartFloor(t *testing.T) {
	doc := NewBlankDoc(QuestionTypeStructured)
	require.Len(t, doc.Parts, 1)

	assert.False(t, doc.RemovePart(0), "deleting the last part must be a no-op")
	assert.Len(t, doc.Parts, 1)
}

func TestAddPartLabels(t *testing.T) {
	doc := NewBlankDoc(QuestionTypeStructured)
	doc.AddPart()
	doc.AddPart()

	require.Len(t, doc.Parts, 3)
	assert.Equal(t, "a", doc.Parts[0].Label)
	assert.Equal(t, "b", doc.Parts[1].Label)
	assert.Equal(t, "c", doc.Parts[2].Label)

	require.True(t, doc.RemovePart(0))
	assert.Equal(t, "a", doc.Parts[0].Label)
	assert.Equal(t, "b", doc.Parts[1].Label)
}

func TestAddOptionKeepsIDsStable(t *testing.T) {
	doc := NewBlankDoc(QuestionTypeMCQ)
	idB := doc.Options[1].ID

	doc.AddOption()
	require.True(t, doc.RemoveOption(0))

	assert.Equal(t, idB, doc.Options[0].ID, "relabeling must not touch option ids")
	assert.Equal(t, "A", doc.Options[0].Label)
}

func TestBlankDocDefaults(t *testing.T) {
	short := NewBlankDoc(QuestionTypeShortAnswer)
	assert.Equal(t, 3, short.EffectiveAnswerLines())

	essay := NewBlankDoc(QuestionTypeEssay)
	assert.Equal(t, AnswerSpaceLarge, essay.EffectiveAnswerSpace())

	unknown := NewBlankDoc(QuestionType("riddle"))
	assert.Equal(t, QuestionTypeShortAnswer, unknown.QuestionType)

	mcq := NewBlankDoc(QuestionTypeMCQ)
	assert.NoError(t, mcq.Validate())
	mcq.Options = mcq.Options[:1]
	assert.Error(t, mcq.Validate())
}
