package block

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paperforge/paperforge-backend/internal/document"
)

// QuestionType tags the blockDoc variant carried by a paper block.
type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeShortAnswer QuestionType = "short_answer"
	QuestionTypeStructured  QuestionType = "structured"
	QuestionTypeEssay       QuestionType = "essay"
)

// Valid reports whether the question type is one of the known variants.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeShortAnswer, QuestionTypeStructured, QuestionTypeEssay:
		return true
	}
	return false
}

// AnswerSpace sizes the writing area of an essay question.
type AnswerSpace string

const (
	AnswerSpaceSmall  AnswerSpace = "small"
	AnswerSpaceMedium AnswerSpace = "medium"
	AnswerSpaceLarge  AnswerSpace = "large"
)

// Structural floors. Deletes that would go below them are no-ops.
const (
	MinMCQOptions      = 2
	MinStructuredParts = 1
)

// Defaults applied when a variant field is absent.
const (
	DefaultAnswerLines = 3
	DefaultAnswerSpace = AnswerSpaceLarge
)

// Doc is the typed sub-document stored in paper_blocks.block_doc. The stem
// and all option/part contents are rich documents; plain text is only ever
// derived from them, never written back.
type Doc struct {
	Type         string         `json:"type"` // always "questionBlock"
	QuestionType QuestionType   `json:"questionType"`
	Stem         *document.Node `json:"stem"`
	Options      []MCQOption    `json:"options,omitempty"`
	Parts        []Part         `json:"parts,omitempty"`
	AnswerLines  int            `json:"answerLines,omitempty"`
	AnswerSpace  AnswerSpace    `json:"answerSpace,omitempty"`
}

// MCQOption is one multiple-choice answer. The id is a client-generated
// token that stays stable across relabeling.
type MCQOption struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Content   *document.Node `json:"content"`
	IsCorrect bool           `json:"isCorrect,omitempty"`
}

// Part is one sub-part of a structured question (Q1a, Q1b, ...).
type Part struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Content     *document.Node `json:"content"`
	Marks       int            `json:"marks,omitempty"`
	AnswerLines int            `json:"answerLines,omitempty"`
}

// NewBlankDoc builds the default sub-document for a fresh question of the
// given type. Unknown types fall back to short answer.
func NewBlankDoc(questionType QuestionType) *Doc {
	doc := &Doc{
		Type:         document.TypeQuestionBlock,
		QuestionType: questionType,
		Stem:         document.NewSimpleDoc(""),
	}

	switch questionType {
	case QuestionTypeMCQ:
		for i := 0; i < 4; i++ {
			doc.Options = append(doc.Options, MCQOption{
				ID:      uuid.New().String(),
				Label:   OptionLabel(i),
				Content: document.NewSimpleDoc(""),
			})
		}
	case QuestionTypeStructured:
		doc.Parts = []Part{{
			ID:          uuid.New().String(),
			Label:       PartLabel(0),
			Content:     document.NewSimpleDoc(""),
			Marks:       1,
			AnswerLines: 2,
		}}
	case QuestionTypeEssay:
		doc.AnswerSpace = DefaultAnswerSpace
	case QuestionTypeShortAnswer:
		doc.AnswerLines = DefaultAnswerLines
	default:
		doc.QuestionType = QuestionTypeShortAnswer
		doc.AnswerLines = DefaultAnswerLines
	}

	return doc
}

// Validate checks the variant-specific structural invariants.
func (d *Doc) Validate() error {
	if !d.QuestionType.Valid() {
		return fmt.Errorf("block: unknown question type %q", d.QuestionType)
	}
	switch d.QuestionType {
	case QuestionTypeMCQ:
		if len(d.Options) < MinMCQOptions {
			return fmt.Errorf("block: mcq requires at least %d options, got %d", MinMCQOptions, len(d.Options))
		}
	case QuestionTypeStructured:
		if len(d.Parts) < MinStructuredParts {
			return fmt.Errorf("block: structured requires at least %d part, got %d", MinStructuredParts, len(d.Parts))
		}
	}
	return nil
}

// EffectiveAnswerLines returns the configured answer lines or the default.
func (d *Doc) EffectiveAnswerLines() int {
	if d.AnswerLines > 0 {
		return d.AnswerLines
	}
	return DefaultAnswerLines
}

// EffectiveAnswerSpace returns the configured answer space or the default.
func (d *Doc) EffectiveAnswerSpace() AnswerSpace {
	if d.AnswerSpace != "" {
		return d.AnswerSpace
	}
	return DefaultAnswerSpace
}

// StemPreview returns the first line of the stem's plain text, for
// collapsed block headers.
func (d *Doc) StemPreview() string {
	return document.FirstLine(d.Stem)
}

// PlainText flattens the stem and all option/part contents into a search
// snapshot. Derived only; the rich documents stay authoritative.
func (d *Doc) PlainText() string {
	var b strings.Builder
	b.WriteString(document.PlainText(d.Stem))
	for _, opt := range d.Options {
		if text := document.PlainText(opt.Content); text != "" {
			b.WriteString("\n")
			b.WriteString(opt.Label)
			b.WriteString(". ")
			b.WriteString(text)
		}
	}
	for _, part := range d.Parts {
		if text := document.PlainText(part.Content); text != "" {
			b.WriteString("\n")
			b.WriteString(part.Label)
			b.WriteString(") ")
			b.WriteString(text)
		}
	}
	return b.String()
}

// Clone returns a deep copy via a JSON round trip, so edits to the copy
// never leak into the cached original.
func (d *Doc) Clone() (*Doc, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("block: clone doc: %w", err)
	}
	var out Doc
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("block: clone doc: %w", err)
	}
	return &out, nil
}
