package block

import (
	"github.com/google/uuid"
	"github.com/paperforge/paperforge-backend/internal/document"
)

// OptionLabel returns the uppercase letter label for an option index:
// A, B, C, ... Z, AA, AB, ...
func OptionLabel(index int) string {
	return letterLabel(index, 'A')
}

// PartLabel returns the lowercase letter label for a part index:
// a, b, c, ... z, aa, ab, ...
func PartLabel(index int) string {
	return letterLabel(index, 'a')
}

func letterLabel(index int, base byte) string {
	label := []byte{}
	for {
		label = append([]byte{base + byte(index%26)}, label...)
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return string(label)
}

// relabelOptions rewrites option labels contiguously from A, preserving
// relative order. Labels are never sparse or out of order.
func relabelOptions(options []MCQOption) {
	for i := range options {
		options[i].Label = OptionLabel(i)
	}
}

// relabelParts rewrites part labels contiguously from a.
func relabelParts(parts []Part) {
	for i := range parts {
		parts[i].Label = PartLabel(i)
	}
}

// AddOption appends a new blank option with a fresh id and the next
// contiguous label, returning it.
func (d *Doc) AddOption() MCQOption {
	opt := MCQOption{
		ID:      uuid.New().String(),
		Label:   OptionLabel(len(d.Options)),
		Content: document.NewSimpleDoc(""),
	}
	d.Options = append(d.Options, opt)
	return opt
}

// RemoveOption deletes the option at index and relabels the remainder.
// Deletes below the MCQ floor or out of range are no-ops.
func (d *Doc) RemoveOption(index int) bool {
	if len(d.Options) <= MinMCQOptions || index < 0 || index >= len(d.Options) {
		return false
	}
	d.Options = append(d.Options[:index], d.Options[index+1:]...)
	relabelOptions(d.Options)
	return true
}

// SetOptionContent replaces one option's rich content. Formatting is always
// preserved: content is stored as the full document, never rebuilt from text.
func (d *Doc) SetOptionContent(index int, content *document.Node) bool {
	if index < 0 || index >= len(d.Options) {
		return false
	}
	d.Options[index].Content = content
	return true
}

// AddPart appends a new blank part with a fresh id and the next contiguous
// label, returning it.
func (d *Doc) AddPart() Part {
	part := Part{
		ID:          uuid.New().String(),
		Label:       PartLabel(len(d.Parts)),
		Content:     document.NewSimpleDoc(""),
		Marks:       1,
		AnswerLines: 2,
	}
	d.Parts = append(d.Parts, part)
	return part
}

// RemovePart deletes the part at index and relabels the remainder. Deletes
// below the structured floor or out of range are no-ops.
func (d *Doc) RemovePart(index int) bool {
	if len(d.Parts) <= MinStructuredParts || index < 0 || index >= len(d.Parts) {
		return false
	}
	d.Parts = append(d.Parts[:index], d.Parts[index+1:]...)
	relabelParts(d.Parts)
	return true
}

// SetPartContent replaces one part's rich content.
func (d *Doc) SetPartContent(index int, content *document.Node) bool {
	if index < 0 || index >= len(d.Parts) {
		return false
	}
	d.Parts[index].Content = content
	return true
}
