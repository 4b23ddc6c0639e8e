package block

import "time"

// Override and meta keys. Both bags are sparse: absence means "inherit the
// default", never zero or false.
const (
	OverrideMaxMarks      = "maxMarks"
	OverrideDisplayNumber = "displayNumber"
	OverrideHiddenParts   = "hiddenParts"
	OverrideShowAnswerKey = "showAnswerKey"

	MetaCollapsed    = "collapsed"
	MetaFocused      = "focused"
	MetaLastEditedAt = "lastEditedAt"
)

// Overrides holds paper-specific values that supersede a block's inherited
// defaults (marks, display number). Stored as a sparse JSON object.
type Overrides map[string]any

// Meta holds editor-runtime hints for a block (collapsed, focused, last
// edit timestamp). Also sparse.
type Meta map[string]any

// NewOverrides returns the default override set for a freshly added block.
func NewOverrides(maxMarks int) Overrides {
	return Overrides{OverrideMaxMarks: maxMarks}
}

// NewMeta returns the default meta for a freshly added block.
func NewMeta() Meta {
	return Meta{MetaCollapsed: false}
}

// MaxMarks returns the marks override, if set.
func (o Overrides) MaxMarks() (int, bool) {
	switch v := o[OverrideMaxMarks].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// DisplayNumber returns the display-number override, if set. When present it
// wins unconditionally over positional numbering.
func (o Overrides) DisplayNumber() (string, bool) {
	s, ok := o[OverrideDisplayNumber].(string)
	return s, ok && s != ""
}

// HiddenParts returns the ids of parts hidden on this paper.
func (o Overrides) HiddenParts() []string {
	raw, ok := o[OverrideHiddenParts].([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids
}

// ShowAnswerKey reports whether the answer key is shown on this paper.
func (o Overrides) ShowAnswerKey() bool {
	b, _ := o[OverrideShowAnswerKey].(bool)
	return b
}

// MergeOverrides applies a partial patch: provided keys overwrite, keys
// explicitly set to null clear the override. The base map is not mutated.
func MergeOverrides(base Overrides, patch Overrides) Overrides {
	merged := make(Overrides, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged
}

// MergeMeta applies a partial meta patch and stamps lastEditedAt.
func MergeMeta(base Meta, patch Meta, now time.Time) Meta {
	merged := make(Meta, len(base)+len(patch)+1)
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	merged[MetaLastEditedAt] = now.UTC().Format(time.RFC3339)
	return merged
}
