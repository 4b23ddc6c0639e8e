package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNumberFollowsPosition(t *testing.T) {
	r := NewRegistry()
	r.Replace([]Row{
		{ID: 100, Position: 2}, // X
		{ID: 200, Position: 0}, // Y
		{ID: 300, Position: 1}, // Z
	})

	assert.Equal(t, "1", r.DisplayNumber(200))
	assert.Equal(t, "2", r.DisplayNumber(300))
	assert.Equal(t, "3", r.DisplayNumber(100))
}

func TestDisplayNumberOverrideWins(t *testing.T) {
	r := NewRegistry()
	r.Replace([]Row{
		{ID: 100, Position: 0},
		{ID: 200, Position: 1, Overrides: Overrides{OverrideDisplayNumber: "2b"}},
	})

	assert.Equal(t, "1", r.DisplayNumber(100))
	assert.Equal(t, "2b", r.DisplayNumber(200))
}

func TestGetMissingIsLoadingNotDeletion(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get(42)
	assert.False(t, ok)
	assert.Empty(t, r.DisplayNumber(42))

	// The row shows up after a refresh; nothing was lost.
	r.Upsert(Row{ID: 42, Position: 0})
	_, ok = r.Get(42)
	assert.True(t, ok)
}

func TestMergeOverridesNullClears(t *testing.T) {
	base := Overrides{OverrideMaxMarks: 5, OverrideDisplayNumber: "3a"}

	merged := MergeOverrides(base, Overrides{
		OverrideMaxMarks:      7,
		OverrideDisplayNumber: nil,
	})

	marks, ok := merged.MaxMarks()
	assert.True(t, ok)
	assert.Equal(t, 7, marks)

	_, ok = merged.DisplayNumber()
	assert.False(t, ok, "null must clear the override, reverting to positional numbering")

	// Base is untouched.
	n, ok := base.DisplayNumber()
	assert.True(t, ok)
	assert.Equal(t, "3a", n)
}

func TestOverridesAreSparse(t *testing.T) {
	o := Overrides{}
	_, ok := o.MaxMarks()
	assert.False(t, ok, "absent means inherit, not zero")
	assert.False(t, o.ShowAnswerKey())
	assert.Nil(t, o.HiddenParts())
}
