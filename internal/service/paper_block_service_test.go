package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Reorder only accepts an exact permutation of a paper's block ids. Anything
// else would leave unlisted blocks at stale positions and break positional
// numbering.
func TestIsPermutation(t *testing.T) {
	cases := []struct {
		name      string
		current   []int64
		submitted []int64
		want      bool
	}{
		{"reordered", []int64{1, 2, 3}, []int64{3, 1, 2}, true},
		{"identity", []int64{1, 2}, []int64{1, 2}, true},
		{"both empty", nil, nil, true},
		{"partial set", []int64{1, 2, 3}, []int64{1, 2}, false},
		{"foreign id", []int64{1, 2}, []int64{1, 9}, false},
		{"duplicate id", []int64{1, 2}, []int64{1, 1}, false},
		{"extra id", []int64{1, 2}, []int64{1, 2, 3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isPermutation(tc.current, tc.submitted))
		})
	}
}
