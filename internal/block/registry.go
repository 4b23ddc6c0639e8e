package block

import (
	"sort"
	"strconv"
	"sync"
)

// Row is the registry's view of a persisted paper block: content, overrides
// and meta, keyed by the block id a questionBlock node references. The row
// is owned by persistence; the registry only caches it.
type Row struct {
	ID             int64
	PaperID        int64
	Position       int
	QuestionItemID *int64
	Doc            *Doc
	Overrides      Overrides
	Meta           Meta
}

// Registry maps block ids to their current cached rows for one editing
// session. Reads tolerate ids that are not (yet) present — the consuming
// view renders a loading state, absence is never treated as deletion.
// Read-many/write-one: the session refreshes it after every external
// mutation and updates it optimistically before persistence confirms.
type Registry struct {
	mu   sync.RWMutex
	rows map[int64]Row
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rows: make(map[int64]Row)}
}

// Replace swaps the full cache contents, normally after a persistence
// refresh returning the paper's blocks.
func (r *Registry) Replace(rows []Row) {
	next := make(map[int64]Row, len(rows))
	for _, row := range rows {
		next[row.ID] = row
	}
	r.mu.Lock()
	r.rows = next
	r.mu.Unlock()
}

// Upsert inserts or overwrites a single row, used for optimistic local
// updates ahead of persistence confirmation.
func (r *Registry) Upsert(row Row) {
	r.mu.Lock()
	r.rows[row.ID] = row
	r.mu.Unlock()
}

// Delete removes a row. Unknown ids are a no-op.
func (r *Registry) Delete(id int64) {
	r.mu.Lock()
	delete(r.rows, id)
	r.mu.Unlock()
}

// Get returns the cached row for a block id. ok=false means the row is not
// cached yet (loading), not that the block was deleted.
func (r *Registry) Get(id int64) (Row, bool) {
	r.mu.RLock()
	row, ok := r.rows[id]
	r.mu.RUnlock()
	return row, ok
}

// Rows returns all cached rows sorted by position ascending.
func (r *Registry) Rows() []Row {
	r.mu.RLock()
	rows := make([]Row, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	r.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	return rows
}

// Len returns the number of cached rows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

// DisplayNumber computes the user-facing number for a block: the explicit
// displayNumber override verbatim when set, otherwise the block's 1-based
// rank among the paper's blocks ordered by position. Unknown ids return "".
func (r *Registry) DisplayNumber(id int64) string {
	row, ok := r.Get(id)
	if !ok {
		return ""
	}
	if override, ok := row.Overrides.DisplayNumber(); ok {
		return override
	}
	for i, sorted := range r.Rows() {
		if sorted.ID == id {
			return strconv.Itoa(i + 1)
		}
	}
	return ""
}
