package editor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/document"
)

// ─── Fakes ──────────────────────────────────────────────────────────

type fakePaperStore struct {
	mu    sync.Mutex
	title string
	doc   *document.Node
	saves int
	err   error
}

func (f *fakePaperStore) UpdatePaper(_ context.Context, _ int64, patch PaperPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if patch.Title != nil {
		f.title = *patch.Title
	}
	if patch.ContentDoc != nil {
		f.doc = patch.ContentDoc
	}
	f.saves++
	return nil
}

func (f *fakePaperStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakePaperStore) savedTitle() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *fakePaperStore) savedDoc() *document.Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc
}

type fakeBlockStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]block.Row
}

func newFakeBlockStore() *fakeBlockStore {
	return &fakeBlockStore{rows: make(map[int64]block.Row)}
}

func (f *fakeBlockStore) AddBlock(_ context.Context, params AddBlockParams) (block.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	row := block.Row{
		ID:             f.nextID,
		PaperID:        params.PaperID,
		Position:       len(f.rows),
		QuestionItemID: params.QuestionItemID,
		Doc:            block.NewBlankDoc(params.QuestionType),
		Overrides:      block.NewOverrides(1),
		Meta:           block.NewMeta(),
	}
	if params.Position != nil {
		row.Position = *params.Position
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeBlockStore) UpdateBlock(_ context.Context, params UpdateBlockParams) (block.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[params.BlockID]
	if !ok {
		return block.Row{}, fmt.Errorf("block %d not found", params.BlockID)
	}
	if params.Doc != nil {
		row.Doc = params.Doc
	}
	if params.Overrides != nil {
		row.Overrides = block.MergeOverrides(row.Overrides, params.Overrides)
	}
	if params.Meta != nil {
		row.Meta = block.MergeMeta(row.Meta, params.Meta, time.Now())
	}
	f.rows[params.BlockID] = row
	return row, nil
}

func (f *fakeBlockStore) DeleteBlock(_ context.Context, blockID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, blockID)
	return nil
}

func (f *fakeBlockStore) ListBlocks(_ context.Context, paperID int64) ([]block.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []block.Row
	for _, row := range f.rows {
		if row.PaperID == paperID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	return rows, nil
}

func (f *fakeBlockStore) row(t *testing.T, id int64) block.Row {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	require.True(t, ok, "block %d not persisted", id)
	return row
}

type fakeUploader struct {
	gate chan struct{} // when non-nil every upload blocks until a send
	err  error
}

func (f *fakeUploader) UploadPaperImage(_ context.Context, paperID int64, filename, _ string, _ []byte) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://media.example.com/papers/%d/%s", paperID, filename), nil
}

type recordNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordNotifier) Notify(event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordNotifier) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (r *recordNotifier) has(kind EventKind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

type testEnv struct {
	session  *Session
	papers   *fakePaperStore
	blocks   *fakeBlockStore
	uploader *fakeUploader
	notifier *recordNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		papers:   &fakePaperStore{},
		blocks:   newFakeBlockStore(),
		uploader: &fakeUploader{},
		notifier: &recordNotifier{},
	}
	session, err := NewSession(Config{
		PaperID:   42,
		Title:     "Algebra Practice",
		Doc:       document.NewDoc(),
		Papers:    env.papers,
		Blocks:    env.blocks,
		Uploader:  env.uploader,
		Notifier:  env.notifier,
		Logger:    zerolog.Nop(),
		SaveDelay: 15 * time.Millisecond,
	})
	require.NoError(t, err)
	env.session = session
	t.Cleanup(session.Close)
	return env
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestTitleEditsCoalesceIntoOneSave(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.session.SetTitle("A"))
	require.NoError(t, env.session.SetTitle("Al"))
	require.NoError(t, env.session.SetTitle("Algebra"))

	waitFor(t, func() bool { return env.papers.saveCount() > 0 })
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, env.papers.saveCount())
	assert.Equal(t, "Algebra", env.papers.savedTitle())
}

func TestSaveNowBypassesDebounce(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.session.SetTitle("Immediate"))
	require.NoError(t, env.session.SaveNow(context.Background()))

	assert.Equal(t, 1, env.papers.saveCount())
	assert.Equal(t, "Immediate", env.papers.savedTitle())
	assert.False(t, env.session.debounce.Pending(keyDoc))
}

func TestSaveFailureKeepsLocalStateAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	env.papers.err = fmt.Errorf("connection reset")

	require.NoError(t, env.session.SetTitle("Unsaved"))
	waitFor(t, func() bool { return env.notifier.has(EventSaveFailed) })

	// Local edits survive the failed save.
	assert.Equal(t, "Unsaved", env.session.Title())
}

func TestMCQEditingFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	row, err := env.session.InsertQuestionBlock(ctx, block.QuestionTypeMCQ, nil, -1)
	require.NoError(t, err)

	cached, ok := env.session.Registry().Get(row.ID)
	require.True(t, ok)
	require.Len(t, cached.Doc.Options, 4)

	require.NoError(t, env.session.AddOption(row.ID))
	require.NoError(t, env.session.AddOption(row.ID))

	cached, _ = env.session.Registry().Get(row.ID)
	require.Len(t, cached.Doc.Options, 6)
	idOfC := cached.Doc.Options[2].ID
	idOfD := cached.Doc.Options[3].ID

	// Removing B shifts everything after it up one label.
	require.NoError(t, env.session.RemoveOption(row.ID, 1))

	cached, _ = env.session.Registry().Get(row.ID)
	require.Len(t, cached.Doc.Options, 5)
	labels := make([]string, len(cached.Doc.Options))
	for i, opt := range cached.Doc.Options {
		labels[i] = opt.Label
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, labels)
	assert.Equal(t, idOfC, cached.Doc.Options[1].ID, "former C should now be labelled B")
	assert.Equal(t, idOfD, cached.Doc.Options[2].ID, "former D should now be labelled C")

	require.NoError(t, env.session.SetMaxMarks(row.ID, 5))

	// Both the content channel and the override channel flush to the store.
	waitFor(t, func() bool {
		persisted := env.blocks.row(t, row.ID)
		marks, ok := persisted.Overrides.MaxMarks()
		return ok && marks == 5 && len(persisted.Doc.Options) == 5
	})

	// A registry refresh from persistence must agree with the local view.
	stemBefore := cached.Doc.StemPreview()
	require.NoError(t, env.session.RefreshRegistry(ctx))

	refreshed, ok := env.session.Registry().Get(row.ID)
	require.True(t, ok)
	marks, ok := refreshed.Overrides.MaxMarks()
	require.True(t, ok)
	assert.Equal(t, 5, marks)
	assert.Equal(t, stemBefore, refreshed.Doc.StemPreview())
	assert.Equal(t, "1", env.session.DisplayNumber(row.ID))
}

func TestRemoveOptionRespectsFloor(t *testing.T) {
	env := newTestEnv(t)

	row, err := env.session.InsertQuestionBlock(context.Background(), block.QuestionTypeMCQ, nil, -1)
	require.NoError(t, err)

	require.NoError(t, env.session.RemoveOption(row.ID, 0))
	require.NoError(t, env.session.RemoveOption(row.ID, 0))
	require.NoError(t, env.session.RemoveOption(row.ID, 0)) // at floor, no-op

	cached, _ := env.session.Registry().Get(row.ID)
	assert.Len(t, cached.Doc.Options, 2)
	assert.Equal(t, "A", cached.Doc.Options[0].Label)
	assert.Equal(t, "B", cached.Doc.Options[1].Label)
}

func TestDisplayNumberOverrideAndClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.session.InsertQuestionBlock(ctx, block.QuestionTypeShortAnswer, nil, -1)
	require.NoError(t, err)
	second, err := env.session.InsertQuestionBlock(ctx, block.QuestionTypeShortAnswer, nil, -1)
	require.NoError(t, err)

	assert.Equal(t, "1", env.session.DisplayNumber(first.ID))
	assert.Equal(t, "2", env.session.DisplayNumber(second.ID))

	// Override wins verbatim, applied optimistically.
	require.NoError(t, env.session.CommitDisplayNumber(second.ID, "7b"))
	assert.Equal(t, "7b", env.session.DisplayNumber(second.ID))

	waitFor(t, func() bool {
		_, ok := env.blocks.row(t, second.ID).Overrides.DisplayNumber()
		return ok
	})

	// Committing empty clears the override and numbering reverts.
	require.NoError(t, env.session.CommitDisplayNumber(second.ID, ""))
	assert.Equal(t, "2", env.session.DisplayNumber(second.ID))

	waitFor(t, func() bool {
		_, ok := env.blocks.row(t, second.ID).Overrides.DisplayNumber()
		return !ok
	})
}

func TestDeleteBlockRemovesNodeAndRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	row, err := env.session.InsertQuestionBlock(ctx, block.QuestionTypeEssay, nil, -1)
	require.NoError(t, err)

	doc, err := env.session.Doc()
	require.NoError(t, err)
	require.Len(t, document.BlockIDs(doc), 1)

	require.NoError(t, env.session.DeleteQuestionBlock(row.ID))

	doc, err = env.session.Doc()
	require.NoError(t, err)
	assert.Empty(t, document.BlockIDs(doc))

	_, ok := env.session.Registry().Get(row.ID)
	assert.False(t, ok)

	waitFor(t, func() bool {
		rows, _ := env.blocks.ListBlocks(ctx, 42)
		return len(rows) == 0
	})
}

func TestEditUnloadedBlockIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	// Block 99 was never loaded into the registry: missing means loading,
	// so the edit is dropped rather than treated as an error.
	require.NoError(t, env.session.AddOption(99))
	assert.False(t, env.session.debounce.Pending(keyBlockDoc+"99"))
}

func TestUndoRedoRestoresDocument(t *testing.T) {
	env := newTestEnv(t)

	next := document.NewSimpleDoc("revised body")
	require.NoError(t, env.session.ReplaceDoc(next))

	require.True(t, env.session.Undo())
	doc, err := env.session.Doc()
	require.NoError(t, err)
	assert.Empty(t, document.PlainText(doc))

	require.True(t, env.session.Redo())
	doc, err = env.session.Doc()
	require.NoError(t, err)
	assert.Contains(t, document.PlainText(doc), "revised body")

	assert.False(t, env.session.Redo(), "redo stack should be exhausted")
}

func TestRemoveOrphanBlockNodeUndoable(t *testing.T) {
	env := newTestEnv(t)

	withOrphan := document.NewDoc()
	withOrphan.Append(document.Node{Type: document.TypeQuestionBlock, Attrs: map[string]any{document.AttrBlockID: nil}})
	require.NoError(t, env.session.ReplaceDoc(withOrphan))

	anyBlock := func(map[string]any) bool { return true }

	require.True(t, env.session.RemoveOrphanBlockNode())
	doc, err := env.session.Doc()
	require.NoError(t, err)
	assert.Nil(t, doc.FindFirst(document.TypeQuestionBlock, anyBlock))

	require.True(t, env.session.Undo())
	doc, err = env.session.Doc()
	require.NoError(t, err)
	assert.NotNil(t, doc.FindFirst(document.TypeQuestionBlock, anyBlock))
}

func TestRemoveOrphanNoopKeepsRedoHistory(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.session.ReplaceDoc(document.NewSimpleDoc("draft")))
	require.True(t, env.session.Undo())

	// Nothing to remove: the call must not touch history, so the undone
	// revision stays reachable.
	assert.False(t, env.session.RemoveOrphanBlockNode())
	require.True(t, env.session.Redo())

	doc, err := env.session.Doc()
	require.NoError(t, err)
	assert.Contains(t, document.PlainText(doc), "draft")
}

func TestClosedSessionRejectsCommands(t *testing.T) {
	env := newTestEnv(t)
	env.session.Close()

	assert.ErrorIs(t, env.session.SetTitle("late"), ErrSessionClosed)
	assert.ErrorIs(t, env.session.SetMaxMarks(1, 3), ErrSessionClosed)
	_, err := env.session.InsertQuestionBlock(context.Background(), block.QuestionTypeMCQ, nil, -1)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestCloseCancelsPendingSaves(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.session.SetTitle("never persisted"))
	env.session.Close()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 0, env.papers.saveCount())
}
