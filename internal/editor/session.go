package editor

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/document"
)

// Debounce keys. Document-level edits share one channel; every block gets
// independent content and override channels, so saves on different keys may
// complete in any order without contending.
const (
	keyDoc           = "doc"
	keyBlockDoc      = "block:doc:"
	keyBlockOverride = "block:override:"
)

// Default debounce delay matching the editor's autosave cadence.
const DefaultSaveDelay = time.Second

// ErrSessionClosed is returned by commands issued after teardown.
var ErrSessionClosed = errors.New("editor: session closed")

// historyLimit caps the undo journal.
const historyLimit = 100

// Config wires a session to its collaborators.
type Config struct {
	PaperID   int64
	Title     string
	Doc       *document.Node // persisted form; hydrated on construction
	Papers    PaperStore
	Blocks    BlockStore
	Uploader  Uploader
	Notifier  Notifier
	Logger    zerolog.Logger
	SaveDelay time.Duration
}

// Session is a single-writer editing session over one paper. All tree
// mutations are serialized through the session mutex; the independent async
// flows (debounced saves, uploads) are each scoped to their own key and
// check liveness before applying late results.
type Session struct {
	paperID  int64
	papers   PaperStore
	blocks   BlockStore
	uploader Uploader
	notify   Notifier
	log      zerolog.Logger

	debounce *Debouncer
	previews *PreviewStore

	mu               sync.Mutex
	title            string
	doc              *document.Node
	registry         *block.Registry
	pendingOverrides map[int64]block.Overrides
	undo             []*document.Node
	redo             []*document.Node

	closed  atomic.Bool
	uploads sync.WaitGroup
}

// NewSession hydrates the persisted document and builds a live session.
func NewSession(cfg Config) (*Session, error) {
	doc := cfg.Doc
	if doc == nil {
		doc = document.NewDoc()
	}
	hydrated, err := document.HydrateForEdit(doc)
	if err != nil {
		return nil, err
	}

	delay := cfg.SaveDelay
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	notify := cfg.Notifier
	if notify == nil {
		notify = NopNotifier{}
	}

	return &Session{
		paperID:          cfg.PaperID,
		papers:           cfg.Papers,
		blocks:           cfg.Blocks,
		uploader:         cfg.Uploader,
		notify:           notify,
		log:              cfg.Logger.With().Str("component", "editor_session").Int64("paper_id", cfg.PaperID).Logger(),
		debounce:         NewDebouncer(delay),
		previews:         NewPreviewStore(),
		title:            cfg.Title,
		doc:              hydrated,
		registry:         block.NewRegistry(),
		pendingOverrides: make(map[int64]block.Overrides),
	}, nil
}

// Close tears the session down: all pending debounce timers are cancelled
// so nothing writes against a stale context. In-flight uploads and saves
// finish on their own and are dropped by the liveness check.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.debounce.Close()
}

// Closed reports whether the session was torn down.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Registry exposes the session's block lookup layer.
func (s *Session) Registry() *block.Registry {
	return s.registry
}

// Doc returns a detached snapshot of the current document.
func (s *Session) Doc() (*document.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.Clone(s.doc)
}

// Title returns the current paper title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// ─── Document-level commands ────────────────────────────────────────

// SetTitle updates the paper title locally and schedules a document save.
func (s *Session) SetTitle(title string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	s.scheduleDocSave()
	return nil
}

// ReplaceDoc swaps the whole document for a new revision coming from the
// editing surface, records undo history and schedules a save.
func (s *Session) ReplaceDoc(doc *document.Node) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	next, err := document.Clone(doc)
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.recordHistoryLocked()
	s.doc = next
	s.mu.Unlock()
	s.scheduleDocSave()
	return nil
}

// Undo restores the previous document revision, if any.
func (s *Session) Undo() bool {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.doc)
	s.doc = prev
	s.mu.Unlock()
	s.scheduleDocSave()
	return true
}

// Redo reapplies an undone revision, if any.
func (s *Session) Redo() bool {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.doc)
	s.doc = next
	s.mu.Unlock()
	s.scheduleDocSave()
	return true
}

// recordHistoryLocked pushes the current revision onto the undo stack and
// clears redo. Callers hold s.mu. Internal metadata fixes (upload rewrites)
// bypass this so they never enter the user-visible history.
func (s *Session) recordHistoryLocked() {
	snapshot, err := document.Clone(s.doc)
	if err != nil {
		return
	}
	s.undo = append(s.undo, snapshot)
	if len(s.undo) > historyLimit {
		s.undo = s.undo[1:]
	}
	s.redo = nil
}

// SaveNow persists the document immediately, bypassing the debounce. Used
// for the explicit "save now" action and as the retry path after a failed
// autosave.
func (s *Session) SaveNow(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.debounce.Cancel(keyDoc)
	return s.saveDoc(ctx)
}

func (s *Session) scheduleDocSave() {
	s.debounce.Trigger(keyDoc, func() {
		if err := s.saveDoc(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("Document autosave failed")
			s.notify.Notify(Event{Kind: EventSaveFailed, Message: "Failed to save changes"})
			return
		}
		s.notify.Notify(Event{Kind: EventSaved})
	})
}

// saveDoc runs the serialization normalizer and hands the result to the
// paper store. The local document is untouched: the prepared tree is a
// detached clone, so a failed save never corrupts editing state.
func (s *Session) saveDoc(ctx context.Context) error {
	s.mu.Lock()
	title := s.title
	current := s.doc
	s.mu.Unlock()

	prepared, err := document.PrepareForSave(current)
	if err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.papers.UpdatePaper(ctx, s.paperID, PaperPatch{
		Title:      &title,
		ContentDoc: prepared,
	})
}

// ─── Block commands ─────────────────────────────────────────────────

// RefreshRegistry reloads the paper's blocks from persistence into the
// registry cache.
func (s *Session) RefreshRegistry(ctx context.Context) error {
	rows, err := s.blocks.ListBlocks(ctx, s.paperID)
	if err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.registry.Replace(rows)
	s.notify.Notify(Event{Kind: EventBlocksRefreshed})
	return nil
}

// InsertQuestionBlock creates a block row and inserts the referencing node.
// Row creation is synchronous (the node needs a real id); the caller sees
// the inserted node immediately, registry and document update optimistically.
// position < 0 appends at the end of the document.
func (s *Session) InsertQuestionBlock(ctx context.Context, questionType block.QuestionType, questionItemID *int64, position int) (block.Row, error) {
	if s.closed.Load() {
		return block.Row{}, ErrSessionClosed
	}
	row, err := s.blocks.AddBlock(ctx, AddBlockParams{
		PaperID:        s.paperID,
		QuestionItemID: questionItemID,
		QuestionType:   questionType,
	})
	if err != nil {
		return block.Row{}, err
	}

	s.registry.Upsert(row)

	node := document.NewQuestionBlockNode(row.ID, row.QuestionItemID)
	s.mu.Lock()
	s.recordHistoryLocked()
	if position < 0 {
		s.doc.Append(node)
	} else {
		s.doc.InsertAt(position, node)
	}
	s.mu.Unlock()

	s.scheduleDocSave()
	return row, nil
}

// DeleteQuestionBlock removes the block's node from the document (a missing
// node is a no-op) and deletes the row. The registry entry is dropped
// optimistically; a failed delete is surfaced, not rolled back.
func (s *Session) DeleteQuestionBlock(blockID int64) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.mu.Lock()
	s.recordHistoryLocked()
	s.doc.RemoveFirst(document.TypeQuestionBlock, func(attrs map[string]any) bool {
		id, ok := document.NumericID(attrs, document.AttrBlockID)
		return ok && id == blockID
	})
	s.mu.Unlock()

	s.registry.Delete(blockID)
	s.debounce.Cancel(keyBlockDoc + itoa(blockID))
	s.debounce.Cancel(keyBlockOverride + itoa(blockID))

	go func() {
		if err := s.blocks.DeleteBlock(context.Background(), blockID); err != nil {
			s.log.Error().Err(err).Int64("block_id", blockID).Msg("Block delete failed")
			s.notify.Notify(Event{Kind: EventSaveFailed, BlockID: blockID, Message: "Failed to delete question"})
		}
	}()

	s.scheduleDocSave()
	return nil
}

// RemoveOrphanBlockNode deletes a questionBlock node that lost its block
// reference. Orphans are excluded from lookups, so only the document
// changes; nothing is persisted on the block side.
func (s *Session) RemoveOrphanBlockNode() bool {
	isOrphan := func(attrs map[string]any) bool {
		return document.ParseQuestionBlockAttrs(attrs).IsOrphan()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// History is recorded only when a removal will happen, so a no-op call
	// leaves the redo stack intact.
	if s.doc.FindFirst(document.TypeQuestionBlock, isOrphan) == nil {
		return false
	}
	s.recordHistoryLocked()
	return s.doc.RemoveFirst(document.TypeQuestionBlock, isOrphan)
}

// EditBlockDoc applies a mutation to a block's sub-document. The mutation
// runs on a detached copy; the updated row is placed in the registry
// optimistically and the block's content save channel is scheduled.
func (s *Session) EditBlockDoc(blockID int64, mutate func(*block.Doc) bool) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	row, ok := s.registry.Get(blockID)
	if !ok || row.Doc == nil {
		// Row not cached yet; the view shows a loading state and the edit
		// surface is disabled, so there is nothing to mutate.
		return nil
	}

	docCopy, err := row.Doc.Clone()
	if err != nil {
		return err
	}
	if !mutate(docCopy) {
		return nil
	}
	row.Doc = docCopy
	s.registry.Upsert(row)

	s.debounce.Trigger(keyBlockDoc+itoa(blockID), func() {
		current, ok := s.registry.Get(blockID)
		if !ok || s.closed.Load() {
			return
		}
		_, err := s.blocks.UpdateBlock(context.Background(), UpdateBlockParams{
			BlockID: blockID,
			Doc:     current.Doc,
			Meta:    block.Meta{},
		})
		if err != nil {
			s.log.Error().Err(err).Int64("block_id", blockID).Msg("Block autosave failed")
			s.notify.Notify(Event{Kind: EventSaveFailed, BlockID: blockID, Message: "Failed to save question"})
			return
		}
		s.notify.Notify(Event{Kind: EventSaved, BlockID: blockID})
	})
	return nil
}

// EditStem replaces a block's stem document.
func (s *Session) EditStem(blockID int64, stem *document.Node) error {
	return s.EditBlockDoc(blockID, func(d *block.Doc) bool {
		d.Stem = stem
		return true
	})
}

// AddOption appends an MCQ option with the next contiguous label.
func (s *Session) AddOption(blockID int64) error {
	return s.EditBlockDoc(blockID, func(d *block.Doc) bool {
		d.AddOption()
		return true
	})
}

// RemoveOption deletes an option by index; below-floor deletes are no-ops.
func (s *Session) RemoveOption(blockID int64, index int) error {
	return s.EditBlockDoc(blockID, func(d *block.Doc) bool {
		return d.RemoveOption(index)
	})
}

// SetOptionContent replaces one option's rich content.
func (s *Session) SetOptionContent(blockID int64, index int, content *document.Node) error {
	return s.EditBlockDoc(blockID, func(d *block.Doc) bool {
		return d.SetOptionContent(index, content)
	})
}

// AddPart appends a structured part with the next contiguous label.
func (s *Session) AddPart(blockID int64) error {
	return s.EditBlockDoc(blockID, func(d *block.Doc) bool {
		d.AddPart()
		return true
	})
}

// RemovePart deletes a part by index; below-floor deletes are no-ops.
func (s *Session) RemovePart(blockID int64, index int) error {
	return s.EditBlockDoc(blockID, func(d *block.Doc) bool {
		return d.RemovePart(index)
	})
}

// SetPartContent replaces one part's rich content.
func (s *Session) SetPartContent(blockID int64, index int, content *document.Node) error {
	return s.EditBlockDoc(blockID, func(d *block.Doc) bool {
		return d.SetPartContent(index, content)
	})
}

// SetOverrides applies a sparse override patch: provided keys overwrite,
// nulls clear. Marks edits land here, never in the shared block document —
// marks are paper-specific, content is question-specific. Patches for the
// same block coalesce onto one debounce channel, independent of the block's
// content channel.
func (s *Session) SetOverrides(blockID int64, patch block.Overrides) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	row, ok := s.registry.Get(blockID)
	if ok {
		row.Overrides = block.MergeOverrides(row.Overrides, patch)
		s.registry.Upsert(row)
	}

	s.mu.Lock()
	pending := s.pendingOverrides[blockID]
	merged := make(block.Overrides, len(pending)+len(patch))
	for k, v := range pending {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v // keep explicit nulls: they clear on the server too
	}
	s.pendingOverrides[blockID] = merged
	s.mu.Unlock()

	s.debounce.Trigger(keyBlockOverride+itoa(blockID), func() {
		s.mu.Lock()
		toSend := s.pendingOverrides[blockID]
		delete(s.pendingOverrides, blockID)
		s.mu.Unlock()
		if len(toSend) == 0 || s.closed.Load() {
			return
		}
		_, err := s.blocks.UpdateBlock(context.Background(), UpdateBlockParams{
			BlockID:   blockID,
			Overrides: toSend,
		})
		if err != nil {
			s.log.Error().Err(err).Int64("block_id", blockID).Msg("Override autosave failed")
			s.notify.Notify(Event{Kind: EventSaveFailed, BlockID: blockID, Message: "Failed to save question settings"})
			return
		}
		s.notify.Notify(Event{Kind: EventSaved, BlockID: blockID})
	})
	return nil
}

// SetMaxMarks writes the marks override for a block.
func (s *Session) SetMaxMarks(blockID int64, marks int) error {
	return s.SetOverrides(blockID, block.Overrides{block.OverrideMaxMarks: marks})
}

// CommitDisplayNumber commits an edited display number. An empty string
// clears the override so numbering reverts to positional. (Escape never
// reaches the session: cancelling restores the prior value client-side.)
func (s *Session) CommitDisplayNumber(blockID int64, value string) error {
	if value == "" {
		return s.SetOverrides(blockID, block.Overrides{block.OverrideDisplayNumber: nil})
	}
	return s.SetOverrides(blockID, block.Overrides{block.OverrideDisplayNumber: value})
}

// DisplayNumber resolves a block's user-facing number via the registry.
func (s *Session) DisplayNumber(blockID int64) string {
	return s.registry.DisplayNumber(blockID)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
