package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/paperforge/paperforge-backend/internal/config"
	"github.com/paperforge/paperforge-backend/internal/document"
	"github.com/paperforge/paperforge-backend/internal/editor"
	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/repository"
)

// Common resource errors.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrNotOwner        = errors.New("not the owner of this resource")
	ErrInvalidDocument = errors.New("invalid document structure")
)

// PaperService handles paper lifecycle and content persistence. It also
// implements the edit session's paper store: autosaves land here after the
// serialization normalizer has run.
type PaperService struct {
	papers *repository.PaperRepository
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(papers *repository.PaperRepository, rdb *redis.Client, log zerolog.Logger) *PaperService {
	return &PaperService{
		papers: papers,
		rdb:    rdb,
		log:    log.With().Str("component", "paper_service").Logger(),
	}
}

// Create builds a new paper with an empty document tree.
func (s *PaperService) Create(ctx context.Context, authorID int64, req *model.CreatePaperRequest) (*model.Paper, error) {
	contentDoc, err := document.Marshal(document.NewDoc())
	if err != nil {
		return nil, fmt.Errorf("encode empty document: %w", err)
	}

	paper := &model.Paper{
		AuthorID:       authorID,
		Title:          req.Title,
		Subject:        req.Subject,
		GradeLevel:     req.GradeLevel,
		ContentVersion: document.ContentVersion,
		ContentDoc:     contentDoc,
		Status:         model.PaperStatusDraft,
	}
	if err := s.papers.Create(ctx, paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// Get retrieves a paper after verifying ownership. The content tree is the
// persisted save form.
func (s *PaperService) Get(ctx context.Context, authorID, paperID int64) (*model.Paper, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if paper.AuthorID != authorID {
		return nil, ErrNotOwner
	}
	return paper, nil
}

// GetForEdit retrieves a paper with its content hydrated for the editing
// surface: pending sentinels become renderable placeholders.
func (s *PaperService) GetForEdit(ctx context.Context, authorID, paperID int64) (*model.Paper, error) {
	paper, err := s.Get(ctx, authorID, paperID)
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(paper.ContentDoc)
	if err != nil {
		return nil, fmt.Errorf("decode paper %d content: %w", paperID, err)
	}
	hydrated, err := document.HydrateForEdit(doc)
	if err != nil {
		return nil, err
	}
	if paper.ContentDoc, err = document.Marshal(hydrated); err != nil {
		return nil, err
	}
	return paper, nil
}

// List retrieves summaries of an author's papers.
func (s *PaperService) List(ctx context.Context, authorID int64) ([]model.PaperSummary, error) {
	return s.papers.ListByAuthor(ctx, authorID)
}

// Update applies a partial update. A content_doc payload is parsed,
// schema-checked and run through the save normalizer before it is stored,
// so transient references never reach the database.
func (s *PaperService) Update(ctx context.Context, authorID, paperID int64, req *model.UpdatePaperRequest) (*model.Paper, error) {
	if err := s.VerifyOwner(ctx, authorID, paperID); err != nil {
		return nil, err
	}

	if err := s.papers.UpdateMeta(ctx, paperID, req.Title, req.Subject, req.GradeLevel, req.Status); err != nil {
		return nil, err
	}

	if len(req.ContentDoc) > 0 {
		doc, err := document.Parse(req.ContentDoc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		if err := s.storeContent(ctx, paperID, nil, doc); err != nil {
			return nil, err
		}
	}

	return s.papers.GetByID(ctx, paperID)
}

// Delete removes a paper and its blocks.
func (s *PaperService) Delete(ctx context.Context, authorID, paperID int64) error {
	if err := s.VerifyOwner(ctx, authorID, paperID); err != nil {
		return err
	}
	if err := s.papers.Delete(ctx, paperID); err != nil {
		return err
	}
	s.rdb.Del(ctx, config.CacheKey.PaperBlocksKey(paperID))
	return nil
}

// VerifyOwner checks that the paper exists and belongs to the author.
func (s *PaperService) VerifyOwner(ctx context.Context, authorID, paperID int64) error {
	ownerID, err := s.papers.GetOwnerID(ctx, paperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if ownerID != authorID {
		return ErrNotOwner
	}
	return nil
}

// UpdatePaper implements the edit session's paper store. The session hands
// over an already-normalized tree; it is persisted as-is and a plain-text
// snapshot refresh is queued for the background worker.
func (s *PaperService) UpdatePaper(ctx context.Context, paperID int64, patch editor.PaperPatch) error {
	if patch.ContentDoc == nil {
		return s.papers.UpdateMeta(ctx, paperID, patch.Title, nil, nil, nil)
	}
	return s.storeContent(ctx, paperID, patch.Title, patch.ContentDoc)
}

func (s *PaperService) storeContent(ctx context.Context, paperID int64, title *string, doc *document.Node) error {
	prepared, err := document.PrepareForSave(doc)
	if err != nil {
		return err
	}
	raw, err := document.Marshal(prepared)
	if err != nil {
		return err
	}
	if err := s.papers.UpdateContent(ctx, paperID, title, raw); err != nil {
		return err
	}
	s.enqueueSnapshot(ctx, paperID)
	return nil
}

// enqueueSnapshot queues a plain-text snapshot refresh. Failures are logged
// and dropped: the snapshot is derived data and the next save re-queues it.
func (s *PaperService) enqueueSnapshot(ctx context.Context, paperID int64) {
	payload, _ := json.Marshal(map[string]interface{}{"paper_id": paperID})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PaperSnapshotQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Int64("paper_id", paperID).Msg("Snapshot enqueue failed")
	}
}
