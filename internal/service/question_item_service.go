package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/repository"
)

// QuestionItemService handles the author's reusable question library.
type QuestionItemService struct {
	items *repository.QuestionItemRepository
	log   zerolog.Logger
}

// NewQuestionItemService creates a new QuestionItemService.
func NewQuestionItemService(items *repository.QuestionItemRepository, log zerolog.Logger) *QuestionItemService {
	return &QuestionItemService{
		items: items,
		log:   log.With().Str("component", "question_item_service").Logger(),
	}
}

// List retrieves an author's library questions, optionally filtered by tag.
func (s *QuestionItemService) List(ctx context.Context, authorID int64, tag string) ([]model.QuestionItem, error) {
	return s.items.ListByAuthor(ctx, authorID, tag)
}

// Get retrieves a library question after verifying ownership.
func (s *QuestionItemService) Get(ctx context.Context, authorID, itemID int64) (*model.QuestionItem, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if item.AuthorID != authorID {
		return nil, ErrNotOwner
	}
	return item, nil
}

// Create validates and stores a new library question.
func (s *QuestionItemService) Create(ctx context.Context, authorID int64, req *model.CreateQuestionItemRequest) (*model.QuestionItem, error) {
	if err := validateItemDoc(req.ItemDoc, req.QuestionType); err != nil {
		return nil, err
	}

	item := &model.QuestionItem{
		AuthorID:     authorID,
		QuestionType: req.QuestionType,
		ItemDoc:      req.ItemDoc,
		Tags:         req.Tags,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update rewrites a library question. Blocks already copied from it are
// untouched: the library is a source of copies, not a shared reference.
func (s *QuestionItemService) Update(ctx context.Context, authorID, itemID int64, req *model.UpdateQuestionItemRequest) (*model.QuestionItem, error) {
	item, err := s.Get(ctx, authorID, itemID)
	if err != nil {
		return nil, err
	}

	if len(req.ItemDoc) > 0 {
		if err := validateItemDoc(req.ItemDoc, item.QuestionType); err != nil {
			return nil, err
		}
		item.ItemDoc = req.ItemDoc
	}
	if req.Tags != nil {
		item.Tags = req.Tags
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a library question.
func (s *QuestionItemService) Delete(ctx context.Context, authorID, itemID int64) error {
	if _, err := s.Get(ctx, authorID, itemID); err != nil {
		return err
	}
	return s.items.Delete(ctx, itemID)
}

// validateItemDoc checks that the payload decodes into a structurally valid
// question document of the declared type.
func validateItemDoc(raw json.RawMessage, questionType string) error {
	var doc block.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlockDoc, err)
	}
	if string(doc.QuestionType) != questionType {
		return fmt.Errorf("%w: document type %q does not match %q", ErrInvalidBlockDoc, doc.QuestionType, questionType)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlockDoc, err)
	}
	return nil
}
