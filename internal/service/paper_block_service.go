package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/config"
	"github.com/paperforge/paperforge-backend/internal/editor"
	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/repository"
)

// Block-specific errors.
var (
	ErrInvalidQuestionType = errors.New("unknown question type")
	ErrInvalidBlockDoc     = errors.New("invalid block document")
	ErrInvalidReorder      = errors.New("reorder ids do not match the paper's blocks")
)

// blockCacheTTL bounds staleness of the cached block list. Every mutation
// invalidates the key anyway; the TTL only covers missed invalidations.
const blockCacheTTL = 5 * time.Minute

// PaperBlockService handles question block rows. It implements the edit
// session's block store: adds, partial updates with merge semantics, and
// the ordered list the registry is refreshed from.
type PaperBlockService struct {
	blocks *repository.PaperBlockRepository
	items  *repository.QuestionItemRepository
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewPaperBlockService creates a new PaperBlockService.
func NewPaperBlockService(blocks *repository.PaperBlockRepository, items *repository.QuestionItemRepository, rdb *redis.Client, log zerolog.Logger) *PaperBlockService {
	return &PaperBlockService{
		blocks: blocks,
		items:  items,
		rdb:    rdb,
		log:    log.With().Str("component", "paper_block_service").Logger(),
	}
}

// AddBlock creates a block row for a paper. With a question item id the
// item's content is copied in; edits to the block never flow back to the
// library. Without one, a blank document of the given type is built.
func (s *PaperBlockService) AddBlock(ctx context.Context, params editor.AddBlockParams) (block.Row, error) {
	var doc *block.Doc

	if params.QuestionItemID != nil {
		item, err := s.items.GetByID(ctx, *params.QuestionItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return block.Row{}, ErrNotFound
			}
			return block.Row{}, err
		}
		doc = &block.Doc{}
		if err := json.Unmarshal(item.ItemDoc, doc); err != nil {
			return block.Row{}, fmt.Errorf("%w: %v", ErrInvalidBlockDoc, err)
		}
	} else {
		if !params.QuestionType.Valid() {
			return block.Row{}, ErrInvalidQuestionType
		}
		doc = block.NewBlankDoc(params.QuestionType)
	}

	if err := doc.Validate(); err != nil {
		return block.Row{}, fmt.Errorf("%w: %v", ErrInvalidBlockDoc, err)
	}

	row := block.Row{
		PaperID:        params.PaperID,
		QuestionItemID: params.QuestionItemID,
		Doc:            doc,
		Overrides:      block.NewOverrides(defaultMarks(doc)),
		Meta:           block.NewMeta(),
	}
	stored, err := model.FromRow(row)
	if err != nil {
		return block.Row{}, err
	}
	if err := s.blocks.Create(ctx, &stored, params.Position); err != nil {
		return block.Row{}, err
	}
	row.ID = stored.ID
	row.Position = stored.Position

	s.invalidate(ctx, params.PaperID)
	s.enqueueSnapshot(ctx, row.ID)
	return row, nil
}

// UpdateBlock applies a partial update: a non-nil doc replaces the
// sub-document wholesale, override and meta patches merge key-wise with
// explicit nulls clearing entries.
func (s *PaperBlockService) UpdateBlock(ctx context.Context, params editor.UpdateBlockParams) (block.Row, error) {
	existing, err := s.blocks.GetByID(ctx, params.BlockID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return block.Row{}, ErrNotFound
		}
		return block.Row{}, err
	}
	row, err := existing.ToRow()
	if err != nil {
		return block.Row{}, err
	}

	if params.Doc != nil {
		if err := params.Doc.Validate(); err != nil {
			return block.Row{}, fmt.Errorf("%w: %v", ErrInvalidBlockDoc, err)
		}
		row.Doc = params.Doc
	}
	if params.Overrides != nil {
		row.Overrides = block.MergeOverrides(row.Overrides, params.Overrides)
	}
	if params.Meta != nil {
		row.Meta = block.MergeMeta(row.Meta, params.Meta, time.Now())
	}

	stored, err := model.FromRow(row)
	if err != nil {
		return block.Row{}, err
	}
	if err := s.blocks.Update(ctx, &stored); err != nil {
		return block.Row{}, err
	}

	s.invalidate(ctx, row.PaperID)
	if params.Doc != nil {
		s.enqueueSnapshot(ctx, row.ID)
	}
	return row, nil
}

// DeleteBlock removes a block row.
func (s *PaperBlockService) DeleteBlock(ctx context.Context, blockID int64) error {
	existing, err := s.blocks.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already gone; deletion is idempotent.
			return nil
		}
		return err
	}
	if err := s.blocks.Delete(ctx, blockID); err != nil {
		return err
	}
	s.invalidate(ctx, existing.PaperID)
	return nil
}

// ListBlocks returns a paper's blocks in position order, from the Redis
// cache when warm.
func (s *PaperBlockService) ListBlocks(ctx context.Context, paperID int64) ([]block.Row, error) {
	cacheKey := config.CacheKey.PaperBlocksKey(paperID)

	if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var stored []model.PaperBlock
		if err := json.Unmarshal(cached, &stored); err == nil {
			return toRows(stored)
		}
		// Corrupt cache entry; fall through to the database.
		s.rdb.Del(ctx, cacheKey)
	}

	stored, err := s.blocks.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(stored); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, raw, blockCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Int64("paper_id", paperID).Msg("Block cache write failed")
		}
	}
	return toRows(stored)
}

// GetBlock returns a single block row.
func (s *PaperBlockService) GetBlock(ctx context.Context, blockID int64) (block.Row, error) {
	stored, err := s.blocks.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return block.Row{}, ErrNotFound
		}
		return block.Row{}, err
	}
	return stored.ToRow()
}

// Reorder rewrites a paper's block positions to match the given id order.
// The submitted ids must be an exact permutation of the paper's blocks: a
// partial or stale set would leave unlisted blocks at their old positions
// and produce duplicate positional numbers.
func (s *PaperBlockService) Reorder(ctx context.Context, paperID int64, blockIDs []int64) error {
	existing, err := s.blocks.ListByPaper(ctx, paperID)
	if err != nil {
		return err
	}
	current := make([]int64, len(existing))
	for i := range existing {
		current[i] = existing[i].ID
	}
	if !isPermutation(current, blockIDs) {
		return ErrInvalidReorder
	}

	if err := s.blocks.Reorder(ctx, paperID, blockIDs); err != nil {
		return err
	}
	s.invalidate(ctx, paperID)
	return nil
}

// isPermutation reports whether submitted contains exactly the ids in
// current, each exactly once.
func isPermutation(current, submitted []int64) bool {
	if len(current) != len(submitted) {
		return false
	}
	counts := make(map[int64]int, len(current))
	for _, id := range current {
		counts[id]++
	}
	for _, id := range submitted {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}

func (s *PaperBlockService) invalidate(ctx context.Context, paperID int64) {
	if err := s.rdb.Del(ctx, config.CacheKey.PaperBlocksKey(paperID)).Err(); err != nil {
		s.log.Warn().Err(err).Int64("paper_id", paperID).Msg("Block cache invalidation failed")
	}
}

// enqueueSnapshot queues a plain-text snapshot refresh for a block.
func (s *PaperBlockService) enqueueSnapshot(ctx context.Context, blockID int64) {
	payload, _ := json.Marshal(map[string]interface{}{"block_id": blockID})
	if err := s.rdb.RPush(ctx, config.WorkerKey.BlockSnapshotQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Int64("block_id", blockID).Msg("Snapshot enqueue failed")
	}
}

// defaultMarks derives a new block's starting marks override: structured
// questions start from the sum of their part marks, everything else from 1.
func defaultMarks(doc *block.Doc) int {
	if doc.QuestionType == block.QuestionTypeStructured {
		total := 0
		for _, part := range doc.Parts {
			total += part.Marks
		}
		if total > 0 {
			return total
		}
	}
	return 1
}

func toRows(stored []model.PaperBlock) ([]block.Row, error) {
	rows := make([]block.Row, 0, len(stored))
	for i := range stored {
		row, err := stored[i].ToRow()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
