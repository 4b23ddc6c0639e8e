package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperforge/paperforge-backend/internal/model"
)

// PaperBlockRepository handles paper block data access.
type PaperBlockRepository struct {
	pool *pgxpool.Pool
}

// NewPaperBlockRepository creates a new PaperBlockRepository.
func NewPaperBlockRepository(pool *pgxpool.Pool) *PaperBlockRepository {
	return &PaperBlockRepository{pool: pool}
}

// ListByPaper retrieves all blocks of a paper ordered by position.
func (r *PaperBlockRepository) ListByPaper(ctx context.Context, paperID int64) ([]model.PaperBlock, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, paper_id, question_item_id, position, block_doc, overrides, meta, block_plain, created_at, updated_at
		 FROM paper_blocks WHERE paper_id = $1
		 ORDER BY position`, paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.PaperBlock
	for rows.Next() {
		var b model.PaperBlock
		if err := rows.Scan(&b.ID, &b.PaperID, &b.QuestionItemID, &b.Position, &b.BlockDoc, &b.Overrides, &b.Meta, &b.BlockPlain, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// GetByID retrieves a block by id.
func (r *PaperBlockRepository) GetByID(ctx context.Context, id int64) (*model.PaperBlock, error) {
	var b model.PaperBlock
	err := r.pool.QueryRow(ctx,
		`SELECT id, paper_id, question_item_id, position, block_doc, overrides, meta, block_plain, created_at, updated_at
		 FROM paper_blocks WHERE id = $1`, id,
	).Scan(&b.ID, &b.PaperID, &b.QuestionItemID, &b.Position, &b.BlockDoc, &b.Overrides, &b.Meta, &b.BlockPlain, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new block. A nil position appends after the paper's
// current last block; the subquery and insert run in one statement so
// concurrent adds cannot race to the same slot.
func (r *PaperBlockRepository) Create(ctx context.Context, b *model.PaperBlock, position *int) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO paper_blocks (paper_id, question_item_id, position, block_doc, overrides, meta)
		 VALUES ($1, $2,
		         COALESCE($3, (SELECT COALESCE(MAX(position) + 1, 0) FROM paper_blocks WHERE paper_id = $1)),
		         $4, $5, $6)
		 RETURNING id, position, created_at, updated_at`,
		b.PaperID, b.QuestionItemID, position, b.BlockDoc, b.Overrides, b.Meta,
	).Scan(&b.ID, &b.Position, &b.CreatedAt, &b.UpdatedAt)
}

// Update writes a block's document, overrides and meta columns. The caller
// passes fully merged values; merge semantics live in the service layer.
func (r *PaperBlockRepository) Update(ctx context.Context, b *model.PaperBlock) error {
	return r.pool.QueryRow(ctx,
		`UPDATE paper_blocks SET
		   block_doc  = $2,
		   overrides  = $3,
		   meta       = $4,
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		b.ID, b.BlockDoc, b.Overrides, b.Meta,
	).Scan(&b.UpdatedAt)
}

// UpdatePlainText writes the derived search snapshot for a block.
func (r *PaperBlockRepository) UpdatePlainText(ctx context.Context, id int64, blockPlain string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE paper_blocks SET block_plain = $2 WHERE id = $1`,
		id, blockPlain,
	)
	return err
}

// Delete removes a block.
func (r *PaperBlockRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM paper_blocks WHERE id = $1`, id)
	return err
}

// Reorder rewrites the positions of a paper's blocks to match the given id
// order, inside a transaction so a partial rewrite never lands.
func (r *PaperBlockRepository) Reorder(ctx context.Context, paperID int64, blockIDs []int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, id := range blockIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE paper_blocks SET position = $3, updated_at = NOW()
			 WHERE id = $1 AND paper_id = $2`,
			id, paperID, i,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
