package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperforge/paperforge-backend/internal/model"
)

// QuestionItemRepository handles question library data access.
type QuestionItemRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionItemRepository creates a new QuestionItemRepository.
func NewQuestionItemRepository(pool *pgxpool.Pool) *QuestionItemRepository {
	return &QuestionItemRepository{pool: pool}
}

// ListByAuthor retrieves an author's library questions, newest first.
// A non-empty tag filters to items carrying it.
func (r *QuestionItemRepository) ListByAuthor(ctx context.Context, authorID int64, tag string) ([]model.QuestionItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, author_id, question_type, item_doc, tags, created_at, updated_at
		 FROM question_items
		 WHERE author_id = $1 AND ($2 = '' OR $2 = ANY(tags))
		 ORDER BY updated_at DESC`, authorID, tag,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.QuestionItem
	for rows.Next() {
		var q model.QuestionItem
		if err := rows.Scan(&q.ID, &q.AuthorID, &q.QuestionType, &q.ItemDoc, &q.Tags, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, rows.Err()
}

// GetByID retrieves a library question by id.
func (r *QuestionItemRepository) GetByID(ctx context.Context, id int64) (*model.QuestionItem, error) {
	var q model.QuestionItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, question_type, item_doc, tags, created_at, updated_at
		 FROM question_items WHERE id = $1`, id,
	).Scan(&q.ID, &q.AuthorID, &q.QuestionType, &q.ItemDoc, &q.Tags, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a new library question.
func (r *QuestionItemRepository) Create(ctx context.Context, q *model.QuestionItem) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_items (author_id, question_type, item_doc, tags)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		q.AuthorID, q.QuestionType, q.ItemDoc, q.Tags,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update writes a library question's document and tags.
func (r *QuestionItemRepository) Update(ctx context.Context, q *model.QuestionItem) error {
	return r.pool.QueryRow(ctx,
		`UPDATE question_items SET
		   item_doc   = $2,
		   tags       = $3,
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		q.ID, q.ItemDoc, q.Tags,
	).Scan(&q.UpdatedAt)
}

// Delete removes a library question. Blocks that were copied from it keep
// their content; only the provenance link goes stale.
func (r *QuestionItemRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM question_items WHERE id = $1`, id)
	return err
}
