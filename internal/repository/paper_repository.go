package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperforge/paperforge-backend/internal/model"
)

// PaperRepository handles paper data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// Create inserts a new paper.
func (r *PaperRepository) Create(ctx context.Context, p *model.Paper) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO papers (author_id, title, subject, grade_level, content_version, content_doc, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.AuthorID, p.Title, p.Subject, p.GradeLevel, p.ContentVersion, p.ContentDoc, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID retrieves a paper by id.
func (r *PaperRepository) GetByID(ctx context.Context, id int64) (*model.Paper, error) {
	var p model.Paper
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, title, subject, grade_level, content_version, content_doc, content_plain, status, created_at, updated_at
		 FROM papers WHERE id = $1`, id,
	).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Subject, &p.GradeLevel, &p.ContentVersion, &p.ContentDoc, &p.ContentPlain, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOwnerID retrieves only a paper's author id, for ownership checks.
func (r *PaperRepository) GetOwnerID(ctx context.Context, id int64) (int64, error) {
	var authorID int64
	err := r.pool.QueryRow(ctx,
		`SELECT author_id FROM papers WHERE id = $1`, id,
	).Scan(&authorID)
	return authorID, err
}

// ListByAuthor retrieves summaries of all papers owned by an author,
// newest first.
func (r *PaperRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.PaperSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.title, p.subject, p.grade_level, p.status, p.updated_at,
		        (SELECT COUNT(*) FROM paper_blocks b WHERE b.paper_id = p.id) AS block_count
		 FROM papers p WHERE p.author_id = $1
		 ORDER BY p.updated_at DESC`, authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []model.PaperSummary
	for rows.Next() {
		var p model.PaperSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Subject, &p.GradeLevel, &p.Status, &p.UpdatedAt, &p.BlockCount); err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// UpdateMeta updates a paper's non-content fields. Nil fields are skipped
// via COALESCE against the current row.
func (r *PaperRepository) UpdateMeta(ctx context.Context, id int64, title, subject, gradeLevel *string, status *model.PaperStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE papers SET
		   title       = COALESCE($2, title),
		   subject     = COALESCE($3, subject),
		   grade_level = COALESCE($4, grade_level),
		   status      = COALESCE($5, status),
		   updated_at  = NOW()
		 WHERE id = $1`,
		id, title, subject, gradeLevel, status,
	)
	return err
}

// UpdateContent replaces a paper's content tree and optionally its title in
// one statement, as the autosave path writes both together.
func (r *PaperRepository) UpdateContent(ctx context.Context, id int64, title *string, contentDoc json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE papers SET
		   title       = COALESCE($2, title),
		   content_doc = $3,
		   updated_at  = NOW()
		 WHERE id = $1`,
		id, title, contentDoc,
	)
	return err
}

// UpdatePlainText writes the derived search snapshot. It never touches
// updated_at: snapshot refreshes are not author edits.
func (r *PaperRepository) UpdatePlainText(ctx context.Context, id int64, contentPlain string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE papers SET content_plain = $2 WHERE id = $1`,
		id, contentPlain,
	)
	return err
}

// Delete removes a paper. Blocks cascade via the schema.
func (r *PaperRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM papers WHERE id = $1`, id)
	return err
}
