package editor

import (
	"context"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/document"
)

// PaperPatch is a partial paper update. Nil fields are left untouched.
type PaperPatch struct {
	Title      *string
	ContentDoc *document.Node
}

// PaperStore is the paper persistence collaborator. Ownership and
// visibility enforcement happen behind this interface, not in the session.
type PaperStore interface {
	UpdatePaper(ctx context.Context, paperID int64, patch PaperPatch) error
}

// AddBlockParams creates a new block row. When QuestionItemID is set the
// item's content is copied into the block; otherwise a blank document of
// QuestionType is created. Position defaults to the end of the paper.
type AddBlockParams struct {
	PaperID        int64
	QuestionItemID *int64
	QuestionType   block.QuestionType
	Position       *int
}

// UpdateBlockParams is a partial block update with merge semantics:
// provided fields overwrite, override/meta keys set to null clear.
type UpdateBlockParams struct {
	BlockID   int64
	Doc       *block.Doc
	Overrides block.Overrides
	Meta      block.Meta
}

// BlockStore is the block persistence collaborator backing the registry.
type BlockStore interface {
	AddBlock(ctx context.Context, params AddBlockParams) (block.Row, error)
	UpdateBlock(ctx context.Context, params UpdateBlockParams) (block.Row, error)
	DeleteBlock(ctx context.Context, blockID int64) error
	ListBlocks(ctx context.Context, paperID int64) ([]block.Row, error)
}

// Uploader is the image storage collaborator. It returns a stable public
// reference for the stored bytes.
type Uploader interface {
	UploadPaperImage(ctx context.Context, paperID int64, filename, mimeType string, data []byte) (string, error)
}
