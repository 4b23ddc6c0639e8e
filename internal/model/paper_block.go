package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paperforge/paperforge-backend/internal/block"
)

// PaperBlock represents one question row attached to a paper. BlockDoc is
// the typed question sub-document; Overrides and Meta are sparse bags of
// paper-specific values and editor hints. BlockPlain is a derived search
// snapshot maintained asynchronously.
type PaperBlock struct {
	ID             int64           `json:"id"`
	PaperID        int64           `json:"paper_id"`
	QuestionItemID *int64          `json:"question_item_id,omitempty"`
	Position       int             `json:"position"`
	BlockDoc       json.RawMessage `json:"block_doc"`
	Overrides      json.RawMessage `json:"overrides"`
	Meta           json.RawMessage `json:"meta"`
	BlockPlain     string          `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToRow decodes the raw JSON columns into the registry's typed row form.
func (b *PaperBlock) ToRow() (block.Row, error) {
	row := block.Row{
		ID:             b.ID,
		PaperID:        b.PaperID,
		Position:       b.Position,
		QuestionItemID: b.QuestionItemID,
		Overrides:      block.Overrides{},
		Meta:           block.Meta{},
	}
	if len(b.BlockDoc) > 0 {
		var doc block.Doc
		if err := json.Unmarshal(b.BlockDoc, &doc); err != nil {
			return block.Row{}, fmt.Errorf("decode block doc %d: %w", b.ID, err)
		}
		row.Doc = &doc
	}
	if len(b.Overrides) > 0 {
		if err := json.Unmarshal(b.Overrides, &row.Overrides); err != nil {
			return block.Row{}, fmt.Errorf("decode block overrides %d: %w", b.ID, err)
		}
	}
	if len(b.Meta) > 0 {
		if err := json.Unmarshal(b.Meta, &row.Meta); err != nil {
			return block.Row{}, fmt.Errorf("decode block meta %d: %w", b.ID, err)
		}
	}
	return row, nil
}

// FromRow encodes a registry row back into the persisted column form.
func FromRow(row block.Row) (PaperBlock, error) {
	out := PaperBlock{
		ID:             row.ID,
		PaperID:        row.PaperID,
		QuestionItemID: row.QuestionItemID,
		Position:       row.Position,
	}
	var err error
	if row.Doc != nil {
		if out.BlockDoc, err = json.Marshal(row.Doc); err != nil {
			return PaperBlock{}, fmt.Errorf("encode block doc: %w", err)
		}
	}
	if out.Overrides, err = json.Marshal(row.Overrides); err != nil {
		return PaperBlock{}, fmt.Errorf("encode block overrides: %w", err)
	}
	if out.Meta, err = json.Marshal(row.Meta); err != nil {
		return PaperBlock{}, fmt.Errorf("encode block meta: %w", err)
	}
	return out, nil
}

// AddBlockRequest is the payload for attaching a question block to a paper.
// Either question_item_id (copy from the library) or question_type (blank
// question) must be provided.
type AddBlockRequest struct {
	QuestionItemID *int64 `json:"question_item_id" binding:"omitempty,min=1"`
	QuestionType   string `json:"question_type" binding:"omitempty,oneof=mcq short_answer structured essay"`
	Position       *int   `json:"position" binding:"omitempty,min=0"`
}

// UpdateBlockRequest is the payload for a partial block update. block_doc
// replaces the sub-document wholesale; overrides and meta merge key-wise
// with explicit nulls clearing entries.
type UpdateBlockRequest struct {
	BlockDoc  json.RawMessage `json:"block_doc" binding:"omitempty"`
	Overrides json.RawMessage `json:"overrides" binding:"omitempty"`
	Meta      json.RawMessage `json:"meta" binding:"omitempty"`
}

// ReorderBlocksRequest is the payload for rewriting block positions.
type ReorderBlocksRequest struct {
	BlockIDs []int64 `json:"block_ids" binding:"required,min=1,dive,min=1"`
}
