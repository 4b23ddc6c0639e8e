package model

import (
	"encoding/json"
	"time"
)

// QuestionItem is a reusable question in an author's library. Attaching it
// to a paper copies its content into a block; later edits to the block never
// flow back to the item.
type QuestionItem struct {
	ID           int64           `json:"id"`
	AuthorID     int64           `json:"author_id"`
	QuestionType string          `json:"question_type"`
	ItemDoc      json.RawMessage `json:"item_doc"`
	Tags         []string        `json:"tags,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateQuestionItemRequest is the payload for adding a library question.
type CreateQuestionItemRequest struct {
	QuestionType string          `json:"question_type" binding:"required,oneof=mcq short_answer structured essay"`
	ItemDoc      json.RawMessage `json:"item_doc" binding:"required"`
	Tags         []string        `json:"tags" binding:"omitempty,dive,min=1,max=50"`
}

// UpdateQuestionItemRequest is the payload for updating a library question.
type UpdateQuestionItemRequest struct {
	ItemDoc json.RawMessage `json:"item_doc" binding:"omitempty"`
	Tags    []string        `json:"tags" binding:"omitempty,dive,min=1,max=50"`
}
