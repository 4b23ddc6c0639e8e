package model

import (
	"encoding/json"
	"time"
)

// PaperStatus enumerates the possible states of a paper.
type PaperStatus string

const (
	PaperStatusDraft     PaperStatus = "DRAFT"
	PaperStatusPublished PaperStatus = "PUBLISHED"
	PaperStatusArchived  PaperStatus = "ARCHIVED"
)

// Paper represents a worksheet document. ContentDoc is the persisted node
// tree in its normalized save form; ContentPlain is a derived search
// snapshot maintained asynchronously and never edited directly.
type Paper struct {
	ID             int64           `json:"id"`
	AuthorID       int64           `json:"author_id"`
	Title          string          `json:"title"`
	Subject        string          `json:"subject,omitempty"`
	GradeLevel     string          `json:"grade_level,omitempty"`
	ContentVersion string          `json:"content_version"`
	ContentDoc     json.RawMessage `json:"content_doc"`
	ContentPlain   string          `json:"-"`
	Status         PaperStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreatePaperRequest is the payload for creating a new paper.
type CreatePaperRequest struct {
	Title      string `json:"title" binding:"required,min=1,max=255"`
	Subject    string `json:"subject" binding:"omitempty,max=100"`
	GradeLevel string `json:"grade_level" binding:"omitempty,max=50"`
}

// UpdatePaperRequest is the payload for updating a paper. All fields are
// optional; absent fields are left untouched.
type UpdatePaperRequest struct {
	Title      *string         `json:"title" binding:"omitempty,min=1,max=255"`
	Subject    *string         `json:"subject" binding:"omitempty,max=100"`
	GradeLevel *string         `json:"grade_level" binding:"omitempty,max=50"`
	ContentDoc json.RawMessage `json:"content_doc" binding:"omitempty"`
	Status     *PaperStatus    `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// PaperSummary is the list view of a paper without its content tree.
type PaperSummary struct {
	ID         int64       `json:"id"`
	Title      string      `json:"title"`
	Subject    string      `json:"subject,omitempty"`
	GradeLevel string      `json:"grade_level,omitempty"`
	Status     PaperStatus `json:"status"`
	BlockCount int         `json:"block_count"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
