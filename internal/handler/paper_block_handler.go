package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/editor"
	"github.com/paperforge/paperforge-backend/internal/middleware"
	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/response"
	"github.com/paperforge/paperforge-backend/internal/service"
	"github.com/paperforge/paperforge-backend/internal/validator"
)

// PaperBlockHandler handles question block endpoints under a paper.
type PaperBlockHandler struct {
	paperService *service.PaperService
	blockService *service.PaperBlockService
}

// NewPaperBlockHandler creates a new PaperBlockHandler.
func NewPaperBlockHandler(paperService *service.PaperService, blockService *service.PaperBlockService) *PaperBlockHandler {
	return &PaperBlockHandler{
		paperService: paperService,
		blockService: blockService,
	}
}

// blockView shapes a registry row for JSON responses, including the
// resolved display number clients show in the numbering column.
func blockView(row block.Row, displayNumber string) gin.H {
	return gin.H{
		"id":               row.ID,
		"paper_id":         row.PaperID,
		"question_item_id": row.QuestionItemID,
		"position":         row.Position,
		"block_doc":        row.Doc,
		"overrides":        row.Overrides,
		"meta":             row.Meta,
		"display_number":   displayNumber,
	}
}

// List godoc
// GET /api/v1/papers/:paper_id/blocks
// Returns a paper's blocks in position order with resolved display numbers.
func (h *PaperBlockHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}
	if err := h.paperService.VerifyOwner(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failResource(c, err)
		return
	}

	rows, err := h.blockService.ListBlocks(c.Request.Context(), paperID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	registry := block.NewRegistry()
	registry.Replace(rows)

	views := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		views = append(views, blockView(row, registry.DisplayNumber(row.ID)))
	}
	response.Success(c, http.StatusOK, gin.H{"blocks": views})
}

// Create godoc
// POST /api/v1/papers/:paper_id/blocks
// Attaches a question block, either copied from a library item or blank.
func (h *PaperBlockHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}
	if err := h.paperService.VerifyOwner(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failResource(c, err)
		return
	}

	var req model.AddBlockRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.QuestionItemID == nil && req.QuestionType == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"question_type": "either question_item_id or question_type is required",
		})
		return
	}

	row, err := h.blockService.AddBlock(c.Request.Context(), editor.AddBlockParams{
		PaperID:        paperID,
		QuestionItemID: req.QuestionItemID,
		QuestionType:   block.QuestionType(req.QuestionType),
		Position:       req.Position,
	})
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"block": blockView(row, "")})
}

// Update godoc
// PATCH /api/v1/papers/:paper_id/blocks/:block_id
// Applies a partial update: block_doc replaces, overrides and meta merge
// with explicit nulls clearing keys.
func (h *PaperBlockHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}
	blockID, ok := parseID(c, "block_id")
	if !ok {
		return
	}
	if err := h.paperService.VerifyOwner(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failResource(c, err)
		return
	}

	var req model.UpdateBlockRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	params := editor.UpdateBlockParams{BlockID: blockID}
	if len(req.BlockDoc) > 0 {
		var doc block.Doc
		if err := json.Unmarshal(req.BlockDoc, &doc); err != nil {
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidDocument)
			return
		}
		params.Doc = &doc
	}
	if len(req.Overrides) > 0 {
		if err := json.Unmarshal(req.Overrides, &params.Overrides); err != nil {
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)
			return
		}
	}
	if len(req.Meta) > 0 {
		if err := json.Unmarshal(req.Meta, &params.Meta); err != nil {
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)
			return
		}
	}

	row, err := h.blockService.UpdateBlock(c.Request.Context(), params)
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"block": blockView(row, "")})
}

// Delete godoc
// DELETE /api/v1/papers/:paper_id/blocks/:block_id
// Removes a block row. Deleting an already-deleted block succeeds.
func (h *PaperBlockHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}
	blockID, ok := parseID(c, "block_id")
	if !ok {
		return
	}
	if err := h.paperService.VerifyOwner(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failResource(c, err)
		return
	}

	if err := h.blockService.DeleteBlock(c.Request.Context(), blockID); err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Reorder godoc
// PUT /api/v1/papers/:paper_id/blocks/order
// Rewrites block positions to match the given id order.
func (h *PaperBlockHandler) Reorder(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}
	if err := h.paperService.VerifyOwner(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failResource(c, err)
		return
	}

	var req model.ReorderBlocksRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.blockService.Reorder(c.Request.Context(), paperID, req.BlockIDs); err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
