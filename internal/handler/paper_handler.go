package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paperforge/paperforge-backend/internal/middleware"
	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/response"
	"github.com/paperforge/paperforge-backend/internal/service"
	"github.com/paperforge/paperforge-backend/internal/validator"
)

// PaperHandler handles paper CRUD endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// parseID reads a positive int64 path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failResource maps service resource errors to HTTP responses.
func failResource(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotPaperOwner)
	case errors.Is(err, service.ErrInvalidDocument), errors.Is(err, service.ErrInvalidBlockDoc):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidDocument)
	case errors.Is(err, service.ErrInvalidQuestionType):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidQuestionType)
	case errors.Is(err, service.ErrInvalidReorder):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// List godoc
// GET /api/v1/papers
// Lists the authenticated author's papers.
func (h *PaperHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	papers, err := h.paperService.List(c.Request.Context(), claims.AuthorID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"papers": papers})
}

// Create godoc
// POST /api/v1/papers
// Creates a new paper with an empty document.
func (h *PaperHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Create(c.Request.Context(), claims.AuthorID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// Get godoc
// GET /api/v1/papers/:paper_id
// Returns a paper with its persisted content tree.
func (h *PaperHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}

	paper, err := h.paperService.Get(c.Request.Context(), claims.AuthorID, paperID)
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// GetForEdit godoc
// GET /api/v1/papers/:paper_id/edit
// Returns a paper with its content hydrated for the editing surface.
func (h *PaperHandler) GetForEdit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}

	paper, err := h.paperService.GetForEdit(c.Request.Context(), claims.AuthorID, paperID)
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// Update godoc
// PUT /api/v1/papers/:paper_id
// Applies a partial update; content payloads are normalized before storage.
func (h *PaperHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}

	var req model.UpdatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Update(c.Request.Context(), claims.AuthorID, paperID, &req)
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// Delete godoc
// DELETE /api/v1/papers/:paper_id
// Removes a paper and all its blocks.
func (h *PaperHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}

	if err := h.paperService.Delete(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
