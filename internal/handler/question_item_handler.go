package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperforge/paperforge-backend/internal/middleware"
	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/response"
	"github.com/paperforge/paperforge-backend/internal/service"
	"github.com/paperforge/paperforge-backend/internal/validator"
)

// QuestionItemHandler handles the author's question library endpoints.
type QuestionItemHandler struct {
	itemService *service.QuestionItemService
}

// NewQuestionItemHandler creates a new QuestionItemHandler.
func NewQuestionItemHandler(itemService *service.QuestionItemService) *QuestionItemHandler {
	return &QuestionItemHandler{itemService: itemService}
}

// List godoc
// GET /api/v1/question-items?tag=...
// Lists the author's library questions, optionally filtered by tag.
func (h *QuestionItemHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	items, err := h.itemService.List(c.Request.Context(), claims.AuthorID, c.Query("tag"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question_items": items})
}

// Get godoc
// GET /api/v1/question-items/:item_id
func (h *QuestionItemHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	item, err := h.itemService.Get(c.Request.Context(), claims.AuthorID, itemID)
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question_item": item})
}

// Create godoc
// POST /api/v1/question-items
func (h *QuestionItemHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateQuestionItemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), claims.AuthorID, &req)
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question_item": item})
}

// Update godoc
// PUT /api/v1/question-items/:item_id
func (h *QuestionItemHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionItemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), claims.AuthorID, itemID, &req)
	if err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question_item": item})
}

// Delete godoc
// DELETE /api/v1/question-items/:item_id
// Removes a library question. Blocks copied from it keep their content.
func (h *QuestionItemHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	if err := h.itemService.Delete(c.Request.Context(), claims.AuthorID, itemID); err != nil {
		failResource(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
