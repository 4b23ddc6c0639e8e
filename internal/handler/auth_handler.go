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

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService   *service.AuthService
	authorService *service.AuthorService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, authorService *service.AuthorService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		authorService: authorService,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password, returns JWT and the author profile.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	author, err := h.authorService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(author.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateAuthorToken(c.Request.Context(), author.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{Token: token, Author: *author})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated author.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	author, err := h.authorService.GetByID(c.Request.Context(), claims.AuthorID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"author": author})
}

// Logout godoc
// POST /api/v1/auth/logout
// Invalidates the author's active session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.AuthorID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
