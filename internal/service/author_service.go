package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/paperforge/paperforge-backend/internal/model"
	"github.com/paperforge/paperforge-backend/internal/repository"
)

// AuthorService handles author account lookups and creation.
type AuthorService struct {
	authors *repository.AuthorRepository
	auth    *AuthService
}

// NewAuthorService creates a new AuthorService.
func NewAuthorService(authors *repository.AuthorRepository, auth *AuthService) *AuthorService {
	return &AuthorService{authors: authors, auth: auth}
}

// GetByEmail retrieves an author by email.
func (s *AuthorService) GetByEmail(ctx context.Context, email string) (*model.Author, error) {
	author, err := s.authors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return author, nil
}

// GetByID retrieves an author by id.
func (s *AuthorService) GetByID(ctx context.Context, id int64) (*model.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return author, nil
}

// Create registers a new author account with a hashed password.
func (s *AuthorService) Create(ctx context.Context, name, email, password string) (*model.Author, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	author := &model.Author{Name: name, Email: email, PasswordHash: hash}
	if err := s.authors.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}
