// Package service contains the business logic layer.
//
// This file implements API key management. Keys are prefixed "tm_" so they
// are recognizable in configuration files, and only a SHA-256 hash of the
// key is stored.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonemirror/tonemirror/internal/domain"
	"github.com/tonemirror/tonemirror/internal/repository"
)

// APIKeyService manages programmatic access keys.
type APIKeyService interface {
	// Create mints a new key for a user. The raw key is returned once and
	// never stored.
	Create(ctx context.Context, userID uuid.UUID, name string) (*domain.APIKeyCreateResult, error)

	// Authenticate resolves a raw key to its owning user ID. Inactive and
	// unknown keys return domain.EUNAUTHORIZED.
	Authenticate(ctx context.Context, rawKey string) (uuid.UUID, error)

	// List returns the user's keys, newest first, without hashes exposed
	// beyond the stored digest.
	List(ctx context.Context, userID uuid.UUID) ([]domain.APIKey, error)

	// Deactivate disables a key owned by the user. Idempotent.
	Deactivate(ctx context.Context, userID, keyID uuid.UUID) error
}

type apiKeyService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(queries *repository.Queries, logger *slog.Logger) APIKeyService {
	return &apiKeyService{
		queries: queries,
		logger:  logger,
	}
}

// Create mints a new API key.
func (s *apiKeyService) Create(ctx context.Context, userID uuid.UUID, name string) (*domain.APIKeyCreateResult, error) {
	const op = "apikey.create"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid(op, "Key name is required")
	}

	token, err := generateToken()
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate key")
	}
	rawKey := domain.APIKeyPrefix + token

	row, err := s.queries.CreateAPIKey(ctx, repository.CreateAPIKeyParams{
		UserID: userID,
		Name:   name,
		Key:    hashToken(rawKey),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store key")
	}

	s.logger.Info("api key created", "user_id", userID, "key_id", row.ID, "name", name)

	return &domain.APIKeyCreateResult{
		Key:    repoAPIKeyToDomain(row),
		RawKey: rawKey,
	}, nil
}

// Authenticate resolves a raw key to its owning user ID and touches the
// key's last-used timestamp.
func (s *apiKeyService) Authenticate(ctx context.Context, rawKey string) (uuid.UUID, error) {
	const op = "apikey.authenticate"

	if !strings.HasPrefix(rawKey, domain.APIKeyPrefix) {
		return uuid.Nil, domain.Unauthorized(op, "Invalid API key")
	}

	row, err := s.queries.GetAPIKeyByHash(ctx, hashToken(rawKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, domain.Unauthorized(op, "Invalid API key")
		}
		return uuid.Nil, domain.Internal(err, op, "failed to look up key")
	}
	if !row.IsActive {
		return uuid.Nil, domain.Unauthorized(op, "API key is inactive")
	}

	if err := s.queries.TouchAPIKey(ctx, row.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to touch api key", "key_id", row.ID, "error", err)
	}

	return row.UserID, nil
}

// List returns the user's keys, newest first.
func (s *apiKeyService) List(ctx context.Context, userID uuid.UUID) ([]domain.APIKey, error) {
	const op = "apikey.list"

	rows, err := s.queries.ListAPIKeysByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list keys")
	}

	keys := make([]domain.APIKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, *repoAPIKeyToDomain(row))
	}
	return keys, nil
}

// Deactivate disables a key owned by the user.
func (s *apiKeyService) Deactivate(ctx context.Context, userID, keyID uuid.UUID) error {
	const op = "apikey.deactivate"

	if err := s.queries.DeactivateAPIKey(ctx, keyID, userID); err != nil {
		return domain.Internal(err, op, "failed to deactivate key")
	}

	s.logger.Info("api key deactivated", "user_id", userID, "key_id", keyID)
	return nil
}

func repoAPIKeyToDomain(k repository.APIKey) *domain.APIKey {
	return &domain.APIKey{
		ID:        k.ID,
		UserID:    k.UserID,
		Name:      k.Name,
		KeyHash:   k.Key,
		IsActive:  k.IsActive,
		LastUsed:  domain.NullTimeValue(k.LastUsed),
		CreatedAt: k.CreatedAt,
	}
}

var _ APIKeyService = (*apiKeyService)(nil)
