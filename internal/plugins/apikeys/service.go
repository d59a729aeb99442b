package apikeys

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/loreline/internal/apperror"
)

// keyBytes is the number of random bytes in a generated API key.
const keyBytes = 32

// keyPrefixLen is the length of the prefix stored for key identification.
const keyPrefixLen = 8

// defaultRateLimit is the per-minute request allowance for new keys.
const defaultRateLimit = 120

// APIKeyService handles business logic for API key management.
type APIKeyService interface {
	CreateKey(ctx context.Context, input CreateAPIKeyInput) (*CreateAPIKeyResult, error)
	GetKey(ctx context.Context, id int) (*APIKey, error)
	ListKeys(ctx context.Context) ([]APIKey, error)
	ActivateKey(ctx context.Context, id int) error
	DeactivateKey(ctx context.Context, id int) error
	RevokeKey(ctx context.Context, id int) error

	// AuthenticateKey resolves a raw bearer key to its stored record.
	AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error)

	// TouchKey records key usage. Failures are logged, never returned.
	TouchKey(ctx context.Context, id int, ip string)

	// EnsureBootstrapKey seeds an admin key from configuration when no keys
	// exist yet, so a fresh deployment can reach the API at all.
	EnsureBootstrapKey(ctx context.Context, rawKey string) error
}

// apiKeyService implements APIKeyService.
type apiKeyService struct {
	repo APIKeyRepository
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(repo APIKeyRepository) APIKeyService {
	return &apiKeyService{repo: repo}
}

// CreateKey generates a new API key. The raw key is returned once and only
// its bcrypt hash is stored.
func (s *apiKeyService) CreateKey(ctx context.Context, input CreateAPIKeyInput) (*CreateAPIKeyResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("key name is required")
	}
	if len(name) > 100 {
		return nil, apperror.NewBadRequest("key name must be at most 100 characters")
	}
	if !input.Permission.Valid() {
		return nil, apperror.NewBadRequest(fmt.Sprintf("invalid permission: %s", input.Permission))
	}
	if input.RateLimit <= 0 {
		input.RateLimit = defaultRateLimit
	}
	if input.RateLimit > 1000 {
		return nil, apperror.NewBadRequest("rate limit cannot exceed 1000 requests per minute")
	}

	// Generate random key.
	raw := make([]byte, keyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating key: %w", err))
	}
	rawKey := "lore_" + hex.EncodeToString(raw)
	prefix := rawKey[:keyPrefixLen]

	// Hash for storage.
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing key: %w", err))
	}

	key := &APIKey{
		KeyHash:    string(hash),
		KeyPrefix:  prefix,
		Name:       name,
		Permission: input.Permission,
		RateLimit:  input.RateLimit,
		IsActive:   true,
		ExpiresAt:  input.ExpiresAt,
	}

	if err := s.repo.Create(ctx, key); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating key: %w", err))
	}

	slog.Info("api key created",
		slog.String("prefix", prefix),
		slog.String("permission", string(key.Permission)),
	)

	return &CreateAPIKeyResult{Key: key, RawKey: rawKey}, nil
}

// GetKey retrieves an API key by ID.
func (s *apiKeyService) GetKey(ctx context.Context, id int) (*APIKey, error) {
	return s.repo.FindByID(ctx, id)
}

// ListKeys returns all registered API keys.
func (s *apiKeyService) ListKeys(ctx context.Context) ([]APIKey, error) {
	return s.repo.List(ctx)
}

// ActivateKey re-enables a deactivated key.
func (s *apiKeyService) ActivateKey(ctx context.Context, id int) error {
	return s.repo.UpdateActive(ctx, id, true)
}

// DeactivateKey disables a key without deleting it.
func (s *apiKeyService) DeactivateKey(ctx context.Context, id int) error {
	return s.repo.UpdateActive(ctx, id, false)
}

// RevokeKey permanently deletes a key.
func (s *apiKeyService) RevokeKey(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("api key revoked", slog.Int("key_id", id))
	return nil
}

// AuthenticateKey validates a raw API key: prefix lookup, bcrypt verify,
// active and expiry checks. Lookup and verification failures both report the
// same forbidden error so callers cannot distinguish valid prefixes.
func (s *apiKeyService) AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error) {
	if len(rawKey) < keyPrefixLen {
		return nil, apperror.NewBadRequest("invalid api key format")
	}

	prefix := rawKey[:keyPrefixLen]
	key, err := s.repo.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, apperror.NewForbidden("invalid api key")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)); err != nil {
		return nil, apperror.NewForbidden("invalid api key")
	}

	if !key.IsActive {
		return nil, apperror.NewForbidden("api key is deactivated")
	}

	if key.IsExpired() {
		return nil, apperror.NewForbidden("api key has expired")
	}

	return key, nil
}

// TouchKey records when and from where a key was used. Usage tracking is
// non-critical and never fails the request.
func (s *apiKeyService) TouchKey(ctx context.Context, id int, ip string) {
	if err := s.repo.UpdateLastUsed(ctx, id, ip); err != nil {
		slog.Warn("failed to update api key last used", slog.Any("error", err))
	}
}

// EnsureBootstrapKey creates an admin key from the configured bootstrap
// secret when the key table is empty. Subsequent startups are no-ops, and
// the bootstrap key can be revoked once real keys exist.
func (s *apiKeyService) EnsureBootstrapKey(ctx context.Context, rawKey string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting api keys: %w", err)
	}
	if count > 0 {
		return nil
	}

	if rawKey == "" {
		slog.Warn("no api keys exist and no bootstrap key configured; API requests will be rejected until a key is seeded")
		return nil
	}
	if len(rawKey) < keyPrefixLen {
		return fmt.Errorf("bootstrap key must be at least %d characters", keyPrefixLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing bootstrap key: %w", err)
	}

	key := &APIKey{
		KeyHash:    string(hash),
		KeyPrefix:  rawKey[:keyPrefixLen],
		Name:       "bootstrap admin key",
		Permission: PermAdmin,
		RateLimit:  600,
		IsActive:   true,
	}

	if err := s.repo.Create(ctx, key); err != nil {
		return fmt.Errorf("creating bootstrap key: %w", err)
	}

	slog.Info("bootstrap admin key created",
		slog.String("prefix", key.KeyPrefix),
		slog.Int("key_id", key.ID),
	)
	return nil
}
