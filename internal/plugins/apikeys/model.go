// Package apikeys provides API key authentication for the REST API.
// External clients (wiki generators, campaign dashboards, custom scripts)
// authenticate with bearer keys. Each key carries a single permission level;
// higher levels include the lower ones.
package apikeys

import "time"

// Permission is an API key's access level.
type Permission string

const (
	PermRead  Permission = "read"
	PermWrite Permission = "write"
	PermAdmin Permission = "admin"
)

// permissionRank orders levels for inclusion checks. Admin includes write,
// write includes read.
var permissionRank = map[Permission]int{
	PermRead:  1,
	PermWrite: 2,
	PermAdmin: 3,
}

// Valid reports whether p is a known permission level.
func (p Permission) Valid() bool {
	_, ok := permissionRank[p]
	return ok
}

// APIKey represents a registered API key.
type APIKey struct {
	ID         int        `json:"id"`
	KeyHash    string     `json:"-"`          // Never exposed in JSON.
	KeyPrefix  string     `json:"key_prefix"` // First 8 chars for display.
	Name       string     `json:"name"`
	Permission Permission `json:"permission"`
	RateLimit  int        `json:"rate_limit"` // Requests per minute.
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	LastUsedIP *string    `json:"last_used_ip,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsExpired returns true if the key has passed its expiry date.
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// Allows reports whether the key's level covers the required permission.
func (k *APIKey) Allows(perm Permission) bool {
	return permissionRank[k.Permission] >= permissionRank[perm]
}

// CreateAPIKeyInput is the validated input for creating a new API key.
type CreateAPIKeyInput struct {
	Name       string
	Permission Permission
	RateLimit  int
	ExpiresAt  *time.Time
}

// CreateAPIKeyResult is returned after key creation, containing the
// plaintext key that is only shown once.
type CreateAPIKeyResult struct {
	Key    *APIKey `json:"key"`
	RawKey string  `json:"raw_key"` // Plaintext key, shown once and never stored.
}

// CreateKeyRequest is the JSON body for creating an API key.
type CreateKeyRequest struct {
	Name       string     `json:"name"`
	Permission string     `json:"permission"`
	RateLimit  int        `json:"rate_limit"`
	ExpiresAt  *time.Time `json:"expires_at"`
}
