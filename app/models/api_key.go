package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// APIKey is a long-lived credential a user can present instead of a bearer token.
// Only the SHA-256 hash of the raw key is stored.
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	KeyHash    string     `gorm:"type:char(64);not null;uniqueIndex" json:"-"`
	Prefix     string     `gorm:"type:varchar(20);not null;default:''" json:"prefix"`
	LastUsedAt *time.Time `gorm:"default:null" json:"last_used_at"`
	RevokedAt  *time.Time `gorm:"default:null" json:"revoked_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (APIKey) TableName() string { return "api_keys" }

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiKeyPrefix = "lfx_"

// NewAPIKey generates key material for a user and returns the raw secret
// alongside the record to persist. The raw key is never stored.
func NewAPIKey(userID uint) (string, *APIKey, error) {
	rawKey, prefix, hash, err := generateAPIKeyMaterial()
	if err != nil {
		return "", nil, err
	}
	return rawKey, &APIKey{
		UserID:  userID,
		KeyHash: hash,
		Prefix:  prefix,
	}, nil
}

// IsActive reports whether the key has not been revoked.
func (k *APIKey) IsActive() bool {
	return k != nil && k.KeyHash != "" && k.RevokedAt == nil
}

// IsAPIKeyFormat reports whether raw looks like a key issued by NewAPIKey.
func IsAPIKeyFormat(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), apiKeyPrefix)
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateAPIKeyMaterial() (string, string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	encoded := strings.ToLower(apiKeyEncoding.EncodeToString(b))
	rawKey := apiKeyPrefix + encoded
	if len(rawKey) < 12 {
		return "", "", "", fmt.Errorf("api key generation failed: key too short")
	}
	prefix := rawKey[:min(len(rawKey), 12)]
	return rawKey, prefix, HashAPIKey(rawKey), nil
}
