package repository

import (
	"context"
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
)

type apiKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new api key repository instance
func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

// RevokeAllForUser marks every active key of the user as revoked
func (r *apiKeyRepository) RevokeAllForUser(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at).Error
}

// GetUserByKeyHash resolves an active API key hash to its user.
func (r *apiKeyRepository) GetUserByKeyHash(ctx context.Context, hash string) (*models.User, *models.APIKey, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, nil, gorm.ErrRecordNotFound
	}
	var key models.APIKey
	if err := r.db.WithContext(ctx).Where("key_hash = ? AND revoked_at IS NULL", trimmed).First(&key).Error; err != nil {
		return nil, nil, err
	}
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, key.UserID).Error; err != nil {
		return nil, nil, err
	}
	return &user, &key, nil
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.APIKey{}).Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error
}
