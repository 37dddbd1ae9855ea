package repository

import (
	"context"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
)

type shortLinkRepository struct {
	db *gorm.DB
}

// NewShortLinkRepository creates a new short link repository instance
func NewShortLinkRepository(db *gorm.DB) ShortLinkRepository {
	return &shortLinkRepository{db: db}
}

// Create inserts a link. A taken code surfaces as a duplicate key error.
func (r *shortLinkRepository) Create(ctx context.Context, link *models.ShortLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *shortLinkRepository) GetByCode(ctx context.Context, code string) (*models.ShortLink, error) {
	var link models.ShortLink
	if err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByUser returns the user's links, newest first. limit <= 0 means no limit.
func (r *shortLinkRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.ShortLink, error) {
	var links []models.ShortLink
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&links).Error
	return links, err
}

func (r *shortLinkRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShortLink{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
