package repository

import (
	"context"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type activePlanRepository struct {
	db *gorm.DB
}

// NewActivePlanRepository creates a new active plan repository instance
func NewActivePlanRepository(db *gorm.DB) ActivePlanRepository {
	return &activePlanRepository{db: db}
}

func (r *activePlanRepository) GetByUserID(ctx context.Context, userID uint) (*models.ActivePlan, error) {
	var ap models.ActivePlan
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ap).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

// GetByUserIDForUpdate reads the row with an exclusive lock. Only meaningful inside a transaction.
// SQLite has no row locks; there the single writer serialises transactions instead.
func (r *activePlanRepository) GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.ActivePlan, error) {
	var ap models.ActivePlan
	q := r.db.WithContext(ctx)
	if supportsRowLocks(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("user_id = ?", userID).First(&ap).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

// Create inserts a new row and fails on an existing slot for the user
func (r *activePlanRepository) Create(ctx context.Context, plan *models.ActivePlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// Upsert overwrites the user's slot in place or inserts it when absent.
func (r *activePlanRepository) Upsert(ctx context.Context, plan *models.ActivePlan) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id",
			"activation_date",
			"days_active",
			"expiration_date",
			"updated_at",
		}),
	}).Create(plan).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).Where("user_id = ?", plan.UserID).First(plan).Error
}

func (r *activePlanRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ActivePlan{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() != "sqlite"
}
