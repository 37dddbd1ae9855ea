package repository

import (
	"context"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new membership plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetByID(ctx context.Context, id uint) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	if err := r.db.WithContext(ctx).Where("plan_id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// List returns all plans ordered by plan id
func (r *planRepository) List(ctx context.Context) ([]models.MembershipPlan, error) {
	var plans []models.MembershipPlan
	err := r.db.WithContext(ctx).Order("plan_id ASC").Find(&plans).Error
	return plans, err
}

// Seed inserts the given plans, leaving existing rows untouched
func (r *planRepository) Seed(ctx context.Context, plans []models.MembershipPlan) error {
	if len(plans) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}},
		DoNothing: true,
	}).Create(&plans).Error
}
