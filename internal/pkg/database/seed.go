package database

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"gorm.io/gorm"
)

// DefaultPlans is the built-in catalog. Price is in major currency units.
func DefaultPlans() []models.MembershipPlan {
	return []models.MembershipPlan{
		{ID: 1, Name: "Free", DailyURLLimit: 5, URLLimit: 50, Price: 0},
		{ID: 2, Name: "Basic", DailyURLLimit: 50, URLLimit: 1000, Price: 499},
		{ID: 3, Name: "Pro", DailyURLLimit: 500, URLLimit: 10000, Price: 1999},
	}
}

// SeedPlans inserts the default plans that are not present yet.
func SeedPlans(db *gorm.DB) error {
	if err := repository.NewPlanRepository(db).Seed(context.Background(), DefaultPlans()); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	return nil
}
