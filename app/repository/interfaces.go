package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByNameOrEmail(ctx context.Context, name, email string) (bool, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// APIKeyRepository stores hashed API keys
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	RevokeAllForUser(ctx context.Context, userID uint, at time.Time) error
	GetUserByKeyHash(ctx context.Context, hash string) (*models.User, *models.APIKey, error)
	TouchLastUsed(ctx context.Context, id uint, at time.Time) error
}

// PlanRepository reads the membership plan catalog
type PlanRepository interface {
	GetByID(ctx context.Context, id uint) (*models.MembershipPlan, error)
	List(ctx context.Context) ([]models.MembershipPlan, error)
	Seed(ctx context.Context, plans []models.MembershipPlan) error
}

// ActivePlanRepository manages the single plan slot per user
type ActivePlanRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.ActivePlan, error)
	GetByUserIDForUpdate(ctx context.Context, userID uint) (*models.ActivePlan, error)
	Create(ctx context.Context, plan *models.ActivePlan) error
	Upsert(ctx context.Context, plan *models.ActivePlan) error
	CountByUserID(ctx context.Context, userID uint) (int64, error)
}

// ShortLinkRepository defines the short code registry operations
type ShortLinkRepository interface {
	Create(ctx context.Context, link *models.ShortLink) error
	GetByCode(ctx context.Context, code string) (*models.ShortLink, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.ShortLink, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

// UsageRepository is the append-only usage ledger store
type UsageRepository interface {
	Create(ctx context.Context, event *models.UsageEvent) error
	CountBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error)
}

// PaymentRepository tracks payment orders and gateway webhook events
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetByOrderIDForUpdate(ctx context.Context, orderID string) (*models.Payment, error)
	MarkActivated(ctx context.Context, orderID, paymentID string, at time.Time) error
	UpdatePendingStatus(ctx context.Context, orderID, status string, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Payment, error)
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

// Repositories holds all repository instances bound to one database handle
type Repositories struct {
	db         *gorm.DB
	User       UserRepository
	APIKey     APIKeyRepository
	Plan       PlanRepository
	ActivePlan ActivePlanRepository
	ShortLink  ShortLinkRepository
	Usage      UsageRepository
	Payment    PaymentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:         db,
		User:       NewUserRepository(db),
		APIKey:     NewAPIKeyRepository(db),
		Plan:       NewPlanRepository(db),
		ActivePlan: NewActivePlanRepository(db),
		ShortLink:  NewShortLinkRepository(db),
		Usage:      NewUsageRepository(db),
		Payment:    NewPaymentRepository(db),
	}
}

// DB returns the underlying handle. Inside Transaction it is the tx handle.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn with repositories bound to a single database transaction.
// Any error returned by fn rolls the transaction back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
