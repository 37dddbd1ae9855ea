package membership

import (
	"context"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
)

// Ledger is the append-only record of accepted shorten requests.
// Counts are computed on every call; nothing is cached.
type Ledger struct {
	repo repository.UsageRepository
}

func NewLedger(repo repository.UsageRepository) *Ledger {
	return &Ledger{repo: repo}
}

// RecordUsage appends one event. Call it in the same transaction that creates the link.
func (l *Ledger) RecordUsage(ctx context.Context, userID, shortLinkID uint, at time.Time) error {
	return l.repo.Create(ctx, &models.UsageEvent{
		UserID:      userID,
		ShortLinkID: shortLinkID,
		CreatedAt:   at.UTC(),
	})
}

// CountToday counts events on asOf's UTC calendar day.
func (l *Ledger) CountToday(ctx context.Context, userID uint, asOf time.Time) (int64, error) {
	from, to := dayBounds(asOf)
	return l.repo.CountBetween(ctx, userID, from, to)
}

// CountThisMonth counts events in asOf's UTC calendar month.
func (l *Ledger) CountThisMonth(ctx context.Context, userID uint, asOf time.Time) (int64, error) {
	from, to := monthBounds(asOf)
	return l.repo.CountBetween(ctx, userID, from, to)
}
