package membership

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shortener"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultPlanID          uint = 1
	DefaultMaxCodeAttempts      = 3
	maxURLLength                = 2048
)

// Config holds the tunables of the membership service.
type Config struct {
	DefaultPlanID   uint
	DefaultPlanDays int
	CodeLength      int
	MaxCodeAttempts int
}

// LinkCache is an optional read-through cache for redirect lookups.
type LinkCache interface {
	Get(ctx context.Context, code string) (string, bool)
	Set(ctx context.Context, code, originalURL string)
}

// Option customises a Service.
type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func WithLinkCache(c LinkCache) Option {
	return func(s *Service) { s.links = c }
}

// Service runs the quota and plan lifecycle use cases on top of the repositories.
type Service struct {
	repos    *repository.Repositories
	catalog  *Catalog
	cfg      Config
	clock    Clock
	newCode  func() (string, error)
	links    LinkCache
	validate *validator.Validate
}

func NewService(repos *repository.Repositories, cfg Config, opts ...Option) *Service {
	if cfg.DefaultPlanID == 0 {
		cfg.DefaultPlanID = DefaultPlanID
	}
	if cfg.DefaultPlanDays == 0 {
		cfg.DefaultPlanDays = DefaultPlanDays
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = shortener.DefaultCodeLength
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = DefaultMaxCodeAttempts
	}
	s := &Service{
		repos:    repos,
		catalog:  NewCatalog(repos.Plan),
		cfg:      cfg,
		clock:    SystemClock,
		validate: validator.New(),
	}
	s.newCode = shortener.Generator(cfg.CodeLength)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() *Catalog { return s.catalog }

func (s *Service) Now() time.Time { return s.clock() }

// TrackerWithin returns a tracker bound to the repositories of an open transaction.
func (s *Service) TrackerWithin(tx *repository.Repositories) *Tracker {
	return NewTracker(tx.ActivePlan, s.catalog.Within(tx.Plan), s.clock)
}

func (s *Service) guardWithin(tx *repository.Repositories) (*Guard, *Ledger) {
	catalog := s.catalog.Within(tx.Plan)
	ledger := NewLedger(tx.Usage)
	tracker := NewTracker(tx.ActivePlan, catalog, s.clock)
	return NewGuard(tracker, catalog, ledger), ledger
}

// Register creates the user and the default plan window in one transaction.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, *Window, error) {
	user, err := models.CreateUser(username, email, password)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, nil, &ValidationError{Field: strings.ToLower(verrs[0].Field()), Reason: "failed " + verrs[0].Tag() + " check"}
		}
		return nil, nil, err
	}

	var window *Window
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		taken, err := tx.User.ExistsByNameOrEmail(ctx, user.Name, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}
		if err := tx.User.Create(ctx, user); err != nil {
			if repository.IsDuplicateKey(err) {
				return ErrConflict
			}
			return err
		}
		window, err = s.TrackerWithin(tx).ActivateDefault(ctx, user.ID, s.cfg.DefaultPlanID, s.cfg.DefaultPlanDays)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[Membership] user %d registered with plan %d until %s", user.ID, window.PlanID, window.ExpiresAt.Format(time.RFC3339))
	return user, window, nil
}

// Authenticate returns the active user matching the credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive() || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if err := s.repos.User.TouchLastLogin(ctx, user.ID, s.clock()); err != nil {
		log.Printf("[Membership] failed to record login for user %d: %v", user.ID, err)
	}
	return user, nil
}

// Admit reports whether the user could shorten a URL right now. Read-only.
func (s *Service) Admit(ctx context.Context, userID uint) (Decision, error) {
	guard, _ := s.guardWithin(s.repos)
	return guard.Admit(ctx, userID, s.clock())
}

// Shorten admits the request and stores the link with its usage event atomically.
// The user's plan row is locked for the duration so concurrent requests queue up.
// A code collision retries the whole unit with a fresh code.
func (s *Service) Shorten(ctx context.Context, userID uint, originalURL string) (*models.ShortLink, error) {
	originalURL = strings.TrimSpace(originalURL)
	if err := s.validate.Var(originalURL, fmt.Sprintf("required,http_url,max=%d", maxURLLength)); err != nil {
		return nil, &ValidationError{Field: "url", Reason: "must be an absolute http or https URL"}
	}

	for attempt := 1; attempt <= s.cfg.MaxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}

		var link *models.ShortLink
		err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			guard, ledger := s.guardWithin(tx)
			decision, now, err := guard.admitLocked(ctx, userID, s.clock)
			if err != nil {
				return err
			}
			if !decision.Admitted {
				return decision.Err()
			}

			link = &models.ShortLink{
				ShortCode:   code,
				OriginalURL: originalURL,
				UserID:      userID,
				CreatedAt:   now,
			}
			if err := tx.ShortLink.Create(ctx, link); err != nil {
				return err
			}
			return ledger.RecordUsage(ctx, userID, link.ID, now)
		})
		if err == nil {
			if s.links != nil {
				s.links.Set(ctx, link.ShortCode, link.OriginalURL)
			}
			return link, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
		log.Printf("[Membership] short code collision on attempt %d for user %d", attempt, userID)
	}
	return nil, ErrCodeSpaceExhausted
}

// Resolve returns the original URL of a code. No ownership check.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	if !shortener.IsValidCode(code) {
		return "", ErrLinkNotFound
	}
	if s.links != nil {
		if url, ok := s.links.Get(ctx, code); ok {
			return url, nil
		}
	}
	link, err := s.repos.ShortLink.GetByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", ErrLinkNotFound
		}
		return "", err
	}
	if s.links != nil {
		s.links.Set(ctx, link.ShortCode, link.OriginalURL)
	}
	return link.OriginalURL, nil
}

// ListLinks returns the user's links, newest first.
func (s *Service) ListLinks(ctx context.Context, userID uint, offset, limit int) ([]models.ShortLink, error) {
	return s.repos.ShortLink.ListByUser(ctx, userID, offset, limit)
}

// Upgrade switches the user to planID for days starting now without payment.
func (s *Service) Upgrade(ctx context.Context, userID, planID uint, days int) (*Window, *models.MembershipPlan, error) {
	var window *Window
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		window, err = s.TrackerWithin(tx).Upgrade(ctx, userID, planID, days)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[Membership] user %d upgraded to plan %d for %d days", userID, planID, days)
	return window, plan, nil
}

// Status is the membership view of a user with derived remaining quotas.
type Status struct {
	Plan               models.MembershipPlan
	Window             Window
	State              State
	DaysRemaining      int
	UsedToday          int64
	UsedThisMonth      int64
	URLsRemainingToday int64
	URLsRemainingMonth int64
}

// Status returns the current window and remaining quotas, or ErrNoWindow.
func (s *Service) Status(ctx context.Context, userID uint) (*Status, error) {
	now := s.clock()
	tracker := NewTracker(s.repos.ActivePlan, s.catalog, s.clock)
	w, err := tracker.CurrentWindow(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.catalog.GetPlan(ctx, w.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, fmt.Errorf("%w: user %d plan %d", ErrInconsistentPlan, userID, w.PlanID)
		}
		return nil, err
	}
	ledger := NewLedger(s.repos.Usage)
	today, err := ledger.CountToday(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	month, err := ledger.CountThisMonth(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &Status{
		Plan:               *plan,
		Window:             *w,
		State:              w.State(now),
		DaysRemaining:      w.DaysRemaining(now),
		UsedToday:          today,
		UsedThisMonth:      month,
		URLsRemainingToday: clampRemaining(plan.DailyURLLimit, today),
		URLsRemainingMonth: clampRemaining(plan.URLLimit, month),
	}, nil
}

func clampRemaining(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}
