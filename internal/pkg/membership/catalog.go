package membership

import (
	"context"
	"sync"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
)

// Catalog serves plan lookups. Plans never change while the process runs,
// so successful reads are cached without invalidation.
type Catalog struct {
	repo  repository.PlanRepository
	cache *planCache
}

type planCache struct {
	mu       sync.RWMutex
	byID     map[uint]models.MembershipPlan
	list     []models.MembershipPlan
	listDone bool
}

func NewCatalog(repo repository.PlanRepository) *Catalog {
	return &Catalog{
		repo:  repo,
		cache: &planCache{byID: make(map[uint]models.MembershipPlan)},
	}
}

// Within returns a catalog that reads through repo and shares this catalog's cache.
func (c *Catalog) Within(repo repository.PlanRepository) *Catalog {
	return &Catalog{repo: repo, cache: c.cache}
}

// GetPlan returns the plan or ErrPlanNotFound. Storage errors are returned as is.
func (c *Catalog) GetPlan(ctx context.Context, planID uint) (*models.MembershipPlan, error) {
	c.cache.mu.RLock()
	p, ok := c.cache.byID[planID]
	c.cache.mu.RUnlock()
	if ok {
		return &p, nil
	}

	plan, err := c.repo.GetByID(ctx, planID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	c.cache.mu.Lock()
	c.cache.byID[plan.ID] = *plan
	c.cache.mu.Unlock()

	cp := *plan
	return &cp, nil
}

// ListPlans returns all plans ordered by plan id.
func (c *Catalog) ListPlans(ctx context.Context) ([]models.MembershipPlan, error) {
	c.cache.mu.RLock()
	if c.cache.listDone {
		out := append([]models.MembershipPlan(nil), c.cache.list...)
		c.cache.mu.RUnlock()
		return out, nil
	}
	c.cache.mu.RUnlock()

	plans, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.mu.Lock()
	c.cache.list = append([]models.MembershipPlan(nil), plans...)
	c.cache.listDone = true
	for _, p := range plans {
		c.cache.byID[p.ID] = p
	}
	c.cache.mu.Unlock()

	return plans, nil
}
