package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"doorstep/internal/pkg/apperr"
)

// AdminService changes pricing rows on behalf of administrators.
type AdminService struct {
	store    pricingAdmin
	resolver *Resolver
	log      *slog.Logger
}

func NewAdminService(store pricingAdmin, resolver *Resolver, log *slog.Logger) *AdminService {
	return &AdminService{store: store, resolver: resolver, log: log}
}

// BulkToggle activates or deactivates pricing rows and drops cached quotes,
// since an active-flag change alters which row a quote may use.
func (s *AdminService) BulkToggle(ctx context.Context, ids []int64, active bool) (int64, error) {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return 0, apperr.Validation("ids must contain at least one positive id", ErrEmptySelection)
	}

	n, err := s.store.SetPricingActive(ctx, unique, active)
	if err != nil {
		return 0, apperr.Upstream("update pricing records", fmt.Errorf("set active: %w", err))
	}
	s.resolver.InvalidateCache()
	s.log.Info("pricing records toggled", "requested", len(unique), "updated", n, "is_active", active)
	return n, nil
}

func (s *AdminService) InvalidateCache() {
	s.resolver.InvalidateCache()
	s.log.Info("pricing cache invalidated")
}
