package billing

import (
	"context"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/store"
)

// Guard applies the finance visibility rules in front of an Aggregator:
// staff may read any summary, residents only their own.
type Guard struct {
	agg   *Aggregator
	store store.Store
}

// NewGuard wraps agg.
func NewGuard(agg *Aggregator, s store.Store) *Guard {
	return &Guard{agg: agg, store: s}
}

// MonthlySummary returns the summary of userID if actor may see it.
func (g *Guard) MonthlySummary(ctx context.Context, actor identity.Actor, userID string, month model.Month) (MonthlySummary, error) {
	if err := actor.RequireAccess(identity.ViewAllFinances, userID); err != nil {
		return MonthlySummary{}, err
	}
	return g.agg.MonthlySummary(ctx, userID, month)
}

// FleetSummary returns the summaries of userIDs if actor may see all of them.
func (g *Guard) FleetSummary(ctx context.Context, actor identity.Actor, month model.Month, userIDs []string) (FleetSummary, error) {
	for _, id := range userIDs {
		if err := actor.RequireAccess(identity.ViewAllFinances, id); err != nil {
			return FleetSummary{}, err
		}
	}
	return g.agg.FleetSummary(ctx, month, userIDs)
}

// Residents returns the fleet summary of every resident for staff, and of the
// actor alone for a resident.
func (g *Guard) Residents(ctx context.Context, actor identity.Actor, month model.Month) (FleetSummary, error) {
	if !actor.Can(identity.ViewAllFinances) {
		return g.FleetSummary(ctx, actor, month, []string{actor.UserID})
	}
	residents, err := g.store.ListUsers(ctx, store.UserFilter{Roles: []model.Role{model.RoleResident}})
	if err != nil {
		return FleetSummary{}, err
	}
	ids := make([]string, 0, len(residents))
	for _, u := range residents {
		ids = append(ids, u.ID)
	}
	return g.agg.FleetSummary(ctx, month, ids)
}
