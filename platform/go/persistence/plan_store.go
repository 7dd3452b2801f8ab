package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionPlansTable holds the purchasable plans per database type.
const SubscriptionPlansTable = "platform.subscription_plans"

// PlanRecord is a row of platform.subscription_plans.
type PlanRecord struct {
	ID                uuid.UUID `db:"id"`
	Code              string    `db:"code"`
	Name              string    `db:"name"`
	DatabaseType      string    `db:"database_type"`
	MonthlyPriceCents int       `db:"monthly_price_cents"`
	Active            bool      `db:"active"`
}

// PlanStore provides read access to subscription plans. Plan selection during
// provisioning happens server-side inside provision_tenant; this store serves
// the pricing surfaces.
type PlanStore struct {
	pool *pgxpool.Pool
}

// NewPlanStore creates a store; assumes the bootstrap DDL already ran.
func NewPlanStore(ctx context.Context, pool *pgxpool.Pool) (*PlanStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PlanStore{pool: pool}, nil
}

// ListActive returns active plans ordered by price, cheapest first. The
// first managed entry is the plan provision_tenant assigns to new tenants.
func (s *PlanStore) ListActive(ctx context.Context) ([]PlanRecord, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, code, name, database_type, monthly_price_cents, active
        FROM `+SubscriptionPlansTable+`
        WHERE active
        ORDER BY monthly_price_cents ASC, code ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []PlanRecord
	for rows.Next() {
		var rec PlanRecord
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.Name, &rec.DatabaseType,
			&rec.MonthlyPriceCents, &rec.Active); err != nil {
			return nil, err
		}
		plans = append(plans, rec)
	}
	return plans, rows.Err()
}
