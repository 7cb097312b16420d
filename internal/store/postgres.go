package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pitchbase/rate-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision;
// yield thresholds are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateTier(ctx context.Context, t *model.PriceTier) error {
	eventID := any(nil)
	if t.EventID != "" {
		eventID = t.EventID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_tiers (id, item_id, parameter_id, event_id, group_min, group_max, amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC)`,
		t.ID, t.ItemID, t.ParameterID, eventID,
		t.GroupMin, t.GroupMax, t.Amount.String(),
	)
	return err
}

func (s *PostgresStore) ListTiers(ctx context.Context, itemID string) ([]model.PriceTier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, item_id, parameter_id,
		        COALESCE(event_id, '') AS event_id,
		        group_min, group_max, amount::TEXT
		 FROM price_tiers WHERE item_id = $1 ORDER BY parameter_id, group_min NULLS LAST`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []model.PriceTier
	for rows.Next() {
		var t model.PriceTier
		var amount string
		if err := rows.Scan(&t.ID, &t.ItemID, &t.ParameterID, &t.EventID,
			&t.GroupMin, &t.GroupMax, &amount); err != nil {
			return nil, err
		}
		t.Amount, _ = decimal.NewFromString(amount)
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (s *PostgresStore) CreateEvent(ctx context.Context, e *model.Event) error {
	thresholds, err := json.Marshal(e.YieldThresholds)
	if err != nil {
		return fmt.Errorf("marshal yield thresholds: %w", err)
	}

	dynValue := any(nil)
	if e.DynamicValue != nil {
		dynValue = e.DynamicValue.String()
	}

	// int4[] column; pgx maps []int32 natively.
	dow := make([]int32, len(e.DaysOfWeek))
	for i, day := range e.DaysOfWeek {
		dow[i] = int32(day)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pricing_events
		   (id, item_id, name, status, start_date, end_date, days_of_week,
		    pricing_type, dynamic_value, dynamic_mode, yield_thresholds, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::NUMERIC, $10, $11, $12)`,
		e.ID, e.ItemID, e.Name, e.Status,
		e.StartDate, e.EndDate, dow,
		string(e.PricingType), dynValue, string(e.DynamicMode),
		thresholds, e.CreatedAt,
	)
	return err
}

func (s *PostgresStore) ListEvents(ctx context.Context, itemID string) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, item_id, name, status, start_date, end_date,
		        COALESCE(days_of_week, '{}') AS days_of_week,
		        pricing_type,
		        COALESCE(dynamic_value::TEXT, '') AS dynamic_value,
		        COALESCE(dynamic_mode, '') AS dynamic_mode,
		        COALESCE(yield_thresholds, '[]'::JSONB) AS yield_thresholds,
		        created_at
		 FROM pricing_events
		 WHERE item_id = $1 AND status = $2
		 ORDER BY created_at DESC`, itemID, model.EventAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var pricingType, dynValue, dynMode string
		var thresholds []byte
		var dow []int32

		if err := rows.Scan(&e.ID, &e.ItemID, &e.Name, &e.Status,
			&e.StartDate, &e.EndDate, &dow,
			&pricingType, &dynValue, &dynMode, &thresholds,
			&e.CreatedAt); err != nil {
			return nil, err
		}

		for _, day := range dow {
			e.DaysOfWeek = append(e.DaysOfWeek, int(day))
		}

		e.PricingType = model.PricingType(pricingType)
		e.DynamicMode = model.DynamicMode(dynMode)
		if dynValue != "" {
			v, err := decimal.NewFromString(dynValue)
			if err != nil {
				return nil, fmt.Errorf("event %s: bad dynamic value %q: %w", e.ID, dynValue, err)
			}
			e.DynamicValue = &v
		}
		if err := json.Unmarshal(thresholds, &e.YieldThresholds); err != nil {
			return nil, fmt.Errorf("event %s: bad yield thresholds: %w", e.ID, err)
		}

		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) UpdateEventStatus(ctx context.Context, itemID, eventID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pricing_events SET status = $3 WHERE id = $2 AND item_id = $1`,
		itemID, eventID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s not found for item %s", eventID, itemID)
	}
	return nil
}
