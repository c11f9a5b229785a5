package postgres

import (
	"context"
	"fmt"
)

const healthQuery = "SELECT 1"

// HealthCheck reports whether the order store answers queries.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	var one int
	if err := h.pool.QueryRow(ctx, healthQuery).Scan(&one); err != nil {
		return fmt.Errorf("postgres health query: %w", err)
	}
	if one != 1 {
		return fmt.Errorf("postgres health query returned %d", one)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
