package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a back-office user allowed to inspect reconciled orders.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose
	CreatedAt    time.Time `json:"created_at"`
}
