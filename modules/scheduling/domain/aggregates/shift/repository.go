package shift

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FindParams is the shift query filter. Optional fields are pointers; nil
// means "not filtered". The Access Scoper rewrites this before it ever
// reaches a repository.
type FindParams struct {
	OrganizationID *uuid.UUID
	AgentID        *uuid.UUID
	LocationID     *uuid.UUID
	BrandID        *uuid.UUID
	EventID        *uuid.UUID
	Status         *Status
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

type Repository interface {
	FindMany(ctx context.Context, params *FindParams) ([]Shift, error)
	FindByID(ctx context.Context, id uuid.UUID) (Shift, error)
	Create(ctx context.Context, s Shift) (Shift, error)
	Update(ctx context.Context, s Shift) (Shift, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	// LockAgent serializes assignment creation per agent within the current
	// transaction, the concurrency-control point for check-then-act conflict
	// detection.
	LockAgent(ctx context.Context, agentID uuid.UUID) error
}
