package shift

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
)

// Lifecycle events carry the affected entity, the acting subject and the
// organization, the contract downstream audit and notification consumers
// subscribe on.

type CreatedEvent struct {
	Actor          uuid.UUID
	OrganizationID uuid.UUID
	Data           CreateDTO
	Result         Shift
	Timestamp      time.Time
}

type UpdatedEvent struct {
	Actor          uuid.UUID
	OrganizationID uuid.UUID
	ChangedFields  []string
	Result         Shift
	Timestamp      time.Time
}

type AssignedEvent struct {
	Actor          uuid.UUID
	OrganizationID uuid.UUID
	Assignment     Assignment
	Result         Shift
	Timestamp      time.Time
}

type CancelledEvent struct {
	Actor          uuid.UUID
	OrganizationID uuid.UUID
	Reason         string
	Result         Shift
	Timestamp      time.Time
}

type DeletedEvent struct {
	Actor          uuid.UUID
	OrganizationID uuid.UUID
	Result         Shift
	Timestamp      time.Time
}

func actor(ctx context.Context) (uuid.UUID, error) {
	identity, err := composables.UseIdentity(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return identity.SubjectID, nil
}

func NewCreatedEvent(ctx context.Context, data CreateDTO, result Shift) (*CreatedEvent, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	return &CreatedEvent{
		Actor:          actorID,
		OrganizationID: result.OrganizationID(),
		Data:           data,
		Result:         result,
		Timestamp:      time.Now(),
	}, nil
}

func NewUpdatedEvent(ctx context.Context, changedFields []string, result Shift) (*UpdatedEvent, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	return &UpdatedEvent{
		Actor:          actorID,
		OrganizationID: result.OrganizationID(),
		ChangedFields:  changedFields,
		Result:         result,
		Timestamp:      time.Now(),
	}, nil
}

func NewAssignedEvent(ctx context.Context, assignment Assignment, result Shift) (*AssignedEvent, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	return &AssignedEvent{
		Actor:          actorID,
		OrganizationID: result.OrganizationID(),
		Assignment:     assignment,
		Result:         result,
		Timestamp:      time.Now(),
	}, nil
}

func NewCancelledEvent(ctx context.Context, reason string, result Shift) (*CancelledEvent, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	return &CancelledEvent{
		Actor:          actorID,
		OrganizationID: result.OrganizationID(),
		Reason:         reason,
		Result:         result,
		Timestamp:      time.Now(),
	}, nil
}

func NewDeletedEvent(ctx context.Context, result Shift) (*DeletedEvent, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	return &DeletedEvent{
		Actor:          actorID,
		OrganizationID: result.OrganizationID(),
		Result:         result,
		Timestamp:      time.Now(),
	}, nil
}
