package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/access"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/conflict"
	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
	"github.com/mwaxman519/rishi-next-sub005/pkg/eventbus"
	"github.com/mwaxman519/rishi-next-sub005/pkg/metrics"
	"github.com/mwaxman519/rishi-next-sub005/pkg/serrors"
	"github.com/mwaxman519/rishi-next-sub005/pkg/types"
)

// ShiftService is the only entrypoint other subsystems call. Every operation
// composes access scoping, lifecycle validation, conflict detection,
// persistence and event publication; the service itself keeps no state
// between calls.
type ShiftService struct {
	repo      shift.Repository
	detector  *conflict.Detector
	publisher eventbus.EventBus
	log       *logrus.Logger
}

func NewShiftService(
	repo shift.Repository,
	detector *conflict.Detector,
	publisher eventbus.EventBus,
	log *logrus.Logger,
) *ShiftService {
	return &ShiftService{
		repo:      repo,
		detector:  detector,
		publisher: publisher,
		log:       log,
	}
}

// List returns the shifts visible to the caller. The supplied filter is
// rewritten by the access scoper before it reaches the repository, and each
// record is re-checked afterwards. An empty result is not an error.
func (s *ShiftService) List(ctx context.Context, params *shift.FindParams) ([]shift.Shift, error) {
	start := time.Now()
	var err error
	defer func() { metrics.ObserveOperation("list", start, err) }()

	caller, err := composables.UseIdentity(ctx)
	if err != nil {
		return nil, s.dependencyFailure("list", err)
	}

	items, err := s.repo.FindMany(ctx, access.ScopeFilter(params, caller))
	if err != nil {
		err = s.mapError("list", err)
		return nil, err
	}

	visible := make([]shift.Shift, 0, len(items))
	for _, item := range items {
		if access.CanReadRecord(item, caller) {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// GetByID loads one shift. A record the caller may not read surfaces as
// DeniedError here; the API layer collapses that to not-found so read paths
// never reveal existence.
func (s *ShiftService) GetByID(ctx context.Context, id uuid.UUID) (shift.Shift, error) {
	start := time.Now()
	var err error
	defer func() { metrics.ObserveOperation("get", start, err) }()

	caller, err := composables.UseIdentity(ctx)
	if err != nil {
		return shift.Shift{}, s.dependencyFailure("get", err)
	}

	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		err = s.mapError("get", err)
		return shift.Shift{}, err
	}
	if !access.CanReadRecord(entity, caller) {
		err = &access.DeniedError{Action: access.ActionRead}
		return shift.Shift{}, err
	}
	return entity, nil
}

// Create validates the payload and persists a new draft shift. The
// organization id is forced to the caller's organization regardless of what
// the request claims.
func (s *ShiftService) Create(ctx context.Context, data *shift.CreateDTO) (shift.Shift, error) {
	start := time.Now()
	var err error
	defer func() { metrics.ObserveOperation("create", start, err) }()

	caller, err := composables.UseIdentity(ctx)
	if err != nil {
		return shift.Shift{}, s.dependencyFailure("create", err)
	}
	if errs, ok := data.Ok(); !ok {
		err = errs
		return shift.Shift{}, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (shift.Shift, error) {
		return s.repo.Create(txCtx, data.ToEntity(caller.OrganizationID, caller.SubjectID))
	})
	if err != nil {
		err = s.mapError("create", err)
		return shift.Shift{}, err
	}

	if ev, evErr := shift.NewCreatedEvent(ctx, *data, created); evErr != nil {
		s.logPublishSkip("create", evErr)
	} else {
		s.publisher.Publish(ev)
	}
	return created, nil
}

// Update applies a partial update, running field constraints and the
// lifecycle table against the stored state.
func (s *ShiftService) Update(ctx context.Context, id uuid.UUID, data *shift.UpdateDTO) (shift.Shift, error) {
	start := time.Now()
	var err error
	defer func() { metrics.ObserveOperation("update", start, err) }()

	caller, err := composables.UseIdentity(ctx)
	if err != nil {
		return shift.Shift{}, s.dependencyFailure("update", err)
	}
	if !access.Allowed(caller.Role, access.ActionUpdate) {
		err = &access.DeniedError{Action: access.ActionUpdate}
		return shift.Shift{}, err
	}

	var changed []string
	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (shift.Shift, error) {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return shift.Shift{}, err
		}
		if !canWriteRecord(current, caller) {
			return shift.Shift{}, &access.DeniedError{Action: access.ActionUpdate}
		}
		next, fields, err := data.Apply(current)
		if err != nil {
			return shift.Shift{}, err
		}
		changed = fields
		return s.repo.Update(txCtx, next)
	})
	if err != nil {
		err = s.mapError("update", err)
		return shift.Shift{}, err
	}

	if ev, evErr := shift.NewUpdatedEvent(ctx, changed, updated); evErr != nil {
		s.logPublishSkip("update", evErr)
	} else {
		s.publisher.Publish(ev)
	}
	return updated, nil
}

// Delete removes a shift and, in the same transaction, its assignments.
func (s *ShiftService) Delete(ctx context.Context, id uuid.UUID) (shift.Shift, error) {
	start := time.Now()
	var err error
	defer func() { metrics.ObserveOperation("delete", start, err) }()

	caller, err := composables.UseIdentity(ctx)
	if err != nil {
		return shift.Shift{}, s.dependencyFailure("delete", err)
	}
	if !access.Allowed(caller.Role, access.ActionDelete) {
		err = &access.DeniedError{Action: access.ActionDelete}
		return shift.Shift{}, err
	}

	deleted, err := composables.InTxResult(ctx, func(txCtx context.Context) (shift.Shift, error) {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return shift.Shift{}, err
		}
		if !canWriteRecord(current, caller) {
			return shift.Shift{}, &access.DeniedError{Action: access.ActionDelete}
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return shift.Shift{}, err
		}
		return current, nil
	})
	if err != nil {
		err = s.mapError("delete", err)
		return shift.Shift{}, err
	}

	if ev, evErr := shift.NewDeletedEvent(ctx, deleted); evErr != nil {
		s.logPublishSkip("delete", evErr)
	} else {
		s.publisher.Publish(ev)
	}
	return deleted, nil
}

// AssignWorker binds an agent to a shift after conflict detection. The
// per-agent repository lock serializes concurrent assignment attempts so
// two overlapping windows cannot both pass the check. Creating the first
// assignment against an open shift also moves it to assigned, atomically.
func (s *ShiftService) AssignWorker(ctx context.Context, shiftID, agentID uuid.UUID) (shift.Assignment, error) {
	start := time.Now()
	var err error
	defer func() { metrics.ObserveOperation("assign", start, err) }()

	caller, err := composables.UseIdentity(ctx)
	if err != nil {
		return shift.Assignment{}, s.dependencyFailure("assign", err)
	}
	if !access.Allowed(caller.Role, access.ActionAssign) {
		err = &access.DeniedError{Action: access.ActionAssign}
		return shift.Assignment{}, err
	}

	var updated shift.Shift
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (shift.Assignment, error) {
		if err := s.repo.LockAgent(txCtx, agentID); err != nil {
			return shift.Assignment{}, err
		}
		current, err := s.repo.FindByID(txCtx, shiftID)
		if err != nil {
			return shift.Assignment{}, err
		}
		if !canWriteRecord(current, caller) {
			return shift.Assignment{}, &access.DeniedError{Action: access.ActionAssign}
		}
		if current.Status().Terminal() {
			return shift.Assignment{}, &shift.InvalidTransitionError{From: current.Status(), To: shift.StatusAssigned}
		}

		report, err := s.detector.Check(txCtx, conflict.Subject{WorkerID: &agentID}, current.Start(), current.End())
		if err != nil {
			return shift.Assignment{}, err
		}
		if !report.Available {
			return shift.Assignment{}, &conflict.DetectedError{Report: report}
		}

		assignment, err := s.repo.CreateAssignment(txCtx, shift.NewAssignment(shiftID, agentID, caller.SubjectID))
		if err != nil {
			return shift.Assignment{}, err
		}

		result := current.WithAssignment(assignment)
		if current.Status() == shift.StatusOpen {
			next, err := result.Transition(shift.StatusAssigned)
			if err != nil {
				return shift.Assignment{}, err
			}
			result, err = s.repo.Update(txCtx, next)
			if err != nil {
				return shift.Assignment{}, err
			}
		}

		updated = result
		return assignment, nil
	})
	if err != nil {
		err = s.mapError("assign", err)
		return shift.Assignment{}, err
	}

	if ev, evErr := shift.NewAssignedEvent(ctx, created, updated); evErr != nil {
		s.logPublishSkip("assign", evErr)
	} else {
		s.publisher.Publish(ev)
	}
	return created, nil
}

// Cancel moves a shift to cancelled, recording the mandatory reason.
// Assignments keep their stored status; they stop counting as conflicts
// because the detector excludes intervals under cancelled shifts.
func (s *ShiftService) Cancel(ctx context.Context, id uuid.UUID, reason string) (shift.Shift, error) {
	start := time.Now()
	var err error
	defer func() { metrics.ObserveOperation("cancel", start, err) }()

	caller, err := composables.UseIdentity(ctx)
	if err != nil {
		return shift.Shift{}, s.dependencyFailure("cancel", err)
	}
	if !access.Allowed(caller.Role, access.ActionCancel) {
		err = &access.DeniedError{Action: access.ActionCancel}
		return shift.Shift{}, err
	}

	cancelled, err := composables.InTxResult(ctx, func(txCtx context.Context) (shift.Shift, error) {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return shift.Shift{}, err
		}
		if !canWriteRecord(current, caller) {
			return shift.Shift{}, &access.DeniedError{Action: access.ActionCancel}
		}
		next, err := current.Cancel(reason)
		if err != nil {
			return shift.Shift{}, err
		}
		return s.repo.Update(txCtx, next)
	})
	if err != nil {
		err = s.mapError("cancel", err)
		return shift.Shift{}, err
	}

	if ev, evErr := shift.NewCancelledEvent(ctx, reason, cancelled); evErr != nil {
		s.logPublishSkip("cancel", evErr)
	} else {
		s.publisher.Publish(ev)
	}
	return cancelled, nil
}

// logPublishSkip records an event that could not be built after its mutation
// already committed. Publication is best-effort; the mutation stands.
func (s *ShiftService) logPublishSkip(operation string, err error) {
	if s.log != nil {
		s.log.WithField("operation", operation).
			WithError(err).
			Warn("scheduling: event publication skipped")
	}
}

// canWriteRecord scopes writes to the caller's organization. Role gating
// happened before this; here only record ownership matters.
func canWriteRecord(s shift.Shift, caller types.Identity) bool {
	if caller.Role == types.RoleSuperAdmin {
		return true
	}
	return s.OrganizationID() == caller.OrganizationID
}

// isDomainError reports whether err belongs to the engine's taxonomy and
// may pass to the caller verbatim.
func isDomainError(err error) bool {
	var validationErrs serrors.ValidationErrors
	var transitionErr *shift.InvalidTransitionError
	var deniedErr *access.DeniedError
	var conflictErr *conflict.DetectedError
	return errors.Is(err, shift.ErrNotFound) ||
		errors.Is(err, shift.ErrAssignmentNotFound) ||
		errors.Is(err, shift.ErrCancelReasonRequired) ||
		errors.Is(err, shift.ErrNoActiveAssignment) ||
		errors.As(err, &validationErrs) ||
		errors.As(err, &transitionErr) ||
		errors.As(err, &deniedErr) ||
		errors.As(err, &conflictErr)
}

// mapError passes domain errors through and converts everything else into a
// generic dependency failure, logging the detail server-side only.
func (s *ShiftService) mapError(operation string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return s.dependencyFailure(operation, err)
}

func (s *ShiftService) dependencyFailure(operation string, err error) error {
	correlationID := uuid.New().String()
	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"operation":      operation,
			"correlation_id": correlationID,
		}).WithError(err).Error("scheduling: dependency failure")
	}
	return serrors.NewError("SCHEDULING_DEPENDENCY_FAILURE", "a dependency failed; retry with backoff").
		WithTemplateData(map[string]string{"correlation_id": correlationID})
}
