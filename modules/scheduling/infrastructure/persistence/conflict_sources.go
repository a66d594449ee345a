package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/conflict"
	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
)

// ShiftIntervalSource reports the worker's active shift commitments:
// assignments in an active status on shifts that are not cancelled.
type ShiftIntervalSource struct{}

func NewShiftIntervalSource() conflict.Source {
	return &ShiftIntervalSource{}
}

func (s *ShiftIntervalSource) ActiveIntervals(ctx context.Context, subject conflict.Subject) ([]conflict.Interval, error) {
	if subject.WorkerID == nil {
		return nil, nil
	}
	return queryIntervals(ctx, conflict.KindShift, `
		SELECT s.id, s.title, s.start_at, s.end_at
		FROM shift_assignments sa
		JOIN shifts s ON s.id = sa.shift_id
		WHERE sa.agent_id = $1
		  AND sa.status IN (`+activeAssignmentStatuses+`)
		  AND s.status <> 'cancelled'`,
		pgUUIDFromUUID(*subject.WorkerID),
	)
}

// EventIntervalSource reports calendar events booked at a location. Checks
// without a location pass trivially.
type EventIntervalSource struct{}

func NewEventIntervalSource() conflict.Source {
	return &EventIntervalSource{}
}

func (s *EventIntervalSource) ActiveIntervals(ctx context.Context, subject conflict.Subject) ([]conflict.Interval, error) {
	if subject.LocationID == nil {
		return nil, nil
	}
	return queryIntervals(ctx, conflict.KindEvent, `
		SELECT id, title, start_at, end_at
		FROM calendar_events
		WHERE location_id = $1`,
		pgUUIDFromUUID(*subject.LocationID),
	)
}

// UnavailabilityIntervalSource reports the worker's declared time off.
type UnavailabilityIntervalSource struct{}

func NewUnavailabilityIntervalSource() conflict.Source {
	return &UnavailabilityIntervalSource{}
}

func (s *UnavailabilityIntervalSource) ActiveIntervals(ctx context.Context, subject conflict.Subject) ([]conflict.Interval, error) {
	if subject.WorkerID == nil {
		return nil, nil
	}
	return queryIntervals(ctx, conflict.KindUnavailable, `
		SELECT id, reason, start_at, end_at
		FROM agent_unavailability
		WHERE agent_id = $1`,
		pgUUIDFromUUID(*subject.WorkerID),
	)
}

func queryIntervals(ctx context.Context, kind conflict.Kind, query string, args ...any) ([]conflict.Interval, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to load intervals")
	}
	defer rows.Close()

	var out []conflict.Interval
	for rows.Next() {
		var (
			id         pgtype.UUID
			title      string
			start, end time.Time
		)
		if err := rows.Scan(&id, &title, &start, &end); err != nil {
			return nil, err
		}
		out = append(out, conflict.Interval{
			Kind:  kind,
			ID:    uuidFromPg(id),
			Title: title,
			Start: start,
			End:   end,
		})
	}
	return out, rows.Err()
}
