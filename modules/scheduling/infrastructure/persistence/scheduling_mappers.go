package persistence

import (
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
)

type shiftRow struct {
	ID             pgtype.UUID
	OrganizationID pgtype.UUID
	LocationID     pgtype.UUID
	BrandID        pgtype.UUID
	EventID        pgtype.UUID
	Title          string
	Notes          string
	StartAt        time.Time
	EndAt          time.Time
	RequiredAgents int
	Skills         []string
	HourlyRate     pgtype.Text
	TotalBudget    pgtype.Text
	Status         string
	CreatedBy      pgtype.UUID
	CreatedAt      time.Time
	CancelReason   string
}

type assignmentRow struct {
	ID         pgtype.UUID
	ShiftID    pgtype.UUID
	AgentID    pgtype.UUID
	Status     string
	AssignedBy pgtype.UUID
	AssignedAt time.Time
	Notes      string
}

func pgUUIDFromUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDFromPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgUUIDFromUUID(*id)
}

func uuidFromPg(v pgtype.UUID) uuid.UUID {
	if !v.Valid {
		return uuid.Nil
	}
	return v.Bytes
}

func uuidPtrFromPg(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

// decimalText renders a decimal for a $n::numeric placeholder; nil stays NULL.
func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func decimalFromText(v pgtype.Text) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to parse numeric column")
	}
	return &d, nil
}

func nonNilSkills(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}

func toDomainShift(row shiftRow, assignments []shift.Assignment) (shift.Shift, error) {
	hourlyRate, err := decimalFromText(row.HourlyRate)
	if err != nil {
		return shift.Shift{}, err
	}
	totalBudget, err := decimalFromText(row.TotalBudget)
	if err != nil {
		return shift.Shift{}, err
	}
	return shift.Hydrate(
		uuidFromPg(row.ID),
		uuidFromPg(row.OrganizationID),
		uuidPtrFromPg(row.LocationID),
		uuidPtrFromPg(row.BrandID),
		uuidPtrFromPg(row.EventID),
		row.Title,
		row.Notes,
		row.StartAt,
		row.EndAt,
		row.RequiredAgents,
		row.Skills,
		hourlyRate,
		totalBudget,
		shift.Status(row.Status),
		uuidFromPg(row.CreatedBy),
		row.CreatedAt,
		row.CancelReason,
		assignments,
	), nil
}

func toDomainAssignment(row assignmentRow) shift.Assignment {
	return shift.HydrateAssignment(
		uuidFromPg(row.ID),
		uuidFromPg(row.ShiftID),
		uuidFromPg(row.AgentID),
		shift.AssignmentStatus(row.Status),
		uuidFromPg(row.AssignedBy),
		row.AssignedAt,
		row.Notes,
	)
}
