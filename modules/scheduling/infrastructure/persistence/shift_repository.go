package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
	"github.com/mwaxman519/rishi-next-sub005/pkg/repo"
	"github.com/mwaxman519/rishi-next-sub005/pkg/serrors"
)

const (
	shiftColumns = `id, organization_id, location_id, brand_id, event_id, title, notes,
		start_at, end_at, required_agents, skills, hourly_rate::text, total_budget::text,
		status, created_by, created_at, cancel_reason`

	assignmentColumns = `id, shift_id, agent_id, status, assigned_by, assigned_at, notes`

	activeAssignmentStatuses = `'assigned', 'confirmed', 'checked_in'`

	defaultPageSize = 20
	maxPageSize     = 100
)

type PgShiftRepository struct{}

func NewShiftRepository() shift.Repository {
	return &PgShiftRepository{}
}

func (r *PgShiftRepository) FindMany(ctx context.Context, params *shift.FindParams) ([]shift.Shift, error) {
	if params == nil {
		params = &shift.FindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildShiftFilter(params)

	limit := params.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(
		`SELECT %s FROM shifts %s ORDER BY start_at, id LIMIT $%d OFFSET $%d`,
		shiftColumns, where, len(args)-1, len(args),
	)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list shifts")
	}
	defer rows.Close()

	var shiftRows []shiftRow
	for rows.Next() {
		row, err := scanShiftRow(rows)
		if err != nil {
			return nil, err
		}
		shiftRows = append(shiftRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]pgtype.UUID, 0, len(shiftRows))
	for _, row := range shiftRows {
		ids = append(ids, row.ID)
	}
	assignmentsByShift, err := r.loadAssignments(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]shift.Shift, 0, len(shiftRows))
	for _, row := range shiftRows {
		entity, err := toDomainShift(row, assignmentsByShift[uuidFromPg(row.ID)])
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (r *PgShiftRepository) FindByID(ctx context.Context, id uuid.UUID) (shift.Shift, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return shift.Shift{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1`, shiftColumns)
	row, err := scanShiftRow(tx.QueryRow(ctx, query, pgUUIDFromUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrNotFound
		}
		return shift.Shift{}, err
	}

	assignmentsByShift, err := r.loadAssignments(ctx, tx, []pgtype.UUID{row.ID})
	if err != nil {
		return shift.Shift{}, err
	}
	return toDomainShift(row, assignmentsByShift[id])
}

func (r *PgShiftRepository) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return shift.Shift{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO shifts (
			organization_id, location_id, brand_id, event_id, title, notes,
			start_at, end_at, required_agents, skills, hourly_rate, total_budget,
			status, created_by, cancel_reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12::numeric, $13, $14, $15
		) RETURNING %s`, shiftColumns)

	row, err := scanShiftRow(tx.QueryRow(ctx, query,
		pgUUIDFromUUID(s.OrganizationID()),
		pgUUIDFromPtr(s.LocationID()),
		pgUUIDFromPtr(s.BrandID()),
		pgUUIDFromPtr(s.EventID()),
		s.Title(),
		s.Notes(),
		s.Start(),
		s.End(),
		s.RequiredAgents(),
		nonNilSkills(s.Skills()),
		decimalText(s.HourlyRate()),
		decimalText(s.TotalBudget()),
		string(s.Status()),
		pgUUIDFromUUID(s.CreatedBy()),
		s.CancelReason(),
	))
	if err != nil {
		return shift.Shift{}, gerrors.Wrap(err, "failed to create shift")
	}
	return toDomainShift(row, nil)
}

func (r *PgShiftRepository) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return shift.Shift{}, err
	}

	query := fmt.Sprintf(`
		UPDATE shifts SET
			location_id = $2,
			brand_id = $3,
			event_id = $4,
			title = $5,
			notes = $6,
			start_at = $7,
			end_at = $8,
			required_agents = $9,
			skills = $10,
			hourly_rate = $11::numeric,
			total_budget = $12::numeric,
			status = $13,
			cancel_reason = $14
		WHERE id = $1
		RETURNING %s`, shiftColumns)

	row, err := scanShiftRow(tx.QueryRow(ctx, query,
		pgUUIDFromUUID(s.ID()),
		pgUUIDFromPtr(s.LocationID()),
		pgUUIDFromPtr(s.BrandID()),
		pgUUIDFromPtr(s.EventID()),
		s.Title(),
		s.Notes(),
		s.Start(),
		s.End(),
		s.RequiredAgents(),
		nonNilSkills(s.Skills()),
		decimalText(s.HourlyRate()),
		decimalText(s.TotalBudget()),
		string(s.Status()),
		s.CancelReason(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrNotFound
		}
		return shift.Shift{}, gerrors.Wrap(err, "failed to update shift")
	}

	assignmentsByShift, err := r.loadAssignments(ctx, tx, []pgtype.UUID{row.ID})
	if err != nil {
		return shift.Shift{}, err
	}
	return toDomainShift(row, assignmentsByShift[s.ID()])
}

// Delete removes the shift; assignments go with it via ON DELETE CASCADE.
func (r *PgShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, pgUUIDFromUUID(id))
	if err != nil {
		return gerrors.Wrap(err, "failed to delete shift")
	}
	if tag.RowsAffected() == 0 {
		return shift.ErrNotFound
	}
	return nil
}

func (r *PgShiftRepository) CreateAssignment(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return shift.Assignment{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO shift_assignments (shift_id, agent_id, status, assigned_by, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, assignmentColumns)

	var row assignmentRow
	err = tx.QueryRow(ctx, query,
		pgUUIDFromUUID(a.ShiftID()),
		pgUUIDFromUUID(a.AgentID()),
		string(a.Status()),
		pgUUIDFromUUID(a.AssignedBy()),
		a.Notes(),
	).Scan(&row.ID, &row.ShiftID, &row.AgentID, &row.Status, &row.AssignedBy, &row.AssignedAt, &row.Notes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shift.Assignment{}, serrors.ValidationErrors{
				"AgentID": &serrors.FieldError{
					Field:  "AgentID",
					Rule:   "unique",
					Detail: "agent is already assigned to this shift",
				},
			}
		}
		return shift.Assignment{}, gerrors.Wrap(err, "failed to create assignment")
	}
	return toDomainAssignment(row), nil
}

// LockAgent takes a transaction-scoped advisory lock keyed by the agent id.
// Concurrent assignment attempts for the same agent queue here, so the
// conflict check always sees the previous attempt's committed rows.
func (r *PgShiftRepository) LockAgent(ctx context.Context, agentID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`,
		agentID.String(),
	)
	if err != nil {
		return gerrors.Wrap(err, "failed to lock agent")
	}
	return nil
}

func (r *PgShiftRepository) loadAssignments(
	ctx context.Context,
	tx repo.Tx,
	shiftIDs []pgtype.UUID,
) (map[uuid.UUID][]shift.Assignment, error) {
	out := make(map[uuid.UUID][]shift.Assignment, len(shiftIDs))
	if len(shiftIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(
		`SELECT %s FROM shift_assignments WHERE shift_id = ANY($1) ORDER BY assigned_at, id`,
		assignmentColumns,
	)
	rows, err := tx.Query(ctx, query, shiftIDs)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to load assignments")
	}
	defer rows.Close()

	for rows.Next() {
		var row assignmentRow
		if err := rows.Scan(
			&row.ID, &row.ShiftID, &row.AgentID, &row.Status,
			&row.AssignedBy, &row.AssignedAt, &row.Notes,
		); err != nil {
			return nil, err
		}
		shiftID := uuidFromPg(row.ShiftID)
		out[shiftID] = append(out[shiftID], toDomainAssignment(row))
	}
	return out, rows.Err()
}

func buildShiftFilter(params *shift.FindParams) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if params.OrganizationID != nil {
		add(`organization_id = $%d`, pgUUIDFromUUID(*params.OrganizationID))
	}
	if params.AgentID != nil {
		add(`EXISTS (
			SELECT 1 FROM shift_assignments sa
			WHERE sa.shift_id = shifts.id
			  AND sa.agent_id = $%d
			  AND sa.status IN (`+activeAssignmentStatuses+`)
		)`, pgUUIDFromUUID(*params.AgentID))
	}
	if params.LocationID != nil {
		add(`location_id = $%d`, pgUUIDFromUUID(*params.LocationID))
	}
	if params.BrandID != nil {
		add(`brand_id = $%d`, pgUUIDFromUUID(*params.BrandID))
	}
	if params.EventID != nil {
		add(`event_id = $%d`, pgUUIDFromUUID(*params.EventID))
	}
	if params.Status != nil {
		add(`status = $%d`, string(*params.Status))
	}
	// From/To select shifts whose window overlaps [From, To), half-open.
	if params.From != nil {
		add(`end_at > $%d`, *params.From)
	}
	if params.To != nil {
		add(`start_at < $%d`, *params.To)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func scanShiftRow(row pgx.Row) (shiftRow, error) {
	var out shiftRow
	err := row.Scan(
		&out.ID, &out.OrganizationID, &out.LocationID, &out.BrandID, &out.EventID,
		&out.Title, &out.Notes, &out.StartAt, &out.EndAt, &out.RequiredAgents,
		&out.Skills, &out.HourlyRate, &out.TotalBudget, &out.Status,
		&out.CreatedBy, &out.CreatedAt, &out.CancelReason,
	)
	return out, err
}
