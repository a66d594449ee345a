package services_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/access"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/conflict"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/services"
	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
	"github.com/mwaxman519/rishi-next-sub005/pkg/eventbus"
	"github.com/mwaxman519/rishi-next-sub005/pkg/serrors"
	"github.com/mwaxman519/rishi-next-sub005/pkg/types"
)

type stubTx struct{}

func (stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type memoryRepo struct {
	shifts       map[uuid.UUID]shift.Shift
	assignments  map[uuid.UUID][]shift.Assignment
	lockedAgents []uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		shifts:      map[uuid.UUID]shift.Shift{},
		assignments: map[uuid.UUID][]shift.Assignment{},
	}
}

func (r *memoryRepo) put(s shift.Shift) {
	r.shifts[s.ID()] = s
}

func (r *memoryRepo) FindMany(_ context.Context, params *shift.FindParams) ([]shift.Shift, error) {
	var out []shift.Shift
	for _, s := range r.shifts {
		if params.OrganizationID != nil && s.OrganizationID() != *params.OrganizationID {
			continue
		}
		if params.AgentID != nil && !s.HasActiveAssignee(*params.AgentID) {
			continue
		}
		if params.Status != nil && s.Status() != *params.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start().Before(out[j].Start()) })
	return out, nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (shift.Shift, error) {
	s, ok := r.shifts[id]
	if !ok {
		return shift.Shift{}, shift.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) Create(_ context.Context, s shift.Shift) (shift.Shift, error) {
	created := shift.Hydrate(
		uuid.New(), s.OrganizationID(), s.LocationID(), s.BrandID(), s.EventID(),
		s.Title(), s.Notes(), s.Start(), s.End(), s.RequiredAgents(), s.Skills(),
		s.HourlyRate(), s.TotalBudget(), s.Status(), s.CreatedBy(), time.Now(),
		s.CancelReason(), nil,
	)
	r.shifts[created.ID()] = created
	return created, nil
}

func (r *memoryRepo) Update(_ context.Context, s shift.Shift) (shift.Shift, error) {
	if _, ok := r.shifts[s.ID()]; !ok {
		return shift.Shift{}, shift.ErrNotFound
	}
	r.shifts[s.ID()] = s
	return s, nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.shifts[id]; !ok {
		return shift.ErrNotFound
	}
	delete(r.shifts, id)
	delete(r.assignments, id)
	return nil
}

func (r *memoryRepo) CreateAssignment(_ context.Context, a shift.Assignment) (shift.Assignment, error) {
	created := shift.HydrateAssignment(
		uuid.New(), a.ShiftID(), a.AgentID(), a.Status(), a.AssignedBy(), time.Now(), a.Notes(),
	)
	r.assignments[a.ShiftID()] = append(r.assignments[a.ShiftID()], created)
	return created, nil
}

func (r *memoryRepo) LockAgent(_ context.Context, agentID uuid.UUID) error {
	r.lockedAgents = append(r.lockedAgents, agentID)
	return nil
}

type recordingBus struct {
	events []interface{}
}

func (b *recordingBus) Publish(args ...interface{}) { b.events = append(b.events, args...) }
func (b *recordingBus) Subscribe(interface{})       {}
func (b *recordingBus) Unsubscribe(interface{})     {}
func (b *recordingBus) Clear()                      { b.events = nil }
func (b *recordingBus) SubscribersCount() int       { return 0 }

type staticSource struct {
	intervals []conflict.Interval
}

func (s *staticSource) ActiveIntervals(context.Context, conflict.Subject) ([]conflict.Interval, error) {
	return s.intervals, nil
}

type fixture struct {
	repo    *memoryRepo
	bus     *recordingBus
	source  *staticSource
	service *services.ShiftService
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	bus := &recordingBus{}
	source := &staticSource{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &fixture{
		repo:    repo,
		bus:     bus,
		source:  source,
		service: services.NewShiftService(repo, conflict.NewDetector(source), bus, log),
	}
}

func ctxFor(identity types.Identity) context.Context {
	ctx := composables.WithTx(context.Background(), stubTx{})
	return composables.WithIdentity(ctx, identity)
}

func manager(org uuid.UUID) types.Identity {
	return types.Identity{SubjectID: uuid.New(), Role: types.RoleInternalFieldManager, OrganizationID: org}
}

func seedShift(f *fixture, org uuid.UUID, status shift.Status, assignments ...shift.Assignment) shift.Shift {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s := shift.Hydrate(
		uuid.New(), org, nil, nil, nil,
		"Store demo", "", start, start.Add(8*time.Hour), 2, nil,
		nil, nil, status, uuid.New(), time.Now(), "", assignments,
	)
	f.repo.put(s)
	return s
}

func TestShiftService_Create(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	ctx := ctxFor(manager(org))

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	created, err := f.service.Create(ctx, &shift.CreateDTO{
		Title:          "  Launch event  ",
		StartDateTime:  start,
		EndDateTime:    start.Add(4 * time.Hour),
		RequiredAgents: 3,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID())
	require.Equal(t, shift.StatusDraft, created.Status())
	require.Equal(t, org, created.OrganizationID())
	require.Equal(t, "Launch event", created.Title())

	require.Len(t, f.bus.events, 1)
	ev, ok := f.bus.events[0].(*shift.CreatedEvent)
	require.True(t, ok)
	require.Equal(t, created.ID(), ev.Result.ID())
}

func TestShiftService_Create_Invalid(t *testing.T) {
	f := newFixture()
	ctx := ctxFor(manager(uuid.New()))

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	_, err := f.service.Create(ctx, &shift.CreateDTO{
		Title:          "Backwards window",
		StartDateTime:  start,
		EndDateTime:    start.Add(-time.Hour),
		RequiredAgents: 1,
	})
	var validationErrs serrors.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	require.Contains(t, validationErrs, "EndDateTime")
	require.Empty(t, f.bus.events)
}

func TestShiftService_Update_BrandAgentDenied(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	existing := seedShift(f, org, shift.StatusDraft)

	agent := types.Identity{SubjectID: uuid.New(), Role: types.RoleBrandAgent, OrganizationID: org}
	title := "New title"
	_, err := f.service.Update(ctxFor(agent), existing.ID(), &shift.UpdateDTO{Title: &title})

	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, access.ActionUpdate, denied.Action)
}

func TestShiftService_Update_StatusUnchangedOnBadTransition(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	existing := seedShift(f, org, shift.StatusDraft)

	to := shift.StatusCompleted
	_, err := f.service.Update(ctxFor(manager(org)), existing.ID(), &shift.UpdateDTO{Status: &to})

	var transitionErr *shift.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, shift.StatusDraft, transitionErr.From)

	stored, err := f.repo.FindByID(context.Background(), existing.ID())
	require.NoError(t, err)
	require.Equal(t, shift.StatusDraft, stored.Status())
}

func TestShiftService_AssignWorker(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	open := seedShift(f, org, shift.StatusOpen)
	agentID := uuid.New()

	assignment, err := f.service.AssignWorker(ctxFor(manager(org)), open.ID(), agentID)
	require.NoError(t, err)
	require.Equal(t, agentID, assignment.AgentID())
	require.Equal(t, shift.AssignmentStatusAssigned, assignment.Status())
	require.Equal(t, []uuid.UUID{agentID}, f.repo.lockedAgents)

	stored, err := f.repo.FindByID(context.Background(), open.ID())
	require.NoError(t, err)
	require.Equal(t, shift.StatusAssigned, stored.Status())

	require.Len(t, f.bus.events, 1)
	ev, ok := f.bus.events[0].(*shift.AssignedEvent)
	require.True(t, ok)
	require.Equal(t, agentID, ev.Assignment.AgentID())
}

func TestShiftService_AssignWorker_Conflict(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	open := seedShift(f, org, shift.StatusOpen)
	agentID := uuid.New()

	f.source.intervals = []conflict.Interval{{
		Kind:  conflict.KindShift,
		ID:    uuid.New(),
		Title: "Morning demo",
		Start: open.Start().Add(-time.Hour),
		End:   open.Start().Add(time.Hour),
	}}

	_, err := f.service.AssignWorker(ctxFor(manager(org)), open.ID(), agentID)

	var detected *conflict.DetectedError
	require.ErrorAs(t, err, &detected)
	require.False(t, detected.Report.Available)
	require.Len(t, detected.Report.Conflicts, 1)
	require.Equal(t, conflict.KindShift, detected.Report.Conflicts[0].Kind)

	stored, err := f.repo.FindByID(context.Background(), open.ID())
	require.NoError(t, err)
	require.Equal(t, shift.StatusOpen, stored.Status())
	require.Empty(t, f.repo.assignments[open.ID()])
	require.Empty(t, f.bus.events)
}

func TestShiftService_AssignWorker_TerminalShift(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	done := seedShift(f, org, shift.StatusCompleted)

	_, err := f.service.AssignWorker(ctxFor(manager(org)), done.ID(), uuid.New())

	var transitionErr *shift.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, shift.StatusCompleted, transitionErr.From)
}

func TestShiftService_Cancel(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	open := seedShift(f, org, shift.StatusOpen)
	ctx := ctxFor(manager(org))

	_, err := f.service.Cancel(ctx, open.ID(), "   ")
	require.ErrorIs(t, err, shift.ErrCancelReasonRequired)

	cancelled, err := f.service.Cancel(ctx, open.ID(), "venue flooded")
	require.NoError(t, err)
	require.Equal(t, shift.StatusCancelled, cancelled.Status())
	require.Equal(t, "venue flooded", cancelled.CancelReason())

	_, err = f.service.Cancel(ctx, open.ID(), "again")
	var transitionErr *shift.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, shift.StatusCancelled, transitionErr.From)
}

func TestShiftService_Delete_RequiresOrgAdmin(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	existing := seedShift(f, org, shift.StatusDraft)

	_, err := f.service.Delete(ctxFor(manager(org)), existing.ID())
	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)

	admin := types.Identity{SubjectID: uuid.New(), Role: types.RoleOrganizationAdmin, OrganizationID: org}
	deleted, err := f.service.Delete(ctxFor(admin), existing.ID())
	require.NoError(t, err)
	require.Equal(t, existing.ID(), deleted.ID())

	_, err = f.repo.FindByID(context.Background(), existing.ID())
	require.ErrorIs(t, err, shift.ErrNotFound)
}

func TestShiftService_GetByID_BrandAgentVisibility(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	agentID := uuid.New()

	mine := seedShift(f, org, shift.StatusAssigned,
		shift.HydrateAssignment(uuid.New(), uuid.New(), agentID, shift.AssignmentStatusConfirmed, uuid.New(), time.Now(), ""))
	other := seedShift(f, org, shift.StatusAssigned,
		shift.HydrateAssignment(uuid.New(), uuid.New(), uuid.New(), shift.AssignmentStatusAssigned, uuid.New(), time.Now(), ""))
	openPosting := seedShift(f, org, shift.StatusOpen)

	agent := types.Identity{SubjectID: agentID, Role: types.RoleBrandAgent, OrganizationID: org}
	ctx := ctxFor(agent)

	got, err := f.service.GetByID(ctx, mine.ID())
	require.NoError(t, err)
	require.Equal(t, mine.ID(), got.ID())

	_, err = f.service.GetByID(ctx, openPosting.ID())
	require.NoError(t, err)

	_, err = f.service.GetByID(ctx, other.ID())
	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)
	require.Equal(t, access.ActionRead, denied.Action)
}

func TestShiftService_List_ScopedToAgent(t *testing.T) {
	f := newFixture()
	org := uuid.New()
	agentID := uuid.New()

	mine := seedShift(f, org, shift.StatusAssigned,
		shift.HydrateAssignment(uuid.New(), uuid.New(), agentID, shift.AssignmentStatusCheckedIn, uuid.New(), time.Now(), ""))
	seedShift(f, org, shift.StatusAssigned,
		shift.HydrateAssignment(uuid.New(), uuid.New(), uuid.New(), shift.AssignmentStatusAssigned, uuid.New(), time.Now(), ""))
	seedShift(f, uuid.New(), shift.StatusOpen)

	agent := types.Identity{SubjectID: agentID, Role: types.RoleBrandAgent, OrganizationID: org}
	items, err := f.service.List(ctxFor(agent), &shift.FindParams{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, mine.ID(), items[0].ID())
}

func TestShiftService_PublishFailureDoesNotFailMutation(t *testing.T) {
	repo := newMemoryRepo()
	log := logrus.New()
	log.SetOutput(io.Discard)
	bus := eventbus.NewEventPublisher(log)
	bus.Subscribe(func(*shift.CreatedEvent) { panic("notification channel down") })
	svc := services.NewShiftService(repo, conflict.NewDetector(&staticSource{}), bus, log)

	org := uuid.New()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctxFor(manager(org)), &shift.CreateDTO{
		Title:          "Launch event",
		StartDateTime:  start,
		EndDateTime:    start.Add(4 * time.Hour),
		RequiredAgents: 1,
	})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), created.ID())
	require.NoError(t, err)
	require.Equal(t, created.ID(), stored.ID())
}

func TestShiftService_NotFoundPassesThrough(t *testing.T) {
	f := newFixture()
	ctx := ctxFor(manager(uuid.New()))

	_, err := f.service.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, shift.ErrNotFound)
	require.False(t, errors.As(err, new(*serrors.BaseError)))
}
