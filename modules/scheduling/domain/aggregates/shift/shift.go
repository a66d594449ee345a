package shift

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the full lifecycle table. Cancellation is the only move
// allowed out of every non-terminal state; completed and cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusOpen, StatusCancelled},
	StatusOpen:       {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusCheckedIn AssignmentStatus = "checked_in"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusNoShow    AssignmentStatus = "no_show"
)

// Active reports whether this assignment still counts as a commitment:
// completed and no_show drop out of conflict detection.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentStatusAssigned ||
		s == AssignmentStatusConfirmed ||
		s == AssignmentStatusCheckedIn
}

// Assignment binds one agent to one shift. It has its own sub-lifecycle that
// advances independently of the shift's status.
type Assignment struct {
	id         uuid.UUID
	shiftID    uuid.UUID
	agentID    uuid.UUID
	status     AssignmentStatus
	assignedBy uuid.UUID
	assignedAt time.Time
	notes      string
}

func NewAssignment(shiftID, agentID, assignedBy uuid.UUID) Assignment {
	return Assignment{
		shiftID:    shiftID,
		agentID:    agentID,
		status:     AssignmentStatusAssigned,
		assignedBy: assignedBy,
	}
}

func HydrateAssignment(
	id uuid.UUID,
	shiftID uuid.UUID,
	agentID uuid.UUID,
	status AssignmentStatus,
	assignedBy uuid.UUID,
	assignedAt time.Time,
	notes string,
) Assignment {
	return Assignment{
		id:         id,
		shiftID:    shiftID,
		agentID:    agentID,
		status:     status,
		assignedBy: assignedBy,
		assignedAt: assignedAt,
		notes:      notes,
	}
}

func (a Assignment) ID() uuid.UUID            { return a.id }
func (a Assignment) ShiftID() uuid.UUID       { return a.shiftID }
func (a Assignment) AgentID() uuid.UUID       { return a.agentID }
func (a Assignment) Status() AssignmentStatus { return a.status }
func (a Assignment) AssignedBy() uuid.UUID    { return a.assignedBy }
func (a Assignment) AssignedAt() time.Time    { return a.assignedAt }
func (a Assignment) Notes() string            { return a.notes }
func (a Assignment) Active() bool             { return a.status.Active() }

// Shift is a bounded unit of scheduled work. The embedded assignments slice
// is a read-time projection assembled by the repository; the aggregate never
// treats it as writable state.
type Shift struct {
	id             uuid.UUID
	organizationID uuid.UUID
	locationID     *uuid.UUID
	brandID        *uuid.UUID
	eventID        *uuid.UUID
	title          string
	notes          string
	start          time.Time
	end            time.Time
	requiredAgents int
	skills         []string
	hourlyRate     *decimal.Decimal
	totalBudget    *decimal.Decimal
	status         Status
	createdBy      uuid.UUID
	createdAt      time.Time
	cancelReason   string
	assignments    []Assignment
}

func New(
	organizationID uuid.UUID,
	createdBy uuid.UUID,
	title string,
	start time.Time,
	end time.Time,
	requiredAgents int,
) Shift {
	return Shift{
		organizationID: organizationID,
		createdBy:      createdBy,
		title:          strings.TrimSpace(title),
		start:          start,
		end:            end,
		requiredAgents: requiredAgents,
		status:         StatusDraft,
	}
}

func Hydrate(
	id uuid.UUID,
	organizationID uuid.UUID,
	locationID *uuid.UUID,
	brandID *uuid.UUID,
	eventID *uuid.UUID,
	title string,
	notes string,
	start time.Time,
	end time.Time,
	requiredAgents int,
	skills []string,
	hourlyRate *decimal.Decimal,
	totalBudget *decimal.Decimal,
	status Status,
	createdBy uuid.UUID,
	createdAt time.Time,
	cancelReason string,
	assignments []Assignment,
) Shift {
	return Shift{
		id:             id,
		organizationID: organizationID,
		locationID:     locationID,
		brandID:        brandID,
		eventID:        eventID,
		title:          title,
		notes:          notes,
		start:          start,
		end:            end,
		requiredAgents: requiredAgents,
		skills:         skills,
		hourlyRate:     hourlyRate,
		totalBudget:    totalBudget,
		status:         status,
		createdBy:      createdBy,
		createdAt:      createdAt,
		cancelReason:   cancelReason,
		assignments:    assignments,
	}
}

func (s Shift) ID() uuid.UUID                 { return s.id }
func (s Shift) OrganizationID() uuid.UUID     { return s.organizationID }
func (s Shift) LocationID() *uuid.UUID        { return s.locationID }
func (s Shift) BrandID() *uuid.UUID           { return s.brandID }
func (s Shift) EventID() *uuid.UUID           { return s.eventID }
func (s Shift) Title() string                 { return s.title }
func (s Shift) Notes() string                 { return s.notes }
func (s Shift) Start() time.Time              { return s.start }
func (s Shift) End() time.Time                { return s.end }
func (s Shift) RequiredAgents() int           { return s.requiredAgents }
func (s Shift) Skills() []string              { return s.skills }
func (s Shift) HourlyRate() *decimal.Decimal  { return s.hourlyRate }
func (s Shift) TotalBudget() *decimal.Decimal { return s.totalBudget }
func (s Shift) Status() Status                { return s.status }
func (s Shift) CreatedBy() uuid.UUID          { return s.createdBy }
func (s Shift) CreatedAt() time.Time          { return s.createdAt }
func (s Shift) CancelReason() string          { return s.cancelReason }
func (s Shift) Assignments() []Assignment     { return s.assignments }
func (s Shift) IsZero() bool                  { return s.id == uuid.Nil }

func (s Shift) ActiveAssignments() []Assignment {
	out := make([]Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if a.Active() {
			out = append(out, a)
		}
	}
	return out
}

func (s Shift) HasActiveAssignee(agentID uuid.UUID) bool {
	for _, a := range s.assignments {
		if a.Active() && a.AgentID() == agentID {
			return true
		}
	}
	return false
}

// TemporalLocked reports whether the time window is committed. Once a shift
// reaches assigned, correcting the window requires cancel-and-recreate.
func (s Shift) TemporalLocked() bool {
	return s.status != StatusDraft && s.status != StatusOpen
}

// Transition moves the shift to the requested status, enforcing the
// lifecycle table. Entering assigned additionally requires at least one
// active assignment.
func (s Shift) Transition(to Status) (Shift, error) {
	if !s.status.CanTransitionTo(to) {
		return s, &InvalidTransitionError{From: s.status, To: to}
	}
	if to == StatusAssigned && len(s.ActiveAssignments()) == 0 {
		return s, ErrNoActiveAssignment
	}
	s.status = to
	return s, nil
}

// Cancel moves the shift to cancelled from any non-terminal state and
// records the mandatory reason.
func (s Shift) Cancel(reason string) (Shift, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return s, ErrCancelReasonRequired
	}
	if !s.status.CanTransitionTo(StatusCancelled) {
		return s, &InvalidTransitionError{From: s.status, To: StatusCancelled}
	}
	s.status = StatusCancelled
	s.cancelReason = reason
	return s, nil
}

// WithAssignment returns the shift with the assignment appended to its
// projection. Used by the service to transition open shifts to assigned in
// the same unit of work that created the first assignment.
func (s Shift) WithAssignment(a Assignment) Shift {
	s.assignments = append(append([]Assignment(nil), s.assignments...), a)
	return s
}
