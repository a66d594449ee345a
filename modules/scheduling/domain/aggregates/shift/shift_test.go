package shift_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
)

func testShift(status shift.Status, assignments ...shift.Assignment) shift.Shift {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return shift.Hydrate(
		uuid.New(), uuid.New(), nil, nil, nil,
		"Product demo", "", start, start.Add(8*time.Hour), 1, nil,
		nil, nil, status, uuid.New(), time.Now(), "", assignments,
	)
}

func activeAssignment() shift.Assignment {
	return shift.HydrateAssignment(
		uuid.New(), uuid.New(), uuid.New(),
		shift.AssignmentStatusAssigned, uuid.New(), time.Now(), "",
	)
}

func TestStatus_Transitions(t *testing.T) {
	cases := []struct {
		from    shift.Status
		to      shift.Status
		allowed bool
	}{
		{shift.StatusDraft, shift.StatusOpen, true},
		{shift.StatusDraft, shift.StatusCancelled, true},
		{shift.StatusDraft, shift.StatusAssigned, false},
		{shift.StatusDraft, shift.StatusCompleted, false},
		{shift.StatusOpen, shift.StatusAssigned, true},
		{shift.StatusOpen, shift.StatusCancelled, true},
		{shift.StatusOpen, shift.StatusInProgress, false},
		{shift.StatusAssigned, shift.StatusInProgress, true},
		{shift.StatusAssigned, shift.StatusCancelled, true},
		{shift.StatusAssigned, shift.StatusOpen, false},
		{shift.StatusInProgress, shift.StatusCompleted, true},
		{shift.StatusInProgress, shift.StatusCancelled, true},
		{shift.StatusInProgress, shift.StatusAssigned, false},
		{shift.StatusCompleted, shift.StatusCancelled, false},
		{shift.StatusCancelled, shift.StatusOpen, false},
		{shift.StatusCancelled, shift.StatusDraft, false},
	}

	for _, tc := range cases {
		require.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatus_Terminal(t *testing.T) {
	require.True(t, shift.StatusCompleted.Terminal())
	require.True(t, shift.StatusCancelled.Terminal())
	require.False(t, shift.StatusDraft.Terminal())
	require.False(t, shift.StatusOpen.Terminal())
	require.False(t, shift.StatusAssigned.Terminal())
	require.False(t, shift.StatusInProgress.Terminal())
}

func TestShift_Transition_FailureLeavesStatusUnchanged(t *testing.T) {
	s := testShift(shift.StatusDraft)

	next, err := s.Transition(shift.StatusCompleted)
	var transitionErr *shift.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, shift.StatusDraft, transitionErr.From)
	require.Equal(t, shift.StatusCompleted, transitionErr.To)
	require.Equal(t, shift.StatusDraft, next.Status())
}

func TestShift_Transition_AssignedRequiresActiveAssignment(t *testing.T) {
	empty := testShift(shift.StatusOpen)
	_, err := empty.Transition(shift.StatusAssigned)
	require.ErrorIs(t, err, shift.ErrNoActiveAssignment)

	noShow := shift.HydrateAssignment(
		uuid.New(), uuid.New(), uuid.New(),
		shift.AssignmentStatusNoShow, uuid.New(), time.Now(), "",
	)
	_, err = testShift(shift.StatusOpen, noShow).Transition(shift.StatusAssigned)
	require.ErrorIs(t, err, shift.ErrNoActiveAssignment)

	staffed := testShift(shift.StatusOpen, activeAssignment())
	next, err := staffed.Transition(shift.StatusAssigned)
	require.NoError(t, err)
	require.Equal(t, shift.StatusAssigned, next.Status())
}

func TestShift_Cancel(t *testing.T) {
	s := testShift(shift.StatusOpen)

	_, err := s.Cancel("  ")
	require.ErrorIs(t, err, shift.ErrCancelReasonRequired)

	cancelled, err := s.Cancel("  venue closed  ")
	require.NoError(t, err)
	require.Equal(t, shift.StatusCancelled, cancelled.Status())
	require.Equal(t, "venue closed", cancelled.CancelReason())

	_, err = cancelled.Cancel("again")
	var transitionErr *shift.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, shift.StatusCancelled, transitionErr.From)

	_, err = testShift(shift.StatusCompleted).Cancel("too late")
	require.ErrorAs(t, err, &transitionErr)
}

func TestShift_TemporalLocked(t *testing.T) {
	require.False(t, testShift(shift.StatusDraft).TemporalLocked())
	require.False(t, testShift(shift.StatusOpen).TemporalLocked())
	require.True(t, testShift(shift.StatusAssigned).TemporalLocked())
	require.True(t, testShift(shift.StatusInProgress).TemporalLocked())
	require.True(t, testShift(shift.StatusCompleted).TemporalLocked())
	require.True(t, testShift(shift.StatusCancelled).TemporalLocked())
}

func TestShift_ActiveAssignments(t *testing.T) {
	agentID := uuid.New()
	active := shift.HydrateAssignment(
		uuid.New(), uuid.New(), agentID,
		shift.AssignmentStatusCheckedIn, uuid.New(), time.Now(), "",
	)
	completed := shift.HydrateAssignment(
		uuid.New(), uuid.New(), uuid.New(),
		shift.AssignmentStatusCompleted, uuid.New(), time.Now(), "",
	)
	s := testShift(shift.StatusAssigned, active, completed)

	require.Len(t, s.ActiveAssignments(), 1)
	require.True(t, s.HasActiveAssignee(agentID))
	require.False(t, s.HasActiveAssignee(completed.AgentID()))
}

func TestShift_WithAssignment_DoesNotAliasOriginal(t *testing.T) {
	s := testShift(shift.StatusOpen)
	grown := s.WithAssignment(activeAssignment())

	require.Empty(t, s.Assignments())
	require.Len(t, grown.Assignments(), 1)
}

func TestAssignmentStatus_Active(t *testing.T) {
	require.True(t, shift.AssignmentStatusAssigned.Active())
	require.True(t, shift.AssignmentStatusConfirmed.Active())
	require.True(t, shift.AssignmentStatusCheckedIn.Active())
	require.False(t, shift.AssignmentStatusCompleted.Active())
	require.False(t, shift.AssignmentStatusNoShow.Active())
}
