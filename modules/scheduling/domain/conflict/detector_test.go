package conflict_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/conflict"
)

type fakeSource struct {
	intervals []conflict.Interval
	err       error
}

func (s *fakeSource) ActiveIntervals(context.Context, conflict.Subject) ([]conflict.Interval, error) {
	return s.intervals, s.err
}

func at(hour int) time.Time {
	return time.Date(2026, 3, 14, hour, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name               string
		s1, e1, s2, e2     time.Time
		expected           bool
	}{
		{"disjoint", at(9), at(12), at(13), at(15), false},
		{"touching endpoints do not overlap", at(9), at(12), at(12), at(15), false},
		{"touching the other way", at(12), at(15), at(9), at(12), false},
		{"partial overlap", at(9), at(12), at(11), at(15), true},
		{"containment", at(9), at(18), at(11), at(12), true},
		{"identical", at(9), at(12), at(9), at(12), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, conflict.Overlaps(tc.s1, tc.e1, tc.s2, tc.e2))
		})
	}
}

func TestDetector_Check_Available(t *testing.T) {
	detector := conflict.NewDetector(&fakeSource{
		intervals: []conflict.Interval{
			{Kind: conflict.KindShift, ID: uuid.New(), Start: at(6), End: at(9)},
		},
	})

	workerID := uuid.New()
	report, err := detector.Check(context.Background(), conflict.Subject{WorkerID: &workerID}, at(9), at(17))
	require.NoError(t, err)
	require.True(t, report.Available)
	require.Empty(t, report.Conflicts)
}

func TestDetector_Check_UnionsAndOrders(t *testing.T) {
	shiftConflict := conflict.Interval{
		Kind: conflict.KindShift, ID: uuid.New(), Title: "Other shift", Start: at(10), End: at(12),
	}
	eventConflict := conflict.Interval{
		Kind: conflict.KindEvent, ID: uuid.New(), Title: "Store opening", Start: at(10), End: at(11),
	}
	unavailable := conflict.Interval{
		Kind: conflict.KindUnavailable, ID: uuid.New(), Title: "PTO", Start: at(8), End: at(10),
	}
	outside := conflict.Interval{
		Kind: conflict.KindEvent, ID: uuid.New(), Start: at(18), End: at(20),
	}

	detector := conflict.NewDetector(
		&fakeSource{intervals: []conflict.Interval{shiftConflict, outside}},
		&fakeSource{intervals: []conflict.Interval{eventConflict}},
		&fakeSource{intervals: []conflict.Interval{unavailable}},
	)

	workerID := uuid.New()
	report, err := detector.Check(context.Background(), conflict.Subject{WorkerID: &workerID}, at(9), at(17))
	require.NoError(t, err)
	require.False(t, report.Available)
	require.Len(t, report.Conflicts, 3)

	// Earliest start first; same start breaks ties by kind (shift before event).
	require.Equal(t, unavailable.ID, report.Conflicts[0].ID)
	require.Equal(t, shiftConflict.ID, report.Conflicts[1].ID)
	require.Equal(t, eventConflict.ID, report.Conflicts[2].ID)
}

func TestDetector_Check_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("interval source unavailable")
	detector := conflict.NewDetector(&fakeSource{err: boom})

	workerID := uuid.New()
	_, err := detector.Check(context.Background(), conflict.Subject{WorkerID: &workerID}, at(9), at(17))
	require.ErrorIs(t, err, boom)
}
