// Package conflict decides whether a proposed time window overlaps an
// existing commitment for a worker or a location. The detector is a pure
// decision function: it reports conflicts, callers decide what to do about
// them.
package conflict

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindShift       Kind = "shift"
	KindEvent       Kind = "event"
	KindUnavailable Kind = "unavailable"
)

// kindRank fixes the tie-break order for conflicts starting at the same
// instant: shift, then event, then unavailable.
var kindRank = map[Kind]int{
	KindShift:       0,
	KindEvent:       1,
	KindUnavailable: 2,
}

// Interval is one active commitment, half-open [Start, End).
type Interval struct {
	Kind  Kind      `json:"kind"`
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Report is the structured result surfaced to callers, conflicts ordered by
// start time ascending.
type Report struct {
	Available bool       `json:"available"`
	Conflicts []Interval `json:"conflicts"`
}

// DetectedError wraps a non-available report so services can refuse a write
// and still hand the caller the full report.
type DetectedError struct {
	Report Report
}

func (e *DetectedError) Error() string {
	return "scheduling conflict detected"
}

// Subject identifies whose commitments to check: a worker, a location, or
// both.
type Subject struct {
	WorkerID   *uuid.UUID
	LocationID *uuid.UUID
}

// Source supplies the active intervals for a subject. Active means the
// owning shift is not cancelled and the assignment, if any, is not no_show.
type Source interface {
	ActiveIntervals(ctx context.Context, subject Subject) ([]Interval, error)
}

// Overlaps applies half-open interval overlap: [s1,e1) and [s2,e2) conflict
// iff s1 < e2 && s2 < e1. Zero-length and inverted intervals are rejected
// upstream by creation validation, not here.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

type Detector struct {
	sources []Source
}

func NewDetector(sources ...Source) *Detector {
	return &Detector{sources: sources}
}

// Check unions the active intervals of every source for the subject and
// reports which of them overlap the proposed [start, end) window.
func (d *Detector) Check(ctx context.Context, subject Subject, start, end time.Time) (Report, error) {
	var conflicts []Interval
	for _, source := range d.sources {
		intervals, err := source.ActiveIntervals(ctx, subject)
		if err != nil {
			return Report{}, err
		}
		for _, iv := range intervals {
			if Overlaps(start, end, iv.Start, iv.End) {
				conflicts = append(conflicts, iv)
			}
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if !conflicts[i].Start.Equal(conflicts[j].Start) {
			return conflicts[i].Start.Before(conflicts[j].Start)
		}
		return kindRank[conflicts[i].Kind] < kindRank[conflicts[j].Kind]
	})

	return Report{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}
