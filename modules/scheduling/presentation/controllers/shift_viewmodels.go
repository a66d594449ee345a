package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
)

type assignmentResponse struct {
	ID         uuid.UUID              `json:"id"`
	ShiftID    uuid.UUID              `json:"shiftId"`
	AgentID    uuid.UUID              `json:"agentId"`
	Status     shift.AssignmentStatus `json:"status"`
	AssignedBy uuid.UUID              `json:"assignedBy"`
	AssignedAt time.Time              `json:"assignedAt"`
	Notes      string                 `json:"notes,omitempty"`
}

type shiftResponse struct {
	ID             uuid.UUID            `json:"id"`
	OrganizationID uuid.UUID            `json:"organizationId"`
	LocationID     *uuid.UUID           `json:"locationId,omitempty"`
	BrandID        *uuid.UUID           `json:"brandId,omitempty"`
	EventID        *uuid.UUID           `json:"eventId,omitempty"`
	Title          string               `json:"title"`
	Notes          string               `json:"notes,omitempty"`
	StartDateTime  time.Time            `json:"startDateTime"`
	EndDateTime    time.Time            `json:"endDateTime"`
	RequiredAgents int                  `json:"requiredAgents"`
	Skills         []string             `json:"skills,omitempty"`
	HourlyRate     *decimal.Decimal     `json:"hourlyRate,omitempty"`
	TotalBudget    *decimal.Decimal     `json:"totalBudget,omitempty"`
	Status         shift.Status         `json:"status"`
	CreatedBy      uuid.UUID            `json:"createdBy"`
	CreatedAt      time.Time            `json:"createdAt"`
	CancelReason   string               `json:"cancelReason,omitempty"`
	Assignments    []assignmentResponse `json:"assignments"`
}

func toAssignmentResponse(a shift.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:         a.ID(),
		ShiftID:    a.ShiftID(),
		AgentID:    a.AgentID(),
		Status:     a.Status(),
		AssignedBy: a.AssignedBy(),
		AssignedAt: a.AssignedAt(),
		Notes:      a.Notes(),
	}
}

func toShiftResponse(s shift.Shift) shiftResponse {
	assignments := make([]assignmentResponse, 0, len(s.Assignments()))
	for _, a := range s.Assignments() {
		assignments = append(assignments, toAssignmentResponse(a))
	}
	return shiftResponse{
		ID:             s.ID(),
		OrganizationID: s.OrganizationID(),
		LocationID:     s.LocationID(),
		BrandID:        s.BrandID(),
		EventID:        s.EventID(),
		Title:          s.Title(),
		Notes:          s.Notes(),
		StartDateTime:  s.Start(),
		EndDateTime:    s.End(),
		RequiredAgents: s.RequiredAgents(),
		Skills:         s.Skills(),
		HourlyRate:     s.HourlyRate(),
		TotalBudget:    s.TotalBudget(),
		Status:         s.Status(),
		CreatedBy:      s.CreatedBy(),
		CreatedAt:      s.CreatedAt(),
		CancelReason:   s.CancelReason(),
		Assignments:    assignments,
	}
}
