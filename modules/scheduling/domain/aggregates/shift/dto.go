package shift

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwaxman519/rishi-next-sub005/pkg/constants"
	"github.com/mwaxman519/rishi-next-sub005/pkg/serrors"
)

// MaxRequiredAgents is the platform ceiling on shift capacity.
const MaxRequiredAgents = 50

type CreateDTO struct {
	Title          string           `json:"title" validate:"required,max=200"`
	Notes          string           `json:"notes"`
	StartDateTime  time.Time        `json:"startDateTime" validate:"required"`
	EndDateTime    time.Time        `json:"endDateTime" validate:"required,gtfield=StartDateTime"`
	RequiredAgents int              `json:"requiredAgents" validate:"required,min=1,max=50"`
	Skills         []string         `json:"skills"`
	LocationID     *uuid.UUID       `json:"locationId"`
	BrandID        *uuid.UUID       `json:"brandId"`
	EventID        *uuid.UUID       `json:"eventId"`
	HourlyRate     *decimal.Decimal `json:"hourlyRate"`
	TotalBudget    *decimal.Decimal `json:"totalBudget"`
}

func (d *CreateDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Notes = strings.TrimSpace(d.Notes)
}

// Ok validates the DTO and returns field-level failures. Nothing may be
// persisted when ok is false.
func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	out := make(serrors.ValidationErrors)
	if err := constants.Validate.Struct(d); err != nil {
		for field, fieldErr := range serrors.ProcessValidatorErrors(err.(validator.ValidationErrors)) {
			out[field] = fieldErr
		}
	}
	requirePositive(out, "HourlyRate", d.HourlyRate)
	requirePositive(out, "TotalBudget", d.TotalBudget)

	return out, len(out) == 0
}

// ToEntity builds a draft shift. The organization and creator come from the
// authenticated caller, never from the request body.
func (d *CreateDTO) ToEntity(organizationID, createdBy uuid.UUID) Shift {
	entity := New(organizationID, createdBy, d.Title, d.StartDateTime, d.EndDateTime, d.RequiredAgents)
	entity.notes = d.Notes
	entity.skills = d.Skills
	entity.locationID = d.LocationID
	entity.brandID = d.BrandID
	entity.eventID = d.EventID
	entity.hourlyRate = d.HourlyRate
	entity.totalBudget = d.TotalBudget
	return entity
}

// UpdateDTO is a partial update. Immutable fields (id, organizationId,
// createdBy) are simply absent here, so attempts to set them decode away
// silently instead of erroring.
type UpdateDTO struct {
	Title          *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Notes          *string          `json:"notes"`
	StartDateTime  *time.Time       `json:"startDateTime"`
	EndDateTime    *time.Time       `json:"endDateTime"`
	RequiredAgents *int             `json:"requiredAgents" validate:"omitempty,min=1,max=50"`
	Skills         *[]string        `json:"skills"`
	LocationID     *uuid.UUID       `json:"locationId"`
	BrandID        *uuid.UUID       `json:"brandId"`
	EventID        *uuid.UUID       `json:"eventId"`
	HourlyRate     *decimal.Decimal `json:"hourlyRate"`
	TotalBudget    *decimal.Decimal `json:"totalBudget"`
	Status         *Status          `json:"status"`
}

func (d *UpdateDTO) Normalize() {
	if d.Title != nil {
		title := strings.TrimSpace(*d.Title)
		d.Title = &title
	}
	if d.Notes != nil {
		notes := strings.TrimSpace(*d.Notes)
		d.Notes = &notes
	}
}

// Ok validates whatever subset of fields is supplied. Supplied strings are
// trimmed first, so a whitespace-only title fails min=1 the same way an
// empty one does.
func (d *UpdateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	out := make(serrors.ValidationErrors)
	if err := constants.Validate.Struct(d); err != nil {
		for field, fieldErr := range serrors.ProcessValidatorErrors(err.(validator.ValidationErrors)) {
			out[field] = fieldErr
		}
	}
	requirePositive(out, "HourlyRate", d.HourlyRate)
	requirePositive(out, "TotalBudget", d.TotalBudget)
	if d.Status != nil && !d.Status.Valid() {
		out["Status"] = &serrors.FieldError{Field: "Status", Rule: "oneof", Detail: "unknown status"}
	}
	return out, len(out) == 0
}

// Apply merges the update into the shift, enforcing the edit rules: draft
// and open shifts accept free field edits; assigned and later accept only
// non-temporal fields (status, notes, budget). A requested status change
// goes through the lifecycle table. Returns the updated shift and the list
// of changed field names.
func (d *UpdateDTO) Apply(s Shift) (Shift, []string, error) {
	if errs, ok := d.Ok(); !ok {
		return s, nil, errs
	}

	locked := make(serrors.ValidationErrors)
	var changed []string

	setLocked := func(field string) {
		locked[field] = &serrors.FieldError{
			Field:  field,
			Rule:   "immutable",
			Detail: "cannot change after the shift is assigned; cancel and recreate",
		}
	}

	if d.Title != nil && *d.Title != s.title {
		if s.TemporalLocked() {
			setLocked("Title")
		} else {
			s.title = *d.Title
			changed = append(changed, "title")
		}
	}
	if d.StartDateTime != nil && !d.StartDateTime.Equal(s.start) {
		if s.TemporalLocked() {
			setLocked("StartDateTime")
		} else {
			s.start = *d.StartDateTime
			changed = append(changed, "startDateTime")
		}
	}
	if d.EndDateTime != nil && !d.EndDateTime.Equal(s.end) {
		if s.TemporalLocked() {
			setLocked("EndDateTime")
		} else {
			s.end = *d.EndDateTime
			changed = append(changed, "endDateTime")
		}
	}
	if d.RequiredAgents != nil && *d.RequiredAgents != s.requiredAgents {
		if s.TemporalLocked() {
			setLocked("RequiredAgents")
		} else {
			s.requiredAgents = *d.RequiredAgents
			changed = append(changed, "requiredAgents")
		}
	}
	if d.Skills != nil {
		if s.TemporalLocked() {
			setLocked("Skills")
		} else {
			s.skills = *d.Skills
			changed = append(changed, "skills")
		}
	}
	if d.LocationID != nil {
		if s.TemporalLocked() {
			setLocked("LocationID")
		} else {
			s.locationID = d.LocationID
			changed = append(changed, "locationId")
		}
	}
	if d.BrandID != nil {
		if s.TemporalLocked() {
			setLocked("BrandID")
		} else {
			s.brandID = d.BrandID
			changed = append(changed, "brandId")
		}
	}
	if d.EventID != nil {
		if s.TemporalLocked() {
			setLocked("EventID")
		} else {
			s.eventID = d.EventID
			changed = append(changed, "eventId")
		}
	}

	if len(locked) > 0 {
		return s, nil, locked
	}

	if d.Notes != nil && *d.Notes != s.notes {
		s.notes = *d.Notes
		changed = append(changed, "notes")
	}
	if d.HourlyRate != nil {
		s.hourlyRate = d.HourlyRate
		changed = append(changed, "hourlyRate")
	}
	if d.TotalBudget != nil {
		s.totalBudget = d.TotalBudget
		changed = append(changed, "totalBudget")
	}

	if !s.end.After(s.start) {
		return s, nil, serrors.ValidationErrors{
			"EndDateTime": &serrors.FieldError{
				Field:  "EndDateTime",
				Rule:   "gtfield",
				Detail: "must be after startDateTime",
			},
		}
	}

	if d.Status != nil && *d.Status != s.status {
		next, err := s.Transition(*d.Status)
		if err != nil {
			return s, nil, err
		}
		s = next
		changed = append(changed, "status")
	}

	return s, changed, nil
}

func requirePositive(out serrors.ValidationErrors, field string, v *decimal.Decimal) {
	if v != nil && !v.IsPositive() {
		out[field] = &serrors.FieldError{
			Field:  field,
			Rule:   "gt",
			Detail: "must be greater than zero",
		}
	}
}
