package controllers

import (
	"errors"
	"net/http"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/access"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/conflict"
	"github.com/mwaxman519/rishi-next-sub005/pkg/httpapi"
	"github.com/mwaxman519/rishi-next-sub005/pkg/serrors"
)

// writeServiceError maps the engine's error taxonomy onto HTTP. Read-path
// denials arrive here already converted to not-found by the handlers, so a
// DeniedError always means a write was refused.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErrs serrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		_ = httpapi.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":    "SCHEDULING_VALIDATION_FAILED",
			"message": "validation failed",
			"errors":  validationErrs.Messages(),
		})
		return
	}

	var transitionErr *shift.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity,
			"SCHEDULING_INVALID_TRANSITION", transitionErr.Error(), map[string]string{
				"from": string(transitionErr.From),
				"to":   string(transitionErr.To),
			})
		return
	}

	if errors.Is(err, shift.ErrCancelReasonRequired) || errors.Is(err, shift.ErrNoActiveAssignment) {
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity,
			"SCHEDULING_VALIDATION_FAILED", err.Error(), nil)
		return
	}

	var conflictErr *conflict.DetectedError
	if errors.As(err, &conflictErr) {
		_ = httpapi.WriteJSON(w, http.StatusConflict, map[string]any{
			"code":    "SCHEDULING_CONFLICT_DETECTED",
			"message": "the worker has conflicting commitments in this window",
			"report":  conflictErr.Report,
		})
		return
	}

	var deniedErr *access.DeniedError
	if errors.As(err, &deniedErr) {
		_ = httpapi.WriteError(w, http.StatusForbidden,
			"SCHEDULING_ACCESS_DENIED", deniedErr.Error(), nil)
		return
	}

	if errors.Is(err, shift.ErrNotFound) || errors.Is(err, shift.ErrAssignmentNotFound) {
		writeNotFound(w)
		return
	}

	var baseErr *serrors.BaseError
	if errors.As(err, &baseErr) {
		_ = httpapi.WriteError(w, http.StatusBadGateway, baseErr.Code, baseErr.Message, baseErr.TemplateData)
		return
	}

	_ = httpapi.WriteError(w, http.StatusInternalServerError,
		"SCHEDULING_INTERNAL", "internal error", nil)
}

func writeNotFound(w http.ResponseWriter) {
	_ = httpapi.WriteError(w, http.StatusNotFound,
		"SCHEDULING_NOT_FOUND", "shift not found", nil)
}
