package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/access"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/domain/aggregates/shift"
	"github.com/mwaxman519/rishi-next-sub005/modules/scheduling/services"
	"github.com/mwaxman519/rishi-next-sub005/pkg/application"
	"github.com/mwaxman519/rishi-next-sub005/pkg/httpapi"
	"github.com/mwaxman519/rishi-next-sub005/pkg/middleware"
)

type ShiftAPIController struct {
	app      application.Application
	shifts   *services.ShiftService
	basePath string
}

func NewShiftAPIController(app application.Application) application.Controller {
	return &ShiftAPIController{
		app:      app,
		shifts:   app.Service(services.ShiftService{}).(*services.ShiftService),
		basePath: "/scheduling/api",
	}
}

func (c *ShiftAPIController) Key() string {
	return c.basePath
}

func (c *ShiftAPIController) Register(r *mux.Router) {
	commonMiddleware := []mux.MiddlewareFunc{
		middleware.WithIdentity(),
	}

	// Reads run inside one transaction so the shift row and its assignment
	// projection come from the same snapshot.
	readRouter := r.PathPrefix(c.basePath).Subrouter()
	readRouter.Use(commonMiddleware...)
	readRouter.Use(middleware.WithTransaction())
	readRouter.HandleFunc("/shifts", c.List).Methods(http.MethodGet)
	readRouter.HandleFunc("/shifts/{id}", c.Get).Methods(http.MethodGet)

	// Writes are not wrapped here: the service owns the transaction so events
	// publish only after a successful commit.
	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(commonMiddleware...)
	writeRouter.HandleFunc("/shifts", c.Create).Methods(http.MethodPost)
	writeRouter.HandleFunc("/shifts/{id}", c.Update).Methods(http.MethodPatch)
	writeRouter.HandleFunc("/shifts/{id}", c.Delete).Methods(http.MethodDelete)
	writeRouter.HandleFunc("/shifts/{id}/assignments", c.Assign).Methods(http.MethodPost)
	writeRouter.HandleFunc("/shifts/{id}/cancel", c.Cancel).Methods(http.MethodPost)
}

func (c *ShiftAPIController) List(w http.ResponseWriter, r *http.Request) {
	params, err := parseFindParams(r)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest,
			"SCHEDULING_INVALID_QUERY", err.Error(), nil)
		return
	}

	items, err := c.shifts.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]shiftResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toShiftResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *ShiftAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entity, err := c.shifts.GetByID(r.Context(), id)
	if err != nil {
		// A shift the caller may not read is indistinguishable from a
		// missing one.
		var denied *access.DeniedError
		if errors.As(err, &denied) {
			writeNotFound(w)
			return
		}
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toShiftResponse(entity))
}

func (c *ShiftAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var dto shift.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeInvalidJSON(w)
		return
	}

	created, err := c.shifts.Create(r.Context(), &dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toShiftResponse(created))
}

func (c *ShiftAPIController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var dto shift.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeInvalidJSON(w)
		return
	}

	updated, err := c.shifts.Update(r.Context(), id, &dto)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toShiftResponse(updated))
}

func (c *ShiftAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := c.shifts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ShiftAPIController) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		AgentID uuid.UUID `json:"agentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AgentID == uuid.Nil {
		writeInvalidJSON(w)
		return
	}

	assignment, err := c.shifts.AssignWorker(r.Context(), id, body.AgentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toAssignmentResponse(assignment))
}

func (c *ShiftAPIController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeInvalidJSON(w)
		return
	}

	cancelled, err := c.shifts.Cancel(r.Context(), id, body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toShiftResponse(cancelled))
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeNotFound(w)
		return uuid.Nil, false
	}
	return id, true
}

func writeInvalidJSON(w http.ResponseWriter) {
	_ = httpapi.WriteError(w, http.StatusBadRequest,
		"SCHEDULING_INVALID_JSON", "invalid json body", nil)
}

func parseFindParams(r *http.Request) (*shift.FindParams, error) {
	q := r.URL.Query()
	params := &shift.FindParams{}

	for key, target := range map[string]**uuid.UUID{
		"organizationId": &params.OrganizationID,
		"agentId":        &params.AgentID,
		"locationId":     &params.LocationID,
		"brandId":        &params.BrandID,
		"eventId":        &params.EventID,
	} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, errors.New(key + " must be a uuid")
			}
			*target = &id
		}
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status := shift.Status(v)
		if !status.Valid() {
			return nil, errors.New("unknown status")
		}
		params.Status = &status
	}

	for key, target := range map[string]**time.Time{
		"from": &params.From,
		"to":   &params.To,
	} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, errors.New(key + " must be RFC3339")
			}
			*target = &t
		}
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, errors.New("limit must be a non-negative integer")
		}
		params.Limit = parsed
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, errors.New("offset must be a non-negative integer")
		}
		params.Offset = parsed
	}

	return params, nil
}
