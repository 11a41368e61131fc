package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gatherpoint/server/internal/api/middleware"
	"github.com/gatherpoint/server/internal/api/problem"
	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/gatherpoint/server/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type createEventRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	Description string `json:"description" validate:"max=10000"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time"`
}

type eventResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Date        string    `json:"date"`
	Time        *string   `json:"time"`
	UserID      string    `json:"userId"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"createdAt"`
}

func eventView(event events.Event) eventResponse {
	view := eventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date.Format("2006-01-02"),
		UserID:      event.Owner,
		Approved:    event.Approved,
		CreatedAt:   event.CreatedAt,
	}
	if event.Time != nil {
		formatted := event.Time.String()
		view.Time = &formatted
	}
	return view
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	query := r.URL.Query()
	// ParseBool accepts 1/t/TRUE and friends; anything unparseable reads as
	// false, the safe default.
	includePending, err := strconv.ParseBool(query.Get("includePending"))
	if err != nil {
		includePending = false
	}
	filter := events.Filter{IncludePending: includePending}
	sort := events.NormalizeSort(query.Get("sort"))

	actor := middleware.ActorFromRequest(r)
	items, err := h.Service.List(r.Context(), actor, filter, sort)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	views := make([]eventResponse, 0, len(items))
	for _, item := range items {
		views = append(views, eventView(item))
	}
	writeJSON(w, http.StatusOK, views)
}

// Get returns one event by id. Pending events read as not-found for
// non-admins.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, ok := parseID(r, "id")
	if !ok {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", problem.ErrNotFound, h.Env)
		return
	}

	actor := middleware.ActorFromRequest(r)
	event, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventView(*event))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}
	if err := validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	actor := middleware.ActorFromRequest(r)
	event, err := h.Service.Create(r.Context(), actor, events.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
	})
	if err != nil {
		var validationErr events.ValidationError
		if errors.As(err, &validationErr) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	state := "pending"
	if event.Approved {
		state = "approved"
	}
	metrics.EventsCreatedTotal.WithLabelValues(state).Inc()

	writeJSON(w, http.StatusCreated, eventView(*event))
}

func (h *EventsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, ok := parseID(r, "id")
	if !ok {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", problem.ErrNotFound, h.Env)
		return
	}

	actor := middleware.ActorFromRequest(r)
	event, err := h.Service.Approve(r.Context(), actor, id)
	if err != nil {
		h.writeModifyError(w, r, err)
		return
	}

	metrics.EventsApprovedTotal.Inc()
	writeJSON(w, http.StatusOK, eventView(*event))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, ok := parseID(r, "id")
	if !ok {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", problem.ErrNotFound, h.Env)
		return
	}

	actor := middleware.ActorFromRequest(r)
	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.writeModifyError(w, r, err)
		return
	}

	metrics.EventsDeletedTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *EventsHandler) writeModifyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrPermissionDenied):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", err, h.Env)
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}
