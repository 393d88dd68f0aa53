package handler

import (
	"net/http"
	"strconv"

	"github.com/Rrens/trip-planner/internal/api/middleware"
	"github.com/Rrens/trip-planner/internal/api/response"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/service"
	"github.com/go-chi/chi/v5"
)

// PlannerHandler handles itinerary endpoints
type PlannerHandler struct {
	plannerService *service.PlannerService
}

// NewPlannerHandler creates a new planner handler
func NewPlannerHandler(plannerService *service.PlannerService) *PlannerHandler {
	return &PlannerHandler{plannerService: plannerService}
}

// Generate builds an itinerary; anonymous callers are allowed
func (h *PlannerHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input domain.GenerateRequest
	if !decode(w, r, &input) {
		return
	}

	resp, err := h.plannerService.Generate(r.Context(), middleware.GetUser(r.Context()), input)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	response.OK(w, resp)
}

// Save stores an itinerary for the signed in user
func (h *PlannerHandler) Save(w http.ResponseWriter, r *http.Request) {
	var input domain.SaveRequest
	if !decode(w, r, &input) {
		return
	}

	resp, err := h.plannerService.Save(r.Context(), middleware.GetUser(r.Context()), input)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	response.Created(w, resp)
}

// Approve marks a saved itinerary as approved
func (h *PlannerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var input domain.ApproveRequest
	if !decode(w, r, &input) {
		return
	}

	resp, err := h.plannerService.Approve(r.Context(), userID, input)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	response.OK(w, resp)
}

// History lists the signed in user's itineraries
func (h *PlannerHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	items, err := h.plannerService.History(r.Context(), userID)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	response.OK(w, items)
}

// Delete removes one itinerary from the history
func (h *PlannerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "itineraryID"), 10, 64)
	if err != nil {
		response.NotFound(w, "Not found.")
		return
	}

	if err := h.plannerService.Delete(r.Context(), userID, id); err != nil {
		serviceError(w, r, err)
		return
	}

	response.NoContent(w)
}
