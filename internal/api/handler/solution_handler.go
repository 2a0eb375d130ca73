package handler

import (
	"code_golf/internal/api/middleware"
	"code_golf/internal/app/service"
	"code_golf/internal/common"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type SolutionHandler struct {
	solutionService     *service.SolutionService
	leaderboardService  *service.LeaderboardService
	invalidationService *service.InvalidationService
}

func NewSolutionHandler(
	ss *service.SolutionService,
	ls *service.LeaderboardService,
	is *service.InvalidationService,
) *SolutionHandler {
	return &SolutionHandler{
		solutionService:     ss,
		leaderboardService:  ls,
		invalidationService: is,
	}
}

func (h *SolutionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All solution routes require auth
	r.Post("/", h.submit)
	r.Get("/best", h.best)
	r.Get("/invalidated", h.listInvalidated)
	r.Get("/invalidated/exists", h.hasInvalidated)
	r.Get("/{solutionID}", h.getSolution)
}

// RegisterPublicRoutes mounts the read-only leaderboard; anyone can view it.
func (h *SolutionHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/{challengeID}/{language}", h.leaderboard)
}

func (h *SolutionHandler) submit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing account context")
		return
	}

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	outcome, err := h.solutionService.Submit(r.Context(), accountID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, outcome)
}

func (h *SolutionHandler) best(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing account context")
		return
	}

	challengeID := r.URL.Query().Get("challenge_id")
	language := r.URL.Query().Get("language")

	best, err := h.solutionService.BestFor(r.Context(), accountID, challengeID, language)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if best == nil {
		common.RespondWithError(w, http.StatusNotFound, "No solution for this challenge and language")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, best)
}

func (h *SolutionHandler) getSolution(w http.ResponseWriter, r *http.Request) {
	solutionID := chi.URLParam(r, "solutionID")

	solution, err := h.solutionService.GetByID(r.Context(), solutionID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, solution)
}

func (h *SolutionHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")
	language := chi.URLParam(r, "language")

	entries, err := h.leaderboardService.Build(r.Context(), challengeID, language)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *SolutionHandler) listInvalidated(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing account context")
		return
	}

	invalidated, err := h.invalidationService.List(r.Context(), accountID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, invalidated)
}

func (h *SolutionHandler) hasInvalidated(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing account context")
		return
	}

	has, err := h.invalidationService.Has(r.Context(), accountID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"has_invalidated": has})
}
