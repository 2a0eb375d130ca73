package handler

import (
	"code_golf/internal/api/middleware"
	"code_golf/internal/app/service"
	"code_golf/internal/common"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type ChallengeHandler struct {
	challengeService *service.ChallengeService
}

func NewChallengeHandler(cs *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listChallenges)              // GET /api/v1/challenges
	r.Get("/{challengeSlug}", h.getChallenge) // GET /api/v1/challenges/reverse-a-string

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createChallenge)                      // POST /api/v1/challenges
		adminRouter.Post("/{challengeID}/criteria", h.reviseCriteria) // POST /api/v1/challenges/{id}/criteria
	})
}

// RegisterLanguageRoutes mounts the supported-languages listing.
func (h *ChallengeHandler) RegisterLanguageRoutes(r chi.Router) {
	r.Get("/", h.listLanguages)
}

func (h *ChallengeHandler) createChallenge(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing account context")
		return
	}

	var req service.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	challenge, err := h.challengeService.CreateChallenge(r.Context(), accountID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) reviseCriteria(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")

	var req service.ReviseCriteriaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := h.challengeService.ReviseCriteria(r.Context(), challengeID, req); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, map[string]string{"status": "regrade enqueued"})
}

func (h *ChallengeHandler) getChallenge(w http.ResponseWriter, r *http.Request) {
	challengeSlug := chi.URLParam(r, "challengeSlug")

	challenge, err := h.challengeService.GetChallengeBySlug(r.Context(), challengeSlug)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	// Criteria are grader-facing, not part of the public challenge page.
	challenge.GradingCriteria = ""
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) listLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.challengeService.ListLanguages(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, languages)
}

func (h *ChallengeHandler) listChallenges(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}

	challenges, total, err := h.challengeService.ListChallenges(r.Context(), limit, (page-1)*limit)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": challenges,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}
