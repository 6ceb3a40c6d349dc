package handler

import (
	"encoding/json"
	"net/http"

	"crowdsolve/internal/api/middleware"
	"crowdsolve/internal/app/service"
	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type SolutionHandler struct {
	solutionService *service.SolutionService
	voteService     *service.VoteService
}

func NewSolutionHandler(ss *service.SolutionService, vs *service.VoteService) *SolutionHandler {
	return &SolutionHandler{solutionService: ss, voteService: vs}
}

func (h *SolutionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listSolutions)
	r.Get("/{solutionID}/vote", h.getVote) // public: unauthenticated means "no vote"

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator)
		protected.Patch("/{solutionID}", h.updateSolution)
		protected.Delete("/{solutionID}", h.deleteSolution)
		protected.Post("/{solutionID}/vote", h.castVote)
		protected.Post("/{solutionID}/accept", h.acceptSolution)
	})
}

func (h *SolutionHandler) listSolutions(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	var accepted *bool
	if status := r.URL.Query().Get("status"); status != "" {
		value := status == "accepted"
		accepted = &value
	}

	filter := repository.SolutionFilter{
		Accepted: accepted,
		SortBy:   r.URL.Query().Get("sortBy"),
		Order:    r.URL.Query().Get("order"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}

	solutions, total, err := h.solutionService.ListSolutions(r.Context(), filter)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"solutions":  solutions,
		"pagination": meta(page, limit, total),
	})
}

func (h *SolutionHandler) updateSolution(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateSolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	solution, err := h.solutionService.UpdateSolution(r.Context(), userID, chi.URLParam(r, "solutionID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"solution": solution})
}

func (h *SolutionHandler) deleteSolution(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.solutionService.DeleteSolution(r.Context(), userID, chi.URLParam(r, "solutionID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Solution deleted successfully"})
}

type castVoteRequest struct {
	VoteType model.VoteType `json:"vote_type"`
}

func (h *SolutionHandler) castVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	tally, err := h.voteService.CastVote(r.Context(), userID, chi.URLParam(r, "solutionID"), req.VoteType)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tally)
}

func (h *SolutionHandler) getVote(w http.ResponseWriter, r *http.Request) {
	userID := middleware.OptionalUserID(r.Context())

	voteType, err := h.voteService.GetVote(r.Context(), userID, chi.URLParam(r, "solutionID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user_vote": voteType})
}

func (h *SolutionHandler) acceptSolution(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.solutionService.AcceptSolution(r.Context(), userID, chi.URLParam(r, "solutionID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Solution accepted successfully"})
}
