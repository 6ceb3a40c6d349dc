package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"crowdsolve/internal/api/middleware"
	"crowdsolve/internal/app/service"
	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService  *service.ProblemService
	solutionService *service.SolutionService
}

func NewProblemHandler(ps *service.ProblemService, ss *service.SolutionService) *ProblemHandler {
	return &ProblemHandler{problemService: ps, solutionService: ss}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)
	r.Get("/{problemID}", h.getProblem)
	r.Get("/{problemID}/solutions", h.listSolutions)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator)
		protected.Post("/", h.createProblem)
		protected.Patch("/{problemID}", h.updateProblem)
		protected.Delete("/{problemID}", h.deleteProblem)
		protected.Post("/{problemID}/solutions", h.createSolution)
	})
}

// pagination reads page/limit with the 1/10 defaults.
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return page, limit
}

type paginationMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func meta(page, limit, total int) paginationMeta {
	pages := (total + limit - 1) / limit
	return paginationMeta{Page: page, Limit: limit, Total: total, Pages: pages}
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	filter := repository.ProblemFilter{
		Status: model.ProblemStatus(r.URL.Query().Get("status")),
		Tag:    r.URL.Query().Get("tag"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	list, err := h.problemService.ListProblems(r.Context(), filter)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"problems":   list.Problems,
		"pagination": meta(page, limit, list.Total),
	})
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"problem": problem})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"problem": problem})
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	// The update is all-or-nothing: any field outside the allow-list fails
	// the whole request instead of being silently dropped.
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	var req service.UpdateProblemRequest
	if err := decoder.Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid updates")
		return
	}

	problem, err := h.problemService.UpdateProblem(r.Context(), userID, chi.URLParam(r, "problemID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"problem": problem})
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.problemService.DeleteProblem(r.Context(), userID, chi.URLParam(r, "problemID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Problem deleted successfully"})
}

func (h *ProblemHandler) listSolutions(w http.ResponseWriter, r *http.Request) {
	solutions, err := h.solutionService.ListByProblem(r.Context(), chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"solutions": solutions})
}

func (h *ProblemHandler) createSolution(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateSolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	solution, err := h.solutionService.CreateSolution(r.Context(), userID, chi.URLParam(r, "problemID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"solution": solution})
}
