package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"
	"crowdsolve/internal/platform/cache"
	"crowdsolve/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const problemListCachePrefix = "problems:list:"

type ProblemService struct {
	problemRepo  repository.ProblemRepository
	solutionRepo repository.SolutionRepository
	listCache    cache.Store
	cacheTTL     time.Duration
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	solutionRepo repository.SolutionRepository,
	listCache cache.Store,
	ttl time.Duration,
) *ProblemService {
	return &ProblemService{
		problemRepo:  problemRepo,
		solutionRepo: solutionRepo,
		listCache:    listCache,
		cacheTTL:     ttl,
	}
}

type CreateProblemRequest struct {
	Title       string          `json:"title" validate:"required,min=10,max=200"`
	Description string          `json:"description" validate:"required,min=20"`
	Images      []string        `json:"images"`
	Tags        []string        `json:"tags"`
	Location    *model.Location `json:"location"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, authorID string, req CreateProblemRequest) (*model.Problem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Images:      req.Images,
		Tags:        normalizeTags(req.Tags),
		Location:    req.Location,
		AuthorID:    authorID,
		Status:      model.StatusOpen,
	}
	if err := s.problemRepo.Create(ctx, problem); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return s.problemRepo.FindByID(ctx, problem.ID)
}

// ProblemList is the paginated listing payload, cached as-is.
type ProblemList struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
}

// ListProblems serves listings through the resource cache: a short staleness
// window absorbs repeat queries, and every problem write invalidates the
// whole prefix.
func (s *ProblemService) ListProblems(ctx context.Context, filter repository.ProblemFilter) (*ProblemList, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	key := problemListCacheKey(filter)
	if raw, ok := s.listCache.Get(ctx, key); ok {
		list := &ProblemList{}
		if err := json.Unmarshal(raw, list); err == nil {
			metrics.ObserveCacheLookup("problems", "hit")
			return list, nil
		}
	}
	metrics.ObserveCacheLookup("problems", "miss")

	problems, total, err := s.problemRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	list := &ProblemList{Problems: problems, Total: total}

	if raw, err := json.Marshal(list); err == nil {
		s.listCache.Set(ctx, key, raw, s.cacheTTL)
	}
	return list, nil
}

func (s *ProblemService) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	problem, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Every read counts; the returned snapshot shows the pre-increment value.
	if err := s.problemRepo.IncrementViews(ctx, id); err != nil {
		slog.Warn("failed to increment views", slog.String("problem_id", id), slog.String("error", err.Error()))
	}
	return problem, nil
}

// UpdateProblemRequest is the full allow-list for problem updates. The
// handler decodes with DisallowUnknownFields, so a request containing any
// other field is rejected outright rather than partially applied.
type UpdateProblemRequest struct {
	Title       *string              `json:"title" validate:"omitempty,min=10,max=200"`
	Description *string              `json:"description" validate:"omitempty,min=20"`
	Tags        *[]string            `json:"tags"`
	Status      *model.ProblemStatus `json:"status"`
}

func (s *ProblemService) UpdateProblem(ctx context.Context, requesterID, problemID string, req UpdateProblemRequest) (*model.Problem, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, common.Errorf("invalid status %q: %w", *req.Status, common.ErrValidation)
	}

	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem.AuthorID != requesterID {
		return nil, common.Errorf("only the author can update this problem: %w", common.ErrForbidden)
	}

	if req.Title != nil {
		problem.Title = *req.Title
		problem.Slug = slug.Make(*req.Title)
	}
	if req.Description != nil {
		problem.Description = *req.Description
	}
	if req.Tags != nil {
		problem.Tags = normalizeTags(*req.Tags)
	}
	if req.Status != nil {
		problem.Status = *req.Status
	}

	if err := s.problemRepo.Update(ctx, problem); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return s.problemRepo.FindByID(ctx, problemID)
}

// DeleteProblem removes the problem's solutions first, then the problem
// itself. The cascade is two steps on purpose; an interrupted delete leaves
// an intact problem with fewer solutions, never orphaned solutions.
func (s *ProblemService) DeleteProblem(ctx context.Context, requesterID, problemID string) error {
	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		return err
	}
	if problem.AuthorID != requesterID {
		return common.Errorf("only the author can delete this problem: %w", common.ErrForbidden)
	}

	deleted, err := s.solutionRepo.DeleteByProblem(ctx, problemID)
	if err != nil {
		return err
	}
	if deleted > 0 {
		slog.Info("cascade deleted solutions", slog.String("problem_id", problemID), slog.Int64("count", deleted))
	}
	if err := s.problemRepo.Delete(ctx, problemID); err != nil {
		return err
	}

	s.invalidateListCache(ctx)
	return nil
}

func (s *ProblemService) invalidateListCache(ctx context.Context) {
	s.listCache.Invalidate(ctx, problemListCachePrefix)
}

func problemListCacheKey(f repository.ProblemFilter) string {
	return fmt.Sprintf("%sstatus=%s&tag=%s&search=%s&limit=%d&offset=%d",
		problemListCachePrefix, f.Status, f.Tag, f.Search, f.Limit, f.Offset)
}

func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			normalized = append(normalized, tag)
		}
	}
	return normalized
}
