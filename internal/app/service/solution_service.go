package service

import (
	"context"
	"database/sql"
	"log/slog"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"
	"crowdsolve/internal/platform/metrics"

	"github.com/google/uuid"
)

type SolutionService struct {
	solutionRepo repository.SolutionRepository
	problemRepo  repository.ProblemRepository
	userRepo     repository.UserRepository
	db           *sql.DB // For transactions
}

func NewSolutionService(
	solutionRepo repository.SolutionRepository,
	problemRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	db *sql.DB,
) *SolutionService {
	return &SolutionService{
		solutionRepo: solutionRepo,
		problemRepo:  problemRepo,
		userRepo:     userRepo,
		db:           db,
	}
}

type CreateSolutionRequest struct {
	Content string   `json:"content" validate:"required,min=20"`
	Images  []string `json:"images"`
}

func (s *SolutionService) CreateSolution(ctx context.Context, authorID, problemID string, req CreateSolutionRequest) (*model.Solution, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// Parent must exist before anything is written.
	if _, err := s.problemRepo.FindByID(ctx, problemID); err != nil {
		return nil, err
	}

	solution := &model.Solution{
		ID:        uuid.NewString(),
		ProblemID: problemID,
		AuthorID:  authorID,
		Content:   req.Content,
		Images:    req.Images,
	}
	if err := s.solutionRepo.Create(ctx, solution); err != nil {
		return nil, err
	}

	// Posting a solution earns the author a fixed reward.
	if err := s.userRepo.AdjustReputation(ctx, nil, authorID, model.RepSolutionPosted); err != nil {
		slog.Error("failed to award reputation for new solution",
			slog.String("solution_id", solution.ID), slog.String("error", err.Error()))
	}

	return s.solutionRepo.FindByID(ctx, solution.ID)
}

func (s *SolutionService) ListByProblem(ctx context.Context, problemID string) ([]model.Solution, error) {
	return s.solutionRepo.ListByProblem(ctx, problemID)
}

func (s *SolutionService) ListSolutions(ctx context.Context, filter repository.SolutionFilter) ([]model.Solution, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.solutionRepo.List(ctx, filter)
}

type UpdateSolutionRequest struct {
	Content *string   `json:"content" validate:"omitempty,min=20"`
	Images  *[]string `json:"images"`
}

func (s *SolutionService) UpdateSolution(ctx context.Context, requesterID, solutionID string, req UpdateSolutionRequest) (*model.Solution, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	solution, err := s.solutionRepo.FindByID(ctx, solutionID)
	if err != nil {
		return nil, err
	}
	if solution.AuthorID != requesterID {
		return nil, common.Errorf("only the author can update this solution: %w", common.ErrForbidden)
	}

	if req.Content != nil {
		solution.Content = *req.Content
	}
	if req.Images != nil {
		solution.Images = *req.Images
	}
	if err := s.solutionRepo.Update(ctx, solution); err != nil {
		return nil, err
	}
	return s.solutionRepo.FindByID(ctx, solutionID)
}

func (s *SolutionService) DeleteSolution(ctx context.Context, requesterID, solutionID string) error {
	solution, err := s.solutionRepo.FindByID(ctx, solutionID)
	if err != nil {
		return err
	}
	if solution.AuthorID != requesterID {
		return common.Errorf("only the author can delete this solution: %w", common.ErrForbidden)
	}
	return s.solutionRepo.Delete(ctx, solutionID)
}

// AcceptSolution lets the problem's author mark the chosen answer. Any
// previously accepted solution has its flag cleared first, keeping at most
// one accepted solution per problem. The +15 award is not reversed when
// acceptance later moves to another solution; that matches the original
// product behavior.
func (s *SolutionService) AcceptSolution(ctx context.Context, requesterID, solutionID string) error {
	solution, err := s.solutionRepo.FindByID(ctx, solutionID)
	if err != nil {
		return err
	}
	problem, err := s.problemRepo.FindByID(ctx, solution.ProblemID)
	if err != nil {
		return err
	}
	if problem.AuthorID != requesterID {
		return common.Errorf("only the problem author can accept solutions: %w", common.ErrForbidden)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cleared unconditionally, even if it points at the target solution.
	if problem.AcceptedSolutionID != nil {
		if err := s.solutionRepo.SetAccepted(ctx, tx, *problem.AcceptedSolutionID, false); err != nil {
			return err
		}
	}
	if err := s.solutionRepo.SetAccepted(ctx, tx, solutionID, true); err != nil {
		return err
	}
	if err := s.problemRepo.SetAccepted(ctx, tx, problem.ID, solutionID); err != nil {
		return err
	}
	if err := s.userRepo.AdjustReputation(ctx, tx, solution.AuthorID, model.RepSolutionAccepted); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return common.Errorf("failed to commit acceptance transaction: %w", err)
	}

	metrics.ObserveAcceptance()
	return nil
}
