package service

import (
	"context"

	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"
)

const recentActivityLimit = 5

type StatsService struct {
	userRepo     repository.UserRepository
	problemRepo  repository.ProblemRepository
	solutionRepo repository.SolutionRepository
}

func NewStatsService(
	userRepo repository.UserRepository,
	problemRepo repository.ProblemRepository,
	solutionRepo repository.SolutionRepository,
) *StatsService {
	return &StatsService{
		userRepo:     userRepo,
		problemRepo:  problemRepo,
		solutionRepo: solutionRepo,
	}
}

type SiteStats struct {
	TotalUsers      int              `json:"total_users"`
	TotalProblems   int              `json:"total_problems"`
	TotalSolutions  int              `json:"total_solutions"`
	SolvedProblems  int              `json:"solved_problems"`
	OpenProblems    int              `json:"open_problems"`
	RecentProblems  []model.Problem  `json:"recent_problems"`
	RecentSolutions []model.Solution `json:"recent_solutions"`
}

func (s *StatsService) GetStats(ctx context.Context) (*SiteStats, error) {
	stats := &SiteStats{}
	var err error

	if stats.TotalUsers, err = s.userRepo.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.TotalProblems, err = s.problemRepo.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.TotalSolutions, err = s.solutionRepo.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.SolvedProblems, err = s.problemRepo.CountByStatus(ctx, model.StatusSolved); err != nil {
		return nil, err
	}
	if stats.OpenProblems, err = s.problemRepo.CountByStatus(ctx, model.StatusOpen); err != nil {
		return nil, err
	}
	if stats.RecentProblems, err = s.problemRepo.ListRecent(ctx, recentActivityLimit); err != nil {
		return nil, err
	}
	if stats.RecentSolutions, err = s.solutionRepo.ListRecent(ctx, recentActivityLimit); err != nil {
		return nil, err
	}
	return stats, nil
}
