package service

import (
	"context"
	"database/sql"
	"errors"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"
	"crowdsolve/internal/platform/metrics"

	"github.com/google/uuid"
)

// VoteService maintains the vote rows, the derived solution counters and the
// author reputation together. One vote action is one database transaction
// with the solution row locked, so concurrent actions on the same solution
// serialize instead of losing updates.
type VoteService struct {
	voteRepo     repository.VoteRepository
	solutionRepo repository.SolutionRepository
	userRepo     repository.UserRepository
	db           *sql.DB // For transactions
}

func NewVoteService(
	voteRepo repository.VoteRepository,
	solutionRepo repository.SolutionRepository,
	userRepo repository.UserRepository,
	db *sql.DB,
) *VoteService {
	return &VoteService{
		voteRepo:     voteRepo,
		solutionRepo: solutionRepo,
		userRepo:     userRepo,
		db:           db,
	}
}

func reputationDelta(voteType model.VoteType) int {
	if voteType == model.VoteUp {
		return model.RepUpvoteReceived
	}
	return model.RepDownvoteReceived
}

// CastVote applies one vote action and returns the post-mutation counters.
//   - no standing vote: record it, bump the matching counter, credit the author
//   - same type again:  toggle off, reverse the original effect exactly
//   - other type:       flip in place, move one count across, net delta of 3
func (s *VoteService) CastVote(ctx context.Context, voterID, solutionID string, voteType model.VoteType) (*model.VoteTally, error) {
	if !voteType.Valid() {
		return nil, common.Errorf("invalid vote type %q: %w", voteType, common.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	solution, err := s.solutionRepo.LockByID(ctx, tx, solutionID)
	if err != nil {
		return nil, err // common.ErrNotFound or wrapped driver error
	}

	existing, err := s.voteRepo.FindByUserAndSolution(ctx, voterID, solutionID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	upvotes, downvotes := solution.Upvotes, solution.Downvotes
	var repDelta int
	var outcome string

	switch {
	case existing == nil:
		vote := &model.Vote{
			ID:         uuid.NewString(),
			UserID:     voterID,
			SolutionID: solutionID,
			VoteType:   voteType,
		}
		if err := s.voteRepo.Create(ctx, tx, vote); err != nil {
			return nil, err
		}
		if voteType == model.VoteUp {
			upvotes++
		} else {
			downvotes++
		}
		repDelta = reputationDelta(voteType)
		outcome = "created"

	case existing.VoteType == voteType:
		// Toggle off: the removal must undo the original effect exactly so
		// reputation stays the sum of standing votes.
		if err := s.voteRepo.Delete(ctx, tx, existing.ID); err != nil {
			return nil, err
		}
		if voteType == model.VoteUp {
			upvotes = max(0, upvotes-1)
		} else {
			downvotes = max(0, downvotes-1)
		}
		repDelta = -reputationDelta(voteType)
		outcome = "removed"

	default:
		if err := s.voteRepo.UpdateType(ctx, tx, existing.ID, voteType); err != nil {
			return nil, err
		}
		if voteType == model.VoteUp {
			upvotes++
			downvotes = max(0, downvotes-1)
		} else {
			downvotes++
			upvotes = max(0, upvotes-1)
		}
		repDelta = reputationDelta(voteType) - reputationDelta(existing.VoteType)
		outcome = "changed"
	}

	if err := s.solutionRepo.UpdateVoteCounts(ctx, tx, solutionID, upvotes, downvotes); err != nil {
		return nil, err
	}
	if err := s.userRepo.AdjustReputation(ctx, tx, solution.AuthorID, repDelta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit vote transaction: %w", err)
	}

	metrics.ObserveVote(outcome)
	return &model.VoteTally{Upvotes: upvotes, Downvotes: downvotes}, nil
}

// GetVote reports the caller's standing vote, or nil if there is none.
// An empty voterID (no session) is not an error.
func (s *VoteService) GetVote(ctx context.Context, voterID, solutionID string) (*model.VoteType, error) {
	if voterID == "" {
		return nil, nil
	}
	vote, err := s.voteRepo.FindByUserAndSolution(ctx, voterID, solutionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	voteType := vote.VoteType
	return &voteType, nil
}
