package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type VoteRepository interface {
	// Create relies on the (user_id, solution_id) unique index; a second vote
	// from the same user on the same solution comes back as ErrConflict.
	Create(ctx context.Context, q DBTX, vote *model.Vote) error
	FindByUserAndSolution(ctx context.Context, userID, solutionID string) (*model.Vote, error)
	UpdateType(ctx context.Context, q DBTX, id string, voteType model.VoteType) error
	Delete(ctx context.Context, q DBTX, id string) error
}

type pgVoteRepository struct {
	db *sql.DB
}

func NewPgVoteRepository(db *sql.DB) VoteRepository {
	return &pgVoteRepository{db: db}
}

func (r *pgVoteRepository) Create(ctx context.Context, q DBTX, vote *model.Vote) error {
	if q == nil {
		q = r.db
	}
	query := `INSERT INTO votes (id, user_id, solution_id, vote_type) VALUES ($1, $2, $3, $4)`
	_, err := q.ExecContext(ctx, query, vote.ID, vote.UserID, vote.SolutionID, vote.VoteType)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("vote already exists for this user and solution: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgVoteRepository.Create: %w", err)
	}
	return nil
}

func (r *pgVoteRepository) FindByUserAndSolution(ctx context.Context, userID, solutionID string) (*model.Vote, error) {
	query := `SELECT id, user_id, solution_id, vote_type, created_at
	          FROM votes WHERE user_id = $1 AND solution_id = $2`
	vote := &model.Vote{}
	err := r.db.QueryRowContext(ctx, query, userID, solutionID).Scan(
		&vote.ID, &vote.UserID, &vote.SolutionID, &vote.VoteType, &vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgVoteRepository.FindByUserAndSolution: %w", err)
	}
	return vote, nil
}

func (r *pgVoteRepository) UpdateType(ctx context.Context, q DBTX, id string, voteType model.VoteType) error {
	if q == nil {
		q = r.db
	}
	query := `UPDATE votes SET vote_type = $1 WHERE id = $2`
	if _, err := q.ExecContext(ctx, query, voteType, id); err != nil {
		return fmt.Errorf("pgVoteRepository.UpdateType: %w", err)
	}
	return nil
}

func (r *pgVoteRepository) Delete(ctx context.Context, q DBTX, id string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM votes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pgVoteRepository.Delete: %w", err)
	}
	return nil
}
