package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
)

// SolutionFilter pages and orders the global solution listing.
type SolutionFilter struct {
	Accepted *bool
	SortBy   string // votes | upvotes | createdAt
	Order    string // asc | desc
	Limit    int
	Offset   int
}

type SolutionRepository interface {
	Create(ctx context.Context, solution *model.Solution) error
	FindByID(ctx context.Context, id string) (*model.Solution, error)
	// LockByID reads the solution inside the caller's transaction with a row
	// lock, serializing concurrent vote actions on one solution.
	LockByID(ctx context.Context, tx *sql.Tx, id string) (*model.Solution, error)
	ListByProblem(ctx context.Context, problemID string) ([]model.Solution, error)
	List(ctx context.Context, filter SolutionFilter) ([]model.Solution, int, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]model.Solution, error)
	ListRecent(ctx context.Context, limit int) ([]model.Solution, error)
	Update(ctx context.Context, solution *model.Solution) error
	UpdateVoteCounts(ctx context.Context, q DBTX, id string, upvotes, downvotes int) error
	SetAccepted(ctx context.Context, q DBTX, id string, accepted bool) error
	Delete(ctx context.Context, id string) error
	DeleteByProblem(ctx context.Context, problemID string) (int64, error)
	CountAll(ctx context.Context) (int, error)
	CountByAuthor(ctx context.Context, authorID string) (total int, accepted int, err error)
}

type pgSolutionRepository struct {
	db *sql.DB
}

func NewPgSolutionRepository(db *sql.DB) SolutionRepository {
	return &pgSolutionRepository{db: db}
}

func (r *pgSolutionRepository) Create(ctx context.Context, s *model.Solution) error {
	images, err := jsonbStrings(s.Images)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.Create images: %w", err)
	}
	query := `INSERT INTO solutions (id, problem_id, author_id, content, images, upvotes, downvotes, is_accepted)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.ProblemID, s.AuthorID, s.Content, images, s.Upvotes, s.Downvotes, s.IsAccepted)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.Create: %w", err)
	}
	return nil
}

const solutionSelect = `
	SELECT s.id, s.problem_id, s.author_id, s.content, s.images,
	       s.upvotes, s.downvotes, s.is_accepted, s.created_at, s.updated_at,
	       u.username, u.avatar, u.reputation,
	       p.title, p.status
	FROM solutions s
	JOIN users u ON s.author_id = u.id
	JOIN problems p ON s.problem_id = p.id`

func scanSolution(scan func(dest ...interface{}) error) (*model.Solution, error) {
	s := &model.Solution{}
	author := model.PublicUser{}
	parent := model.ProblemRef{}
	var images []byte
	err := scan(
		&s.ID, &s.ProblemID, &s.AuthorID, &s.Content, &images,
		&s.Upvotes, &s.Downvotes, &s.IsAccepted, &s.CreatedAt, &s.UpdatedAt,
		&author.Username, &author.Avatar, &author.Reputation,
		&parent.Title, &parent.Status,
	)
	if err != nil {
		return nil, err
	}
	if err := scanJSONStrings(images, &s.Images); err != nil {
		return nil, err
	}
	author.ID = s.AuthorID
	s.Author = &author
	parent.ID = s.ProblemID
	s.Problem = &parent
	return s, nil
}

func (r *pgSolutionRepository) FindByID(ctx context.Context, id string) (*model.Solution, error) {
	row := r.db.QueryRowContext(ctx, solutionSelect+` WHERE s.id = $1`, id)
	solution, err := scanSolution(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSolutionRepository.FindByID: %w", err)
	}
	return solution, nil
}

func (r *pgSolutionRepository) LockByID(ctx context.Context, tx *sql.Tx, id string) (*model.Solution, error) {
	query := `SELECT id, problem_id, author_id, content, images, upvotes, downvotes, is_accepted, created_at, updated_at
	          FROM solutions WHERE id = $1 FOR UPDATE`
	s := &model.Solution{}
	var images []byte
	err := tx.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.ProblemID, &s.AuthorID, &s.Content, &images,
		&s.Upvotes, &s.Downvotes, &s.IsAccepted, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSolutionRepository.LockByID: %w", err)
	}
	if err := scanJSONStrings(images, &s.Images); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgSolutionRepository) listWhere(ctx context.Context, where string, args ...interface{}) ([]model.Solution, error) {
	rows, err := r.db.QueryContext(ctx, solutionSelect+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	solutions := []model.Solution{}
	for rows.Next() {
		s, err := scanSolution(rows.Scan)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, *s)
	}
	return solutions, rows.Err()
}

// ListByProblem keeps the accepted solution first, then the crowd favorites.
func (r *pgSolutionRepository) ListByProblem(ctx context.Context, problemID string) ([]model.Solution, error) {
	solutions, err := r.listWhere(ctx,
		` WHERE s.problem_id = $1 ORDER BY s.is_accepted DESC, s.upvotes DESC, s.created_at DESC`, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListByProblem: %w", err)
	}
	return solutions, nil
}

func (r *pgSolutionRepository) List(ctx context.Context, f SolutionFilter) ([]model.Solution, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if f.Accepted != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_accepted = $%d", argID))
		args = append(args, *f.Accepted)
		argID++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM solutions s` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgSolutionRepository.List count: %w", err)
	}

	sortColumn := "s.created_at"
	switch f.SortBy {
	case "votes":
		sortColumn = "(s.upvotes - s.downvotes)"
	case "upvotes":
		sortColumn = "s.upvotes"
	}
	direction := "DESC"
	if f.Order == "asc" {
		direction = "ASC"
	}

	query := solutionSelect + whereClause +
		fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", sortColumn, direction, argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSolutionRepository.List query: %w", err)
	}
	defer rows.Close()

	solutions := []model.Solution{}
	for rows.Next() {
		s, err := scanSolution(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("pgSolutionRepository.List scan: %w", err)
		}
		solutions = append(solutions, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgSolutionRepository.List rows.Err: %w", err)
	}
	return solutions, total, nil
}

func (r *pgSolutionRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]model.Solution, error) {
	solutions, err := r.listWhere(ctx, ` WHERE s.author_id = $1 ORDER BY s.created_at DESC LIMIT $2`, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListByAuthor: %w", err)
	}
	return solutions, nil
}

func (r *pgSolutionRepository) ListRecent(ctx context.Context, limit int) ([]model.Solution, error) {
	solutions, err := r.listWhere(ctx, ` ORDER BY s.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListRecent: %w", err)
	}
	return solutions, nil
}

func (r *pgSolutionRepository) Update(ctx context.Context, s *model.Solution) error {
	images, err := jsonbStrings(s.Images)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.Update images: %w", err)
	}
	query := `UPDATE solutions SET content = $1, images = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, s.Content, images, s.ID)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSolutionRepository) UpdateVoteCounts(ctx context.Context, q DBTX, id string, upvotes, downvotes int) error {
	if q == nil {
		q = r.db
	}
	query := `UPDATE solutions SET upvotes = $1, downvotes = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	if _, err := q.ExecContext(ctx, query, upvotes, downvotes, id); err != nil {
		return fmt.Errorf("pgSolutionRepository.UpdateVoteCounts: %w", err)
	}
	return nil
}

func (r *pgSolutionRepository) SetAccepted(ctx context.Context, q DBTX, id string, accepted bool) error {
	if q == nil {
		q = r.db
	}
	query := `UPDATE solutions SET is_accepted = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := q.ExecContext(ctx, query, accepted, id); err != nil {
		return fmt.Errorf("pgSolutionRepository.SetAccepted: %w", err)
	}
	return nil
}

func (r *pgSolutionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM solutions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.Delete: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSolutionRepository) DeleteByProblem(ctx context.Context, problemID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM solutions WHERE problem_id = $1`, problemID)
	if err != nil {
		return 0, fmt.Errorf("pgSolutionRepository.DeleteByProblem: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

func (r *pgSolutionRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM solutions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgSolutionRepository.CountAll: %w", err)
	}
	return total, nil
}

func (r *pgSolutionRepository) CountByAuthor(ctx context.Context, authorID string) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_accepted) FROM solutions WHERE author_id = $1`
	var total, accepted int
	if err := r.db.QueryRowContext(ctx, query, authorID).Scan(&total, &accepted); err != nil {
		return 0, 0, fmt.Errorf("pgSolutionRepository.CountByAuthor: %w", err)
	}
	return total, accepted, nil
}
