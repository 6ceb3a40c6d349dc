package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
)

// ProblemFilter narrows and pages a problem listing. Zero values mean
// "no filter"; Limit/Offset are always set by the service.
type ProblemFilter struct {
	Status model.ProblemStatus
	Tag    string
	Search string
	Limit  int
	Offset int
}

type ProblemRepository interface {
	Create(ctx context.Context, problem *model.Problem) error
	FindByID(ctx context.Context, id string) (*model.Problem, error)
	List(ctx context.Context, filter ProblemFilter) ([]model.Problem, int, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]model.Problem, error)
	ListRecent(ctx context.Context, limit int) ([]model.Problem, error)
	Update(ctx context.Context, problem *model.Problem) error
	// SetAccepted points the problem at its accepted solution and flips the
	// status to solved, inside the caller's transaction.
	SetAccepted(ctx context.Context, q DBTX, problemID, solutionID string) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status model.ProblemStatus) (int, error)
	CountByAuthor(ctx context.Context, authorID string) (int, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	images, err := jsonbStrings(p.Images)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create images: %w", err)
	}
	tags, err := jsonbStrings(p.Tags)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create tags: %w", err)
	}
	var location []byte
	if p.Location != nil {
		if location, err = json.Marshal(p.Location); err != nil {
			return fmt.Errorf("pgProblemRepository.Create location: %w", err)
		}
	}

	query := `INSERT INTO problems (id, title, slug, description, images, tags, location, author_id, status, views)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Slug, p.Description, images, tags, location, p.AuthorID, p.Status, p.Views)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Create: %w", err)
	}
	return nil
}

const problemSelect = `
	SELECT p.id, p.title, p.slug, p.description, p.images, p.tags, p.location,
	       p.author_id, p.status, p.accepted_solution_id, p.views, p.created_at, p.updated_at,
	       u.username, u.avatar, u.reputation
	FROM problems p
	JOIN users u ON p.author_id = u.id`

func scanProblem(scan func(dest ...interface{}) error) (*model.Problem, error) {
	p := &model.Problem{}
	author := model.PublicUser{}
	var images, tags, location []byte
	err := scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &images, &tags, &location,
		&p.AuthorID, &p.Status, &p.AcceptedSolutionID, &p.Views, &p.CreatedAt, &p.UpdatedAt,
		&author.Username, &author.Avatar, &author.Reputation,
	)
	if err != nil {
		return nil, err
	}
	if err := scanJSONStrings(images, &p.Images); err != nil {
		return nil, err
	}
	if err := scanJSONStrings(tags, &p.Tags); err != nil {
		return nil, err
	}
	if len(location) > 0 {
		p.Location = &model.Location{}
		if err := json.Unmarshal(location, p.Location); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
	}
	author.ID = p.AuthorID
	p.Author = &author
	return p, nil
}

func (r *pgProblemRepository) FindByID(ctx context.Context, id string) (*model.Problem, error) {
	row := r.db.QueryRowContext(ctx, problemSelect+` WHERE p.id = $1`, id)
	problem, err := scanProblem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindByID: %w", err)
	}
	return problem, nil
}

func (r *pgProblemRepository) List(ctx context.Context, f ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argID))
		args = append(args, f.Status)
		argID++
	}
	if f.Tag != "" {
		// Tag membership on the jsonb array.
		conditions = append(conditions, fmt.Sprintf("p.tags @> to_jsonb(ARRAY[$%d::text])", argID))
		args = append(args, f.Tag)
		argID++
	}
	if f.Search != "" {
		conditions = append(conditions,
			fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d OR p.tags::text ILIKE $%d)", argID, argID, argID))
		args = append(args, "%"+f.Search+"%")
		argID++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM problems p` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List count: %w", err)
	}

	query := problemSelect + whereClause +
		fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.List scan: %w", err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.List rows.Err: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) listWhere(ctx context.Context, where string, args ...interface{}) ([]model.Problem, error) {
	rows, err := r.db.QueryContext(ctx, problemSelect+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows.Scan)
		if err != nil {
			return nil, err
		}
		problems = append(problems, *p)
	}
	return problems, rows.Err()
}

func (r *pgProblemRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]model.Problem, error) {
	problems, err := r.listWhere(ctx, ` WHERE p.author_id = $1 ORDER BY p.created_at DESC LIMIT $2`, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListByAuthor: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) ListRecent(ctx context.Context, limit int) ([]model.Problem, error) {
	problems, err := r.listWhere(ctx, ` ORDER BY p.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListRecent: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) Update(ctx context.Context, p *model.Problem) error {
	tags, err := jsonbStrings(p.Tags)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update tags: %w", err)
	}
	query := `UPDATE problems SET
	            title = $1, slug = $2, description = $3, tags = $4, status = $5,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, p.Title, p.Slug, p.Description, tags, p.Status, p.ID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Update: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) SetAccepted(ctx context.Context, q DBTX, problemID, solutionID string) error {
	if q == nil {
		q = r.db
	}
	query := `UPDATE problems SET accepted_solution_id = $1, status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	if _, err := q.ExecContext(ctx, query, solutionID, model.StatusSolved, problemID); err != nil {
		return fmt.Errorf("pgProblemRepository.SetAccepted: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) IncrementViews(ctx context.Context, id string) error {
	query := `UPDATE problems SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("pgProblemRepository.IncrementViews: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.Delete: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgProblemRepository.CountAll: %w", err)
	}
	return total, nil
}

func (r *pgProblemRepository) CountByStatus(ctx context.Context, status model.ProblemStatus) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems WHERE status = $1`, status).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgProblemRepository.CountByStatus: %w", err)
	}
	return total, nil
}

func (r *pgProblemRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems WHERE author_id = $1`, authorID).Scan(&total); err != nil {
		return 0, fmt.Errorf("pgProblemRepository.CountByAuthor: %w", err)
	}
	return total, nil
}
