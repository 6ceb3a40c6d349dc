package service

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"testing"
	"time"

	"crowdsolve/internal/common"
	"crowdsolve/internal/common/security"
	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"
	"crowdsolve/internal/platform/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: time.Hour,
	}
	security.InitJWT()
	os.Exit(m.Run())
}

// In-memory repository fakes. They hold canonical state in maps and hand out
// copies, so services only change state through the repository methods.

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) addUser(id, username, email string) *model.User {
	u := &model.User{ID: id, Username: username, Email: email}
	r.users[id] = u
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *model.User) error {
	u, ok := r.users[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	u.Bio = user.Bio
	u.Avatar = user.Avatar
	return nil
}

func (r *fakeUserRepo) AdjustReputation(_ context.Context, _ repository.DBTX, userID string, delta int) error {
	u, ok := r.users[userID]
	if !ok {
		return common.ErrNotFound
	}
	u.Reputation += delta
	return nil
}

func (r *fakeUserRepo) CountAll(_ context.Context) (int, error) {
	return len(r.users), nil
}

type fakeProblemRepo struct {
	problems  map[string]*model.Problem
	listCalls int
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{problems: map[string]*model.Problem{}}
}

func (r *fakeProblemRepo) addProblem(id, authorID string) *model.Problem {
	p := &model.Problem{ID: id, AuthorID: authorID, Status: model.StatusOpen, CreatedAt: time.Now()}
	r.problems[id] = p
	return p
}

func (r *fakeProblemRepo) Create(_ context.Context, problem *model.Problem) error {
	cp := *problem
	r.problems[problem.ID] = &cp
	return nil
}

func (r *fakeProblemRepo) FindByID(_ context.Context, id string) (*model.Problem, error) {
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProblemRepo) List(_ context.Context, f repository.ProblemFilter) ([]model.Problem, int, error) {
	r.listCalls++
	out := []model.Problem{}
	for _, p := range r.problems {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = []model.Problem{}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *fakeProblemRepo) ListByAuthor(_ context.Context, authorID string, limit int) ([]model.Problem, error) {
	out := []model.Problem{}
	for _, p := range r.problems {
		if p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeProblemRepo) ListRecent(_ context.Context, limit int) ([]model.Problem, error) {
	out := []model.Problem{}
	for _, p := range r.problems {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeProblemRepo) Update(_ context.Context, problem *model.Problem) error {
	if _, ok := r.problems[problem.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *problem
	r.problems[problem.ID] = &cp
	return nil
}

func (r *fakeProblemRepo) SetAccepted(_ context.Context, _ repository.DBTX, problemID, solutionID string) error {
	p, ok := r.problems[problemID]
	if !ok {
		return common.ErrNotFound
	}
	p.AcceptedSolutionID = &solutionID
	p.Status = model.StatusSolved
	return nil
}

func (r *fakeProblemRepo) IncrementViews(_ context.Context, id string) error {
	p, ok := r.problems[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Views++
	return nil
}

func (r *fakeProblemRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.problems[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.problems, id)
	return nil
}

func (r *fakeProblemRepo) CountAll(_ context.Context) (int, error) {
	return len(r.problems), nil
}

func (r *fakeProblemRepo) CountByStatus(_ context.Context, status model.ProblemStatus) (int, error) {
	n := 0
	for _, p := range r.problems {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeProblemRepo) CountByAuthor(_ context.Context, authorID string) (int, error) {
	n := 0
	for _, p := range r.problems {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

type fakeSolutionRepo struct {
	solutions map[string]*model.Solution
}

func newFakeSolutionRepo() *fakeSolutionRepo {
	return &fakeSolutionRepo{solutions: map[string]*model.Solution{}}
}

func (r *fakeSolutionRepo) addSolution(id, problemID, authorID string) *model.Solution {
	s := &model.Solution{ID: id, ProblemID: problemID, AuthorID: authorID, CreatedAt: time.Now()}
	r.solutions[id] = s
	return s
}

func (r *fakeSolutionRepo) Create(_ context.Context, solution *model.Solution) error {
	cp := *solution
	r.solutions[solution.ID] = &cp
	return nil
}

func (r *fakeSolutionRepo) FindByID(_ context.Context, id string) (*model.Solution, error) {
	s, ok := r.solutions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSolutionRepo) LockByID(ctx context.Context, _ *sql.Tx, id string) (*model.Solution, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSolutionRepo) ListByProblem(_ context.Context, problemID string) ([]model.Solution, error) {
	out := []model.Solution{}
	for _, s := range r.solutions {
		if s.ProblemID == problemID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSolutionRepo) List(_ context.Context, f repository.SolutionFilter) ([]model.Solution, int, error) {
	out := []model.Solution{}
	for _, s := range r.solutions {
		if f.Accepted != nil && s.IsAccepted != *f.Accepted {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *fakeSolutionRepo) ListByAuthor(_ context.Context, authorID string, limit int) ([]model.Solution, error) {
	out := []model.Solution{}
	for _, s := range r.solutions {
		if s.AuthorID == authorID {
			out = append(out, *s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSolutionRepo) ListRecent(_ context.Context, limit int) ([]model.Solution, error) {
	out := []model.Solution{}
	for _, s := range r.solutions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSolutionRepo) Update(_ context.Context, solution *model.Solution) error {
	if _, ok := r.solutions[solution.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *solution
	r.solutions[solution.ID] = &cp
	return nil
}

func (r *fakeSolutionRepo) UpdateVoteCounts(_ context.Context, _ repository.DBTX, id string, upvotes, downvotes int) error {
	s, ok := r.solutions[id]
	if !ok {
		return common.ErrNotFound
	}
	s.Upvotes = upvotes
	s.Downvotes = downvotes
	return nil
}

func (r *fakeSolutionRepo) SetAccepted(_ context.Context, _ repository.DBTX, id string, accepted bool) error {
	s, ok := r.solutions[id]
	if !ok {
		return common.ErrNotFound
	}
	s.IsAccepted = accepted
	return nil
}

func (r *fakeSolutionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.solutions[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.solutions, id)
	return nil
}

func (r *fakeSolutionRepo) DeleteByProblem(_ context.Context, problemID string) (int64, error) {
	var n int64
	for id, s := range r.solutions {
		if s.ProblemID == problemID {
			delete(r.solutions, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSolutionRepo) CountAll(_ context.Context) (int, error) {
	return len(r.solutions), nil
}

func (r *fakeSolutionRepo) CountByAuthor(_ context.Context, authorID string) (int, int, error) {
	total, accepted := 0, 0
	for _, s := range r.solutions {
		if s.AuthorID == authorID {
			total++
			if s.IsAccepted {
				accepted++
			}
		}
	}
	return total, accepted, nil
}

type fakeVoteRepo struct {
	votes map[string]*model.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: map[string]*model.Vote{}}
}

func (r *fakeVoteRepo) Create(_ context.Context, _ repository.DBTX, vote *model.Vote) error {
	for _, v := range r.votes {
		if v.UserID == vote.UserID && v.SolutionID == vote.SolutionID {
			return common.ErrConflict
		}
	}
	cp := *vote
	r.votes[vote.ID] = &cp
	return nil
}

func (r *fakeVoteRepo) FindByUserAndSolution(_ context.Context, userID, solutionID string) (*model.Vote, error) {
	for _, v := range r.votes {
		if v.UserID == userID && v.SolutionID == solutionID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeVoteRepo) UpdateType(_ context.Context, _ repository.DBTX, id string, voteType model.VoteType) error {
	v, ok := r.votes[id]
	if !ok {
		return common.ErrNotFound
	}
	v.VoteType = voteType
	return nil
}

func (r *fakeVoteRepo) Delete(_ context.Context, _ repository.DBTX, id string) error {
	if _, ok := r.votes[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.votes, id)
	return nil
}
