package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type voteEnv struct {
	users     *fakeUserRepo
	solutions *fakeSolutionRepo
	votes     *fakeVoteRepo
	mock      sqlmock.Sqlmock
	svc       *VoteService
}

// The fakes do the bookkeeping; the sqlmock DB only satisfies the
// transaction boundaries around each action.
func newVoteEnv(t *testing.T) *voteEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := newFakeUserRepo()
	solutions := newFakeSolutionRepo()
	votes := newFakeVoteRepo()
	return &voteEnv{
		users:     users,
		solutions: solutions,
		votes:     votes,
		mock:      mock,
		svc:       NewVoteService(votes, solutions, users, db),
	}
}

func (e *voteEnv) expectTx() {
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
}

func TestCastVote_FirstUpvote(t *testing.T) {
	env := newVoteEnv(t)
	author := env.users.addUser("author", "alice", "alice@example.com")
	env.solutions.addSolution("s1", "p1", author.ID)
	env.expectTx()

	tally, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Upvotes)
	assert.Equal(t, 0, tally.Downvotes)
	assert.Equal(t, model.RepUpvoteReceived, env.users.users[author.ID].Reputation)
}

func TestCastVote_ToggleOffReversesExactly(t *testing.T) {
	env := newVoteEnv(t)
	author := env.users.addUser("author", "alice", "alice@example.com")
	env.solutions.addSolution("s1", "p1", author.ID)
	env.expectTx()
	env.expectTx()

	_, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteUp)
	require.NoError(t, err)

	tally, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Upvotes)
	assert.Equal(t, 0, env.users.users[author.ID].Reputation)

	// The vote row is gone, so a third cast starts fresh.
	vote, err := env.svc.GetVote(context.Background(), "voter", "s1")
	require.NoError(t, err)
	assert.Nil(t, vote)
}

func TestCastVote_ToggleOffDownvoteRestoresReputation(t *testing.T) {
	env := newVoteEnv(t)
	author := env.users.addUser("author", "alice", "alice@example.com")
	env.solutions.addSolution("s1", "p1", author.ID)
	env.expectTx()
	env.expectTx()

	_, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, model.RepDownvoteReceived, env.users.users[author.ID].Reputation)

	tally, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Downvotes)
	assert.Equal(t, 0, env.users.users[author.ID].Reputation)
}

func TestCastVote_FlipMovesOneCountAcross(t *testing.T) {
	env := newVoteEnv(t)
	author := env.users.addUser("author", "alice", "alice@example.com")
	env.solutions.addSolution("s1", "p1", author.ID)
	env.expectTx()
	env.expectTx()

	_, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteUp)
	require.NoError(t, err)

	tally, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Upvotes)
	assert.Equal(t, 1, tally.Downvotes)
	// +2 from the upvote, then -3 for the flip.
	assert.Equal(t, model.RepDownvoteReceived, env.users.users[author.ID].Reputation)

	vote, err := env.svc.GetVote(context.Background(), "voter", "s1")
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, model.VoteDown, *vote)
}

func TestCastVote_CountersFloorAtZero(t *testing.T) {
	env := newVoteEnv(t)
	author := env.users.addUser("author", "alice", "alice@example.com")
	sol := env.solutions.addSolution("s1", "p1", author.ID)
	// Simulate counter drift: a standing downvote but a zeroed counter.
	sol.Downvotes = 0
	env.votes.votes["v1"] = &model.Vote{ID: "v1", UserID: "voter", SolutionID: "s1", VoteType: model.VoteDown}
	env.expectTx()

	tally, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Upvotes)
	assert.Equal(t, 0, tally.Downvotes, "flip must not drive the counter negative")
}

func TestCastVote_InvalidType(t *testing.T) {
	env := newVoteEnv(t)
	_, err := env.svc.CastVote(context.Background(), "voter", "s1", model.VoteType("sideways"))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCastVote_SolutionNotFound(t *testing.T) {
	env := newVoteEnv(t)
	env.mock.ExpectBegin()
	env.mock.ExpectRollback()

	_, err := env.svc.CastVote(context.Background(), "voter", "missing", model.VoteUp)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetVote_NoSession(t *testing.T) {
	env := newVoteEnv(t)
	vote, err := env.svc.GetVote(context.Background(), "", "s1")
	require.NoError(t, err)
	assert.Nil(t, vote)
}

// Walks the reputation ledger through a posting, an upvote, a flip to
// downvote and an acceptance, checking the running balance at each step.
func TestReputationLifecycle(t *testing.T) {
	env := newVoteEnv(t)
	svcDB := func() *sql.DB {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		mock.ExpectBegin()
		mock.ExpectCommit()
		return db
	}

	asker := env.users.addUser("asker", "alice", "alice@example.com")
	answerer := env.users.addUser("answerer", "bob", "bob@example.com")
	env.solutions.addSolution("seed", "p1", answerer.ID) // unrelated noise
	problems := newFakeProblemRepo()
	problems.addProblem("p1", asker.ID)

	solutionSvc := NewSolutionService(env.solutions, problems, env.users, svcDB())

	// Posting earns +5.
	created, err := solutionSvc.CreateSolution(context.Background(), answerer.ID, "p1", CreateSolutionRequest{
		Content: "Replace the cracked fitting and reseat the supply line.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RepSolutionPosted, env.users.users[answerer.ID].Reputation)

	// An upvote adds +2.
	env.expectTx()
	_, err = env.svc.CastVote(context.Background(), asker.ID, created.ID, model.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, model.RepSolutionPosted+model.RepUpvoteReceived, env.users.users[answerer.ID].Reputation)

	// Flipping to a downvote swings the balance by -3.
	env.expectTx()
	_, err = env.svc.CastVote(context.Background(), asker.ID, created.ID, model.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, model.RepSolutionPosted+model.RepDownvoteReceived, env.users.users[answerer.ID].Reputation)

	// Acceptance adds +15 on top.
	err = solutionSvc.AcceptSolution(context.Background(), asker.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RepSolutionPosted+model.RepDownvoteReceived+model.RepSolutionAccepted,
		env.users.users[answerer.ID].Reputation)
}

// staleReadVoteRepo reports no standing vote even when one exists, simulating
// a racing request that inserted its row between our read and our write.
type staleReadVoteRepo struct {
	*fakeVoteRepo
}

func (r *staleReadVoteRepo) FindByUserAndSolution(context.Context, string, string) (*model.Vote, error) {
	return nil, common.ErrNotFound
}

func TestCastVote_ConflictFromConcurrentInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := newFakeUserRepo()
	solutions := newFakeSolutionRepo()
	votes := &staleReadVoteRepo{fakeVoteRepo: newFakeVoteRepo()}
	svc := NewVoteService(votes, solutions, users, db)

	author := users.addUser("author", "alice", "alice@example.com")
	solutions.addSolution("s1", "p1", author.ID)
	votes.votes["v1"] = &model.Vote{ID: "v1", UserID: "voter", SolutionID: "s1", VoteType: model.VoteUp}

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = svc.CastVote(context.Background(), "voter", "s1", model.VoteUp)
	assert.True(t, errors.Is(err, common.ErrConflict))
}
