package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"crowdsolve/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStore struct {
	uploads []string // folder/filename pairs seen
}

func (s *fakeObjectStore) Upload(_ context.Context, folder, filename, _ string, body io.Reader) (string, error) {
	io.Copy(io.Discard, body)
	s.uploads = append(s.uploads, folder+"/"+filename)
	return "https://storage.example.com/" + folder + "/" + filename, nil
}

func newUserEnv() (*fakeUserRepo, *fakeProblemRepo, *fakeSolutionRepo, *fakeObjectStore, *UserService) {
	users := newFakeUserRepo()
	problems := newFakeProblemRepo()
	solutions := newFakeSolutionRepo()
	objects := &fakeObjectStore{}
	return users, problems, solutions, objects, NewUserService(users, problems, solutions, objects)
}

func TestGetProfile_CountsAndRecents(t *testing.T) {
	users, problems, solutions, _, svc := newUserEnv()
	u := users.addUser("u1", "alice", "alice@example.com")
	problems.addProblem("p1", u.ID)
	problems.addProblem("p2", u.ID)
	problems.addProblem("other", "someone-else")
	solutions.addSolution("s1", "p1", u.ID)
	solutions.addSolution("s2", "p2", u.ID).IsAccepted = true

	profile, err := svc.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	assert.Empty(t, profile.User.HashedPassword)
	assert.Len(t, profile.Problems, 2)
	assert.Len(t, profile.Solutions, 2)
	assert.Equal(t, 2, profile.Stats.ProblemCount)
	assert.Equal(t, 2, profile.Stats.SolutionCount)
	assert.Equal(t, 1, profile.Stats.AcceptedSolutionCount)
}

func TestGetProfile_UnknownUsername(t *testing.T) {
	_, _, _, _, svc := newUserEnv()
	_, err := svc.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateProfile_BioLimit(t *testing.T) {
	users, _, _, _, svc := newUserEnv()
	users.addUser("u1", "alice", "alice@example.com")

	long := strings.Repeat("x", 501)
	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Bio: &long})
	assert.ErrorIs(t, err, common.ErrValidation)

	ok := strings.Repeat("x", 500)
	updated, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Bio: &ok})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Len(t, *updated.Bio, 500)
}

func TestUploadAvatar_ChecksTypeAndSize(t *testing.T) {
	users, _, _, objects, svc := newUserEnv()
	users.addUser("u1", "alice", "alice@example.com")
	body := strings.NewReader("fake image bytes")

	_, err := svc.UploadAvatar(context.Background(), "u1", "a.svg", "image/svg+xml", 10, 100, body)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.UploadAvatar(context.Background(), "u1", "a.png", "image/png", 101, 100, body)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, objects.uploads, "nothing reaches storage on a rejected upload")

	user, err := svc.UploadAvatar(context.Background(), "u1", "a.png", "image/png", 16, 100, body)
	require.NoError(t, err)
	require.NotNil(t, user.Avatar)
	assert.Contains(t, *user.Avatar, "crowdsolve/avatars/")
}

func TestRemoveAvatar(t *testing.T) {
	users, _, _, _, svc := newUserEnv()
	u := users.addUser("u1", "alice", "alice@example.com")
	avatar := "https://storage.example.com/crowdsolve/avatars/a.png"
	u.Avatar = &avatar

	user, err := svc.RemoveAvatar(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, user.Avatar)
	assert.Nil(t, users.users["u1"].Avatar)
}

func TestUploadImage(t *testing.T) {
	_, _, _, _, svc := newUserEnv()

	url, err := svc.UploadImage(context.Background(), "photo.jpg", "image/jpeg", 1024, 4096, strings.NewReader("bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, "crowdsolve/images/")

	_, err = svc.UploadImage(context.Background(), "doc.pdf", "application/pdf", 10, 4096, strings.NewReader("bytes"))
	assert.ErrorIs(t, err, common.ErrValidation)
}
