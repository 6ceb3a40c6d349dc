package service

import (
	"context"
	"testing"

	"crowdsolve/internal/common"
	"crowdsolve/internal/common/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.COM",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email, "email is stored lowercased")
	assert.Empty(t, resp.User.HashedPassword)

	stored := users.users[resp.User.ID]
	require.NotNil(t, stored)
	assert.True(t, security.CheckPasswordHash("hunter22", stored.HashedPassword))
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"username too short", RegisterRequest{Username: "ab", Email: "a@b.com", Password: "secret1"}},
		{"bad email", RegisterRequest{Username: "alice", Email: "not-an-email", Password: "secret1"}},
		{"password too short", RegisterRequest{Username: "alice", Email: "a@b.com", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRegister_DuplicateStaysGeneric(t *testing.T) {
	users := newFakeUserRepo()
	users.addUser("u1", "alice", "alice@example.com")
	svc := NewAuthService(users)

	// Same email, different username.
	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice2", Email: "alice@example.com", Password: "secret1",
	})
	require.ErrorIs(t, err, common.ErrConflict)
	emailErr := err.Error()

	// Same username, different email: the message must not say which field
	// collided, so the two failures read identically.
	_, err = svc.Register(context.Background(), RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "secret1",
	})
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, emailErr, err.Error())
}

func TestLogin_UniformFailure(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	// Unknown email and wrong password produce the same error.
	_, unknownErr := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.ErrorIs(t, unknownErr, common.ErrUnauthorized)

	_, wrongErr := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrong"})
	require.ErrorIs(t, wrongErr, common.ErrUnauthorized)

	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLogin_Success(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Alice@Example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.HashedPassword)
}

func TestCurrentUser_UnknownIDIsUnauthorized(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	_, err := svc.CurrentUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
