package service

import (
	"context"
	"fmt"
	"io"

	"crowdsolve/internal/common"
	"crowdsolve/internal/domain/model"
	"crowdsolve/internal/domain/repository"
	"crowdsolve/internal/platform/storage"
)

const profileRecentLimit = 10

type UserService struct {
	userRepo     repository.UserRepository
	problemRepo  repository.ProblemRepository
	solutionRepo repository.SolutionRepository
	objects      storage.ObjectStore
}

func NewUserService(
	userRepo repository.UserRepository,
	problemRepo repository.ProblemRepository,
	solutionRepo repository.SolutionRepository,
	objects storage.ObjectStore,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		problemRepo:  problemRepo,
		solutionRepo: solutionRepo,
		objects:      objects,
	}
}

// Profile is the public profile page payload: the user plus their recent
// activity and counters.
type Profile struct {
	User      *model.User      `json:"user"`
	Problems  []model.Problem  `json:"problems"`
	Solutions []model.Solution `json:"solutions"`
	Stats     ProfileStats     `json:"stats"`
}

type ProfileStats struct {
	ProblemCount          int `json:"problem_count"`
	SolutionCount         int `json:"solution_count"`
	AcceptedSolutionCount int `json:"accepted_solution_count"`
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""

	problems, err := s.problemRepo.ListByAuthor(ctx, user.ID, profileRecentLimit)
	if err != nil {
		return nil, err
	}
	solutions, err := s.solutionRepo.ListByAuthor(ctx, user.ID, profileRecentLimit)
	if err != nil {
		return nil, err
	}
	problemCount, err := s.problemRepo.CountByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	solutionCount, acceptedCount, err := s.solutionRepo.CountByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:      user,
		Problems:  problems,
		Solutions: solutions,
		Stats: ProfileStats{
			ProblemCount:          problemCount,
			SolutionCount:         solutionCount,
			AcceptedSolutionCount: acceptedCount,
		},
	}, nil
}

type UpdateProfileRequest struct {
	Bio    *string `json:"bio" validate:"omitempty,max=500"`
	Avatar *string `json:"avatar"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*model.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// UploadAvatar stores the image via the object-storage collaborator and
// points the user's avatar at the returned URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename, contentType string, size int64, maxBytes int64, body io.Reader) (*model.User, error) {
	if !allowedImageTypes[contentType] {
		return nil, common.Errorf("invalid file type %s: %w", contentType, common.ErrValidation)
	}
	if size > maxBytes {
		return nil, common.Errorf("file size exceeds %d byte limit: %w", maxBytes, common.ErrValidation)
	}

	url, err := s.objects.Upload(ctx, "crowdsolve/avatars", filename, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("avatar upload failed: %w", err)
	}

	return s.UpdateProfile(ctx, userID, UpdateProfileRequest{Avatar: &url})
}

func (s *UserService) RemoveAvatar(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Avatar = nil
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

// UploadImage backs the generic image upload endpoint used by problem and
// solution forms.
func (s *UserService) UploadImage(ctx context.Context, filename, contentType string, size int64, maxBytes int64, body io.Reader) (string, error) {
	if !allowedImageTypes[contentType] {
		return "", common.Errorf("invalid file type %s: %w", contentType, common.ErrValidation)
	}
	if size > maxBytes {
		return "", common.Errorf("file size exceeds %d byte limit: %w", maxBytes, common.ErrValidation)
	}
	url, err := s.objects.Upload(ctx, "crowdsolve/images", filename, contentType, body)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	return url, nil
}
