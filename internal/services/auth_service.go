package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/autoecole/enrollment-service/internal/auth"
	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type authService struct {
	Dependencies
}

func NewAuthService(deps Dependencies) AuthService {
	return &authService{Dependencies: deps.withDefaults()}
}

// Register creates a guest account. The optional profile photo is stored as
// a blob reference on the user and is independent of any enrollment ledger.
func (s *authService) Register(ctx context.Context, req *RegisterRequest, photo *FileUpload) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.Validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	s.Logger.InfoContext(ctx, "Registering user", "email", req.Email)

	exists, err := s.Repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleGuest,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Address:      req.Address,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		State:        req.State,
	}

	if photo != nil && s.Blobs != nil {
		ref, _, err := s.Blobs.Put(ctx, "profiles/"+user.ID, photo.FileName, photo.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to store profile photo: %w", err)
		}
		user.ProfilePhotoRef = &ref
	}

	if err := s.Repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.Validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	user, err := s.Repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to check password: %w", err)
	}
	if !ok {
		s.Logger.WarnContext(ctx, "Login with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return getUser(ctx, s.Repo, userID)
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.Tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}
