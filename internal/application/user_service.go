package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/pkg/apperr"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

type Service struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *Service {
	return &Service{Repo: r, JWT: jwt, Logger: logger}
}

// UpdateProfileInput carries the self-service update payload. nil means
// "not provided, keep existing"; a present pointer always wins, so an
// explicitly empty value is rejected by validation rather than silently
// treated as omitted.
type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UpdateUserInput is the admin update payload. IsAdmin follows the same
// pointer convention: omitted leaves the flag unchanged.
type UpdateUserInput struct {
	Name    *string
	Email   *string
	IsAdmin *bool
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) issueToken(userID string) (string, error) {
	token, _, err := s.JWT.Generate(userID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("token generation failed")
		}
		return "", apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return token, nil
}

// Register creates an account and returns it with a fresh token.
// Email uniqueness is settled by the store constraint.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entity.User, string, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	u := &entity.User{
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, "", apperr.New(apperr.Validation, "user already exists")
		}
		return nil, "", apperr.Wrap(apperr.Internal, "internal server error", err)
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password produce the same rejection; store
// failures are not dressed up as bad credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	invalid := apperr.New(apperr.Unauthorized, "invalid email or password")

	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", invalid
		}
		return nil, "", apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	if !helpers.CheckPassword(u.PasswordHash, password) {
		return nil, "", invalid
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return u, nil
}

// UpdateProfile merges the provided fields into the caller's own record and
// re-issues a token for the same subject. The hash is recomputed only when a
// new password is provided.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, string, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", mapLookupErr(err)
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = normalizeEmail(*in.Email)
	}
	if in.Password != nil {
		hash, hErr := helpers.HashPassword(*in.Password)
		if hErr != nil {
			return nil, "", apperr.Wrap(apperr.Internal, "internal server error", hErr)
		}
		u.PasswordHash = hash
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, "", mapUpdateErr(err)
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return u, nil
}

// UpdateUser is the admin-side update; it may flip IsAdmin and never issues
// a token.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = normalizeEmail(*in.Email)
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, mapUpdateErr(err)
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}
	return nil
}

// mapLookupErr keeps "row does not exist" apart from "store is down": only
// the former may surface as a 404.
func mapLookupErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return apperr.Wrap(apperr.Internal, "internal server error", err)
}

func mapUpdateErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrDuplicateEmail):
		return apperr.New(apperr.Validation, "email already registered")
	case errors.Is(err, repo.ErrNotFound):
		return apperr.New(apperr.NotFound, "user not found")
	default:
		return apperr.Wrap(apperr.Internal, "internal server error", err)
	}
}
