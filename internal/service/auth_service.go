package service

import (
	"context"
	"strings"

	"chapel/internal/featureflags"
	"chapel/internal/models"
	"chapel/internal/observability"
	"chapel/internal/repository"
	"chapel/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService owns credential checks. Token issuing stays in the HTTP layer.
type AuthService struct {
	identityRepo repository.IdentityRepository
	profileRepo  repository.ProfileRepository
	flags        *featureflags.Manager
	cost         int
}

func NewAuthService(identityRepo repository.IdentityRepository, profileRepo repository.ProfileRepository, flags *featureflags.Manager) *AuthService {
	return &AuthService{
		identityRepo: identityRepo,
		profileRepo:  profileRepo,
		flags:        flags,
		cost:         bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost (tests use bcrypt.MinCost).
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.cost = cost
	return s
}

type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// SignUp registers an identity and its profile with the user role.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (profile *models.Profile, err error) {
	defer func() { observability.RecordAuthAttempt("signup", err == nil) }()

	if !s.flags.Enabled(featureflags.SelfSignup) {
		return nil, models.NewForbiddenError("Sign-up is currently closed")
	}

	email := models.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	name := strings.TrimSpace(in.DisplayName)
	if name != "" {
		if err := validation.ValidateDisplayName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	existing, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	identity := &models.Identity{Email: email, PasswordHash: string(hash)}
	profile = &models.Profile{Role: models.RoleUser}
	if name != "" {
		profile.FullName = &name
	}
	if err := s.identityRepo.CreateWithProfile(ctx, identity, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Authenticate checks the credentials and returns the matching profile.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (profile *models.Profile, err error) {
	defer func() { observability.RecordAuthAttempt("login", err == nil) }()

	identity, err := s.identityRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.profileRepo.GetByID(ctx, identity.ID)
}

// ChangePassword replaces the password after re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	identity, err := s.identityRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(current)); cmpErr != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.identityRepo.UpdatePassword(ctx, userID, string(hash))
}
