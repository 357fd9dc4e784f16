package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/events"
	"github.com/spec-kit/financing-service/internal/repository"
	apperrors "github.com/spec-kit/financing-service/pkg/util"
)

// SignupInput describes a new account.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

// ProfileUpdateInput carries optional profile changes.
type ProfileUpdateInput struct {
	FirstName *string
	LastName  *string
	Password  *string
}

// AuthService coordinates signup, login and logout flows. Logout revokes
// the presented token's id for exactly its remaining lifetime, so the
// revocation entry never outlives the token it revokes.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenManager
	revocations auth.RevocationRegistry
	dispatcher  events.Dispatcher
	bcryptCost  int
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, revocations auth.RevocationRegistry, dispatcher events.Dispatcher, bcryptCost int) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		dispatcher:  dispatcher,
		bcryptCost:  bcryptCost,
	}
}

// Signup creates an account and issues its first token.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, string, time.Time, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, "", time.Time{}, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates credentials and issues a fresh token. The failure
// message never distinguishes an unknown email from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Logout revokes the presented token until its natural expiry. Future
// HTTP calls and realtime handshakes with this token fail with the
// revoked outcome; connections already authenticated with it stay open
// until they disconnect.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	ttl, err := s.tokens.RemainingTTL(rawToken)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.NewDependencyUnavailable("revocation registry", err)
	}

	s.publish(ctx, events.EventUserLoggedOut, claims.UserID, events.UserLoggedOutPayload{TokenID: claims.ID})
	return nil
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns all accounts for the admin directory.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// UpdateProfile applies the caller's profile changes.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, input ProfileUpdateInput) (*domain.User, error) {
	update := repository.UserProfileUpdate{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}
	if update.Empty() {
		return nil, apperrors.NewValidationError("no valid fields to update", nil)
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}
	return user, nil
}

// ChangeRole assigns a user a role from the flat enum.
func (s *AuthService) ChangeRole(ctx context.Context, userID int64, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the caller's account.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return err
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
