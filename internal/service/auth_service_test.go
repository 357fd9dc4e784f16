package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/domain"
)

type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	failing bool
}

func newMemRevocations() *memRevocations {
	return &memRevocations{revoked: make(map[string]time.Time)}
}

var _ auth.RevocationRegistry = (*memRevocations)(nil)

func (r *memRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("registry down")
	}
	if ttl <= 0 {
		return nil
	}
	r.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (r *memRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return false, errors.New("registry down")
	}
	expiry, ok := r.revoked[tokenID]
	return ok && time.Now().Before(expiry), nil
}

type authFixture struct {
	svc         *AuthService
	users       *memUserRepo
	tokens      *auth.TokenManager
	revocations *memRevocations
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newMemUserRepo()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	revocations := newMemRevocations()
	return &authFixture{
		svc:         NewAuthService(users, tokens, revocations, nil, bcrypt.MinCost),
		users:       users,
		tokens:      tokens,
		revocations: revocations,
	}
}

func signupInput() SignupInput {
	return SignupInput{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Password:  "s3cret-pass",
	}
}

func TestSignupIssuesToken(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()

	user, token, exp, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEqual(t, input.Password, user.PasswordHash)
	assert.True(t, exp.After(time.Now()))

	claims, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, input.Email, claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()

	_, _, _, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)

	_, _, _, err = f.svc.Signup(context.Background(), input)
	require.Error(t, err)
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()
	input.Role = domain.Role("superuser")

	_, _, _, err := f.svc.Signup(context.Background(), input)
	require.Error(t, err)
}

func TestLoginFailureIsIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()
	_, _, _, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)

	_, _, _, wrongPassword := f.svc.Login(context.Background(), input.Email, "not-the-password")
	require.Error(t, wrongPassword)
	_, _, _, unknownEmail := f.svc.Login(context.Background(), gofakeit.Email(), input.Password)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginIssuesFreshTokenID(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()
	_, first, _, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)

	_, second, _, err := f.svc.Login(context.Background(), input.Email, input.Password)
	require.NoError(t, err)

	firstClaims, err := f.tokens.Verify(first)
	require.NoError(t, err)
	secondClaims, err := f.tokens.Verify(second)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()
	_, first, _, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)
	_, second, _, err := f.svc.Login(context.Background(), input.Email, input.Password)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), first))

	authenticator := auth.NewAuthenticator(f.tokens, f.revocations)
	_, err = authenticator.Authenticate(context.Background(), first)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)

	identity, err := authenticator.Authenticate(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, input.Email, identity.Email)
}

func TestLogoutWithGarbageToken(t *testing.T) {
	f := newAuthFixture(t)
	require.Error(t, f.svc.Logout(context.Background(), "not-a-token"))
}

func TestLogoutFailsClosedWhenRegistryDown(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()
	_, token, _, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)

	f.revocations.failing = true
	require.Error(t, f.svc.Logout(context.Background(), token))
}

func TestUpdateProfileRequiresAField(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()
	user, _, _, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)

	_, err = f.svc.UpdateProfile(context.Background(), user.ID, ProfileUpdateInput{})
	require.Error(t, err)

	name := "Renamed"
	updated, err := f.svc.UpdateProfile(context.Background(), user.ID, ProfileUpdateInput{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FirstName)
}

func TestChangeRolePromotesUser(t *testing.T) {
	f := newAuthFixture(t)
	input := signupInput()
	user, _, _, err := f.svc.Signup(context.Background(), input)
	require.NoError(t, err)

	promoted, err := f.svc.ChangeRole(context.Background(), user.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	_, err = f.svc.ChangeRole(context.Background(), user.ID, domain.Role("owner"))
	require.Error(t, err)
}

func TestDeleteAccountUnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	require.Error(t, f.svc.DeleteAccount(context.Background(), 99))
}
