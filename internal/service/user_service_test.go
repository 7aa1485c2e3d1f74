package service

import (
	"context"
	"testing"
	"time"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(db *gorm.DB) *UserService {
	return NewUserService(repository.NewUserRepository(db))
}

func signupUser(t *testing.T, svc *UserService, email string) *models.User {
	t.Helper()
	user, err := svc.Signup(context.Background(), SignupInput{
		Username: "student",
		Email:    email,
		Password: "secret-password",
		Name:     "Student",
	})
	require.NoError(t, err)
	return user
}

func TestUserService_Signup(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{
		Username: "student",
		Email:    "  Student@Example.COM ",
		Password: "secret-password",
		Name:     "Student",
		Handle:   "@student",
	})
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", user.Email)
	assert.NotEqual(t, "secret-password", user.Password)
	require.NotNil(t, user.Handle)
	assert.Equal(t, "@student", *user.Handle)

	// Duplicate email, case-insensitively.
	_, err = svc.Signup(ctx, SignupInput{
		Username: "other",
		Email:    "STUDENT@example.com",
		Password: "secret-password",
	})
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestUserService_Signup_Validation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SignupInput
	}{
		{"bad email", SignupInput{Username: "u", Email: "not-an-email", Password: "secret-password"}},
		{"short password", SignupInput{Username: "u", Email: "u@example.com", Password: "short"}},
		{"missing username", SignupInput{Email: "u@example.com", Password: "secret-password"}},
		{"bad handle", SignupInput{Username: "u", Email: "u@example.com", Password: "secret-password", Handle: "nohandle"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.in)
			assertAppErrorCode(t, err, models.CodeValidation)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()
	signupUser(t, svc, "login@example.com")

	user, err := svc.Login(ctx, LoginInput{Email: "Login@Example.com", Password: "secret-password"})
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)

	_, err = svc.Login(ctx, LoginInput{Email: "login@example.com", Password: "wrong-password"})
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	// Unknown accounts get the same message as bad passwords.
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret-password"})
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()
	user := signupUser(t, svc, "profile@example.com")

	bio := "I ask questions"
	handle := "@asker"
	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{
		UserID: user.ID,
		Bio:    &bio,
		Handle: &handle,
	})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	require.NotNil(t, updated.Handle)
	assert.Equal(t, handle, *updated.Handle)

	bad := "asker"
	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: user.ID, Handle: &bad})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestUserService_PasswordReset_RoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()
	signupUser(t, svc, "reset@example.com")

	token, err := svc.RequestPasswordReset(ctx, "reset@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{
		Token:       token,
		NewPassword: "brand-new-password",
	}))

	_, err = svc.Login(ctx, LoginInput{Email: "reset@example.com", Password: "brand-new-password"})
	require.NoError(t, err)

	// Tokens are single use.
	err = svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "another-password"})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestUserService_PasswordReset_UnknownEmailSilent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newUserService(db)

	token, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestUserService_PasswordReset_ExpiredToken(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()
	user := signupUser(t, svc, "expired@example.com")

	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := svc.RequestPasswordReset(ctx, user.Email)
	require.NoError(t, err)

	svc.now = time.Now
	err = svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "brand-new-password"})
	assertAppErrorCode(t, err, models.CodeValidation)
}
