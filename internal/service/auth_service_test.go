package service

import (
	"context"
	"testing"
	"time"

	"talenthub/internal/middleware"
	"talenthub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T, repo *userRepoStub) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewAuthService(repo, middleware.NewTokenManager("test-secret", time.Hour), rdb)
	svc.cost = bcrypt.MinCost
	return svc, mr
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:     "Grace Hopper",
		Email:    " Grace@Example.COM ",
		Password: "hunter22",
		Number:   "+1 555 0100",
	}
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates a plain user and issues a token", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var created *models.User
		repo.createFn = func(_ context.Context, u *models.User) error {
			u.ID = 11
			created = u
			return nil
		}
		svc, _ := newTestAuthService(t, repo)

		user, result, err := svc.Register(context.Background(), validRegisterInput())
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "grace@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.Equal(t, models.AdminRequestNone, user.AdminRequest.Status)
		assert.NotEqual(t, "hunter22", user.Password)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, uint(11), result.User.ID)

		claims, err := svc.Authenticate(context.Background(), result.Token)
		require.NoError(t, err)
		assert.Equal(t, uint(11), claims.UserID)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		cases := map[string]func(*RegisterInput){
			"short password": func(in *RegisterInput) { in.Password = "abc" },
			"bad email":      func(in *RegisterInput) { in.Email = "nope" },
			"blank name":     func(in *RegisterInput) { in.Name = "  " },
			"bad number":     func(in *RegisterInput) { in.Number = "phone" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				repo := noopUserRepo()
				repo.createFn = func(context.Context, *models.User) error {
					t.Fatal("create must not be called")
					return nil
				}
				svc, _ := newTestAuthService(t, repo)
				in := validRegisterInput()
				mutate(&in)
				_, _, err := svc.Register(context.Background(), in)
				assertValidationError(t, err)
			})
		}
	})

	t.Run("duplicate email surfaces repository error", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.createFn = func(context.Context, *models.User) error {
			return models.NewValidationError("Email is already registered")
		}
		svc, _ := newTestAuthService(t, repo)
		_, _, err := svc.Register(context.Background(), validRegisterInput())
		appErr := assertValidationError(t, err)
		assert.Equal(t, "Email is already registered", appErr.Message)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 3, Email: "grace@example.com", Password: string(hashed), Role: models.RoleAdmin}

	repo := noopUserRepo()
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == stored.Email {
			return stored, nil
		}
		return nil, nil
	}
	svc, _ := newTestAuthService(t, repo)

	result, err := svc.Login(context.Background(), "GRACE@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.User.Role)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	_, err = svc.Login(context.Background(), "grace@example.com", "wrong")
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@example.com", "hunter22")
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = svc.Login(context.Background(), "", "")
	assertValidationError(t, err)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	t.Parallel()
	svc, mr := newTestAuthService(t, noopUserRepo())

	token, _, err := svc.tokens.Issue(8)
	require.NoError(t, err)

	claims, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), claims))

	assert.True(t, mr.Exists(middleware.RevocationKey(claims.JTI)))
	assert.Greater(t, mr.TTL(middleware.RevocationKey(claims.JTI)), time.Duration(0))

	_, err = svc.Authenticate(context.Background(), token)
	appErr := assertAppError(t, err, models.CodeUnauthorized)
	assert.Equal(t, "Token has been revoked", appErr.Message)
}

func TestAuthService_AuthenticateFailsOpenWithoutRedis(t *testing.T) {
	t.Parallel()
	svc, mr := newTestAuthService(t, noopUserRepo())

	token, _, err := svc.tokens.Issue(8)
	require.NoError(t, err)
	mr.Close()

	claims, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(8), claims.UserID)
}

func TestAuthService_AuthenticateRejectsGarbage(t *testing.T) {
	t.Parallel()
	svc, _ := newTestAuthService(t, noopUserRepo())
	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	assertAppError(t, err, models.CodeUnauthorized)
}
