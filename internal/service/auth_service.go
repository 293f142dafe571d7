// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"strings"
	"time"

	"talenthub/internal/middleware"
	"talenthub/internal/models"
	"talenthub/internal/observability"
	"talenthub/internal/repository"
	"talenthub/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Number   string `json:"number"`
}

// LoginResult is returned on successful login or registration.
type LoginResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      models.UserSummary `json:"user"`
}

// AuthService registers users and manages access tokens. rdb may be nil, in
// which case logout cannot revoke tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *middleware.TokenManager
	rdb    *redis.Client
	cost   int
}

func NewAuthService(users repository.UserRepository, tokens *middleware.TokenManager, rdb *redis.Client) *AuthService {
	return &AuthService{users: users, tokens: tokens, rdb: rdb, cost: bcrypt.DefaultCost}
}

func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates and stores a new plain user, then issues a token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *LoginResult, error) {
	ctx, span := observability.StartSpan(ctx, "auth", "register")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Number = strings.TrimSpace(in.Number)

	for _, check := range []error{
		validation.ValidateName(in.Name),
		validation.ValidateEmail(in.Email),
		validation.ValidatePassword(in.Password),
		validation.ValidatePhone(in.Number),
	} {
		if check != nil {
			err = models.NewValidationError(check.Error())
			return nil, nil, err
		}
	}

	hashed, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Password:     hashed,
		Number:       in.Number,
		Role:         models.RoleUser,
		AdminRequest: models.AdminRequest{Status: models.AdminRequestNone},
	}
	if err = s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, result, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user.Summary()}, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*middleware.TokenClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if s.rdb == nil {
		return claims, nil
	}
	n, err := s.rdb.Exists(ctx, middleware.RevocationKey(claims.JTI)).Result()
	if err != nil {
		// fail open
		middleware.RedisErrors.WithLabelValues("exists").Inc()
		middleware.Logger.WarnContext(ctx, "token revocation check failed", "error", err.Error())
		return claims, nil
	}
	if n > 0 {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.TokenClaims) error {
	if s.rdb == nil || claims == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, middleware.RevocationKey(claims.JTI), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
