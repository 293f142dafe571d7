package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"talenthub/internal/models"
	"talenthub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn                  func(context.Context, uint) (*models.User, error)
	getByEmailFn               func(context.Context, string) (*models.User, error)
	getWithChallengesFn        func(context.Context, uint) (*models.User, error)
	createFn                   func(context.Context, *models.User) error
	deleteFn                   func(context.Context, uint) error
	listFn                     func(context.Context, int, int) ([]models.User, error)
	searchFn                   func(context.Context, string, int, int) ([]models.User, error)
	listByRolesFn              func(context.Context, ...models.Role) ([]models.User, error)
	listPendingAdminRequestsFn func(context.Context) ([]models.User, error)
	applyUpdateFn              func(context.Context, uint, map[string]any, *models.Role) error
	setRoleFn                  func(context.Context, uint, models.Role) error
	requestAdminFn             func(context.Context, uint, time.Time) error
	processAdminRequestFn      func(context.Context, uint, repository.AdminDecision) error
	replaceChallengeListsFn    func(context.Context, uint, map[string][]uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetWithChallenges(ctx context.Context, id uint) (*models.User, error) {
	return s.getWithChallengesFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit, offset)
}
func (s *userRepoStub) ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	return s.listByRolesFn(ctx, roles...)
}
func (s *userRepoStub) ListPendingAdminRequests(ctx context.Context) ([]models.User, error) {
	return s.listPendingAdminRequestsFn(ctx)
}
func (s *userRepoStub) ApplyUpdate(ctx context.Context, id uint, cols map[string]any, role *models.Role) error {
	return s.applyUpdateFn(ctx, id, cols, role)
}
func (s *userRepoStub) SetRole(ctx context.Context, id uint, role models.Role) error {
	return s.setRoleFn(ctx, id, role)
}
func (s *userRepoStub) RequestAdmin(ctx context.Context, id uint, at time.Time) error {
	return s.requestAdminFn(ctx, id, at)
}
func (s *userRepoStub) ProcessAdminRequest(ctx context.Context, id uint, d repository.AdminDecision) error {
	return s.processAdminRequestFn(ctx, id, d)
}
func (s *userRepoStub) ReplaceChallengeLists(ctx context.Context, id uint, lists map[string][]uint) error {
	return s.replaceChallengeListsFn(ctx, id, lists)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleUser}, nil
		},
		getByEmailFn:               func(context.Context, string) (*models.User, error) { return nil, nil },
		getWithChallengesFn:        func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		createFn:                   func(context.Context, *models.User) error { return nil },
		deleteFn:                   func(context.Context, uint) error { return nil },
		listFn:                     func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		searchFn:                   func(context.Context, string, int, int) ([]models.User, error) { return nil, nil },
		listByRolesFn:              func(context.Context, ...models.Role) ([]models.User, error) { return nil, nil },
		listPendingAdminRequestsFn: func(context.Context) ([]models.User, error) { return nil, nil },
		applyUpdateFn:              func(context.Context, uint, map[string]any, *models.Role) error { return nil },
		setRoleFn:                  func(context.Context, uint, models.Role) error { return nil },
		requestAdminFn:             func(context.Context, uint, time.Time) error { return nil },
		processAdminRequestFn:      func(context.Context, uint, repository.AdminDecision) error { return nil },
		replaceChallengeListsFn:    func(context.Context, uint, map[string][]uint) error { return nil },
	}
}

type challengeRepoStub struct {
	getByIDFn               func(context.Context, uint) (*models.Challenge, error)
	listFn                  func(context.Context, int, int) ([]models.Challenge, error)
	createForCreatorFn      func(context.Context, *models.Challenge, bool) error
	deleteFn                func(context.Context, uint) error
	searchFn                func(context.Context, string, int, int) ([]models.Challenge, error)
	updateFn                func(context.Context, uint, map[string]any) error
	updateStatusFn          func(context.Context, uint, models.ChallengeStatus) error
	incrementParticipantsFn func(context.Context, uint) error
	statsFn                 func(context.Context, *uint) (*models.ChallengeStats, error)
}

func (s *challengeRepoStub) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	return s.getByIDFn(ctx, id)
}
func (s *challengeRepoStub) List(ctx context.Context, limit, offset int) ([]models.Challenge, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *challengeRepoStub) Create(ctx context.Context, c *models.Challenge) error {
	return s.createForCreatorFn(ctx, c, false)
}
func (s *challengeRepoStub) CreateForCreator(ctx context.Context, c *models.Challenge, link bool) error {
	return s.createForCreatorFn(ctx, c, link)
}
func (s *challengeRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *challengeRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.Challenge, error) {
	return s.searchFn(ctx, q, limit, offset)
}
func (s *challengeRepoStub) Update(ctx context.Context, id uint, cols map[string]any) error {
	return s.updateFn(ctx, id, cols)
}
func (s *challengeRepoStub) UpdateStatus(ctx context.Context, id uint, status models.ChallengeStatus) error {
	return s.updateStatusFn(ctx, id, status)
}
func (s *challengeRepoStub) IncrementParticipants(ctx context.Context, id uint) error {
	return s.incrementParticipantsFn(ctx, id)
}
func (s *challengeRepoStub) Stats(ctx context.Context, creatorID *uint) (*models.ChallengeStats, error) {
	return s.statsFn(ctx, creatorID)
}

func noopChallengeRepo() *challengeRepoStub {
	return &challengeRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Challenge, error) {
			return &models.Challenge{ID: id, Status: models.ChallengeStatusOpen}, nil
		},
		listFn:                  func(context.Context, int, int) ([]models.Challenge, error) { return nil, nil },
		createForCreatorFn:      func(context.Context, *models.Challenge, bool) error { return nil },
		deleteFn:                func(context.Context, uint) error { return nil },
		searchFn:                func(context.Context, string, int, int) ([]models.Challenge, error) { return nil, nil },
		updateFn:                func(context.Context, uint, map[string]any) error { return nil },
		updateStatusFn:          func(context.Context, uint, models.ChallengeStatus) error { return nil },
		incrementParticipantsFn: func(context.Context, uint) error { return nil },
		statsFn:                 func(context.Context, *uint) (*models.ChallengeStats, error) { return &models.ChallengeStats{}, nil },
	}
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppError(t, err, models.CodeValidation)
}
