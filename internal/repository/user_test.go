package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"talenthub/internal/cache"
	"talenthub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	h, mr := newTestHandles(t, true)
	repo := NewUserRepository(h)
	ctx := context.Background()

	u := &models.User{Name: "Ada", Email: "ada@example.com", Password: "hash", Number: "+15550000001"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.True(t, mr.Exists(cache.UserKey(u.ID)))

	byEmail, err := repo.GetByEmail(ctx, "ADA@example.com ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "hash", byEmail.Password)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	h, _ := newTestHandles(t, false)
	repo := NewUserRepository(h)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "a@example.com", Password: "x", Number: "+15550000001"}))

	tests := []struct {
		name    string
		user    *models.User
		wantMsg string
	}{
		{"email", &models.User{Name: "B", Email: "a@example.com", Password: "x", Number: "+15550000002"}, "Email is already registered"},
		{"number", &models.User{Name: "C", Email: "c@example.com", Password: "x", Number: "+15550000001"}, "Phone number is already registered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	h, _ := newTestHandles(t, false)
	_, err := NewUserRepository(h).GetByID(context.Background(), 42)
	assert.Equal(t, 404, models.StatusFor(err))
}

func TestUserRepository_ApplyUpdateInvalidatesCache(t *testing.T) {
	h, mr := newTestHandles(t, true)
	repo := NewUserRepository(h)
	ctx := context.Background()
	u := seedUser(t, h, "grace", models.RoleUser)

	_, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.UserKey(u.ID)))

	require.NoError(t, repo.ApplyUpdate(ctx, u.ID, map[string]any{"name": "Grace H"}, nil))
	assert.False(t, mr.Exists(cache.UserKey(u.ID)))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace H", got.Name)

	assert.Equal(t, 404, models.StatusFor(repo.ApplyUpdate(ctx, 999, map[string]any{"name": "x"}, nil)))
}

func TestUserRepository_ApplyUpdateIsAtomic(t *testing.T) {
	h, _ := newTestHandles(t, false)
	repo := NewUserRepository(h)
	ctx := context.Background()
	taken := seedUser(t, h, "margaret", models.RoleUser)
	admin := seedUser(t, h, "frances", models.RoleAdmin)
	c := seedChallenge(t, h, admin, "Kept", models.ChallengeStatusOpen)
	require.NoError(t, repo.ReplaceChallengeLists(ctx, admin.ID, map[string][]uint{models.ListCreated: {c.ID}}))

	demoted := models.RoleUser
	err := repo.ApplyUpdate(ctx, admin.ID, map[string]any{"name": "Fran", "email": taken.Email}, &demoted)
	assert.Equal(t, 400, models.StatusFor(err))

	got, err := repo.GetWithChallenges(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "frances", got.Name)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Len(t, got.CreatedChallenges, 1)

	require.NoError(t, repo.ApplyUpdate(ctx, admin.ID, map[string]any{"name": "Fran"}, &demoted))
	got, err = repo.GetWithChallenges(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fran", got.Name)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Empty(t, got.CreatedChallenges)
}

func TestUserRepository_AdminRequestFlow(t *testing.T) {
	h, _ := newTestHandles(t, false)
	repo := NewUserRepository(h)
	ctx := context.Background()
	u := seedUser(t, h, "linus", models.RoleUser)
	super := seedUser(t, h, "root", models.RoleSuperAdmin)
	open := seedChallenge(t, h, super, "Open", models.ChallengeStatusOpen)
	require.NoError(t, repo.ReplaceChallengeLists(ctx, u.ID, map[string][]uint{models.ListOngoing: {open.ID}}))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RequestAdmin(ctx, u.ID, now))

	err := repo.RequestAdmin(ctx, u.ID, now)
	require.Error(t, err)
	assert.Equal(t, "Admin request is already pending", err.Error())

	pending, err := repo.ListPendingAdminRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, u.ID, pending[0].ID)

	require.NoError(t, repo.ProcessAdminRequest(ctx, u.ID, AdminDecision{
		Status: models.AdminRequestApproved, ProcessedBy: super.ID, Reason: "trusted", At: now,
	}))

	got, err := repo.GetWithChallenges(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, models.AdminRequestApproved, got.AdminRequest.Status)
	require.NotNil(t, got.AdminRequest.ProcessedByID)
	assert.Equal(t, super.ID, *got.AdminRequest.ProcessedByID)
	assert.Empty(t, got.OngoingChallenges)

	err = repo.ProcessAdminRequest(ctx, u.ID, AdminDecision{Status: models.AdminRequestRejected, ProcessedBy: super.ID, At: now})
	assert.Equal(t, "No pending admin request found", err.Error())

	err = repo.RequestAdmin(ctx, u.ID, now)
	assert.Equal(t, "User is already an admin", err.Error())

	assert.Equal(t, 404, models.StatusFor(repo.ProcessAdminRequest(ctx, 999, AdminDecision{Status: models.AdminRequestApproved})))
	assert.Equal(t, 404, models.StatusFor(repo.RequestAdmin(ctx, 999, now)))
}

func TestUserRepository_RejectedRequestCanBeRepeated(t *testing.T) {
	h, _ := newTestHandles(t, false)
	repo := NewUserRepository(h)
	ctx := context.Background()
	u := seedUser(t, h, "ken", models.RoleUser)

	require.NoError(t, repo.RequestAdmin(ctx, u.ID, time.Now()))
	require.NoError(t, repo.ProcessAdminRequest(ctx, u.ID, AdminDecision{Status: models.AdminRequestRejected, Reason: "not yet", At: time.Now()}))
	require.NoError(t, repo.RequestAdmin(ctx, u.ID, time.Now()))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, models.AdminRequestPending, got.AdminRequest.Status)
	assert.Empty(t, got.AdminRequest.Reason)
}

func TestUserRepository_SetRoleClearsLists(t *testing.T) {
	h, _ := newTestHandles(t, false)
	repo := NewUserRepository(h)
	ctx := context.Background()
	admin := seedUser(t, h, "barbara", models.RoleAdmin)
	c := seedChallenge(t, h, admin, "Build", models.ChallengeStatusOpen)
	require.NoError(t, repo.ReplaceChallengeLists(ctx, admin.ID, map[string][]uint{models.ListCreated: {c.ID}}))

	require.NoError(t, repo.SetRole(ctx, admin.ID, models.RoleUser))

	got, err := repo.GetWithChallenges(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Empty(t, got.CreatedChallenges)

	assert.Equal(t, 404, models.StatusFor(repo.SetRole(ctx, 999, models.RoleAdmin)))
}

func TestUserRepository_ReplaceChallengeLists_UnknownChallenge(t *testing.T) {
	h, _ := newTestHandles(t, false)
	u := seedUser(t, h, "dennis", models.RoleUser)

	err := NewUserRepository(h).ReplaceChallengeLists(context.Background(), u.ID, map[string][]uint{models.ListCompleted: {12345}})
	assert.Equal(t, 400, models.StatusFor(err))
}

func TestUserRepository_SearchAndRoles(t *testing.T) {
	h, _ := newTestHandles(t, false)
	repo := NewUserRepository(h)
	ctx := context.Background()
	seedUser(t, h, "margaret", models.RoleUser)
	seedUser(t, h, "marvin", models.RoleAdmin)
	seedUser(t, h, "alan", models.RoleSuperAdmin)

	found, err := repo.Search(ctx, "MAR", 10, 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := repo.Search(ctx, "%", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	admins, err := repo.ListByRoles(ctx, models.RoleAdmin, models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestUserRepository_Delete(t *testing.T) {
	h, mr := newTestHandles(t, true)
	repo := NewUserRepository(h)
	ctx := context.Background()
	u := seedUser(t, h, "bjarne", models.RoleUser)
	admin := seedUser(t, h, "guido", models.RoleAdmin)
	c := seedChallenge(t, h, admin, "Ship", models.ChallengeStatusOpen)
	require.NoError(t, repo.ReplaceChallengeLists(ctx, u.ID, map[string][]uint{models.ListCompleted: {c.ID}}))
	_, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.False(t, mr.Exists(cache.UserKey(u.ID)))

	var joins int64
	require.NoError(t, h.DB.Table("user_completed_challenges").Where("user_id = ?", u.ID).Count(&joins).Error)
	assert.Zero(t, joins)

	assert.Equal(t, 404, models.StatusFor(repo.Delete(ctx, u.ID)))
}
