package repository

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"talenthub/internal/cache"
	"talenthub/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Store[models.User]
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetWithChallenges(ctx context.Context, id uint) (*models.User, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.User, error)
	ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error)
	ListPendingAdminRequests(ctx context.Context) ([]models.User, error)
	ApplyUpdate(ctx context.Context, id uint, cols map[string]any, role *models.Role) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	RequestAdmin(ctx context.Context, id uint, at time.Time) error
	ProcessAdminRequest(ctx context.Context, id uint, decision AdminDecision) error
	ReplaceChallengeLists(ctx context.Context, id uint, lists map[string][]uint) error
}

// AdminDecision is a super admin's verdict on a pending admin request.
type AdminDecision struct {
	Status      models.AdminRequestStatus
	ProcessedBy uint
	Reason      string
	At          time.Time
}

var challengeJoinTables = map[string]string{
	models.ListCompleted: "user_completed_challenges",
	models.ListOngoing:   "user_ongoing_challenges",
	models.ListCreated:   "user_created_challenges",
}

type userRepository struct {
	h Handles
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(h Handles) UserRepository {
	return &userRepository{h: h}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.h.Cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.h.reader(ctx).First(&user, id).Error; err != nil {
			return notFoundOrInternal(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil without error when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.h.writer(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetWithChallenges(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.h.reader(ctx).
		Preload(models.ListCompleted).
		Preload(models.ListOngoing).
		Preload(models.ListCreated).
		First(&user, id).Error
	if err != nil {
		return nil, notFoundOrInternal(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = clampPage(limit, offset)
	var users []models.User
	if err := r.h.reader(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	limit, offset = clampPage(limit, offset)
	pattern := likePattern(query)
	var users []models.User
	err := r.h.reader(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.h.reader(ctx).Where("role IN ?", roles).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListPendingAdminRequests(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.h.reader(ctx).
		Where("admin_request_status = ?", models.AdminRequestPending).
		Order("admin_request_requested_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.h.writer(ctx).Omit(models.ListCompleted, models.ListOngoing, models.ListCreated).Create(user).Error; err != nil {
		return translateUserWriteError(err)
	}
	return nil
}

// translateUserWriteError turns unique violations on email/number into
// validation errors.
func translateUserWriteError(err error) error {
	if !isUniqueConstraintError(err) {
		return models.NewInternalError(err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "email"):
		return models.NewValidationError("Email is already registered")
	case strings.Contains(msg, "number"):
		return models.NewValidationError("Phone number is already registered")
	default:
		return models.NewValidationError("User already exists")
	}
}

// ApplyUpdate writes cols and, when role is set, the role change with its list
// cleanup. Everything lands in one transaction.
func (r *userRepository) ApplyUpdate(ctx context.Context, id uint, cols map[string]any, role *models.Role) error {
	if len(cols) == 0 && role == nil {
		return nil
	}
	err := r.h.writer(ctx).Transaction(func(tx *gorm.DB) error {
		updates := maps.Clone(cols)
		if updates == nil {
			updates = make(map[string]any, 1)
		}
		if role != nil {
			updates["role"] = *role
		}
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return translateUserWriteError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		if role != nil {
			return clearLists(tx, id, models.ListsClearedOnRoleChange(*role))
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.h.Cache.Invalidate(ctx, cache.UserKey(id))
	return nil
}

// SetRole changes the role and drops the challenge lists the new role may not
// hold.
func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	return r.ApplyUpdate(ctx, id, nil, &role)
}

func clearLists(tx *gorm.DB, userID uint, lists []string) error {
	for _, name := range lists {
		if err := tx.Exec("DELETE FROM "+challengeJoinTables[name]+" WHERE user_id = ?", userID).Error; err != nil {
			return models.NewInternalError(err)
		}
	}
	return nil
}

// RequestAdmin marks a plain user's admin request as pending. The update is
// conditional so concurrent requests cannot both succeed.
func (r *userRepository) RequestAdmin(ctx context.Context, id uint, at time.Time) error {
	res := r.h.writer(ctx).Model(&models.User{}).
		Where("id = ? AND role = ? AND admin_request_status <> ?", id, models.RoleUser, models.AdminRequestPending).
		Updates(map[string]any{
			"admin_request_status":          models.AdminRequestPending,
			"admin_request_requested_at":    at,
			"admin_request_processed_by_id": nil,
			"admin_request_processed_at":    nil,
			"admin_request_reason":          "",
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	r.h.Cache.Invalidate(ctx, cache.UserKey(id))
	if res.RowsAffected > 0 {
		return nil
	}

	var current models.User
	if err := r.h.writer(ctx).Select("id", "role", "admin_request_status").First(&current, id).Error; err != nil {
		return notFoundOrInternal(err, "User", id)
	}
	if current.IsAdmin() {
		return models.NewValidationError("User is already an admin")
	}
	return models.NewValidationError("Admin request is already pending")
}

// ProcessAdminRequest resolves a pending request. Approval promotes the user
// to admin and clears the user-only challenge lists in the same transaction.
func (r *userRepository) ProcessAdminRequest(ctx context.Context, id uint, d AdminDecision) error {
	cols := map[string]any{
		"admin_request_status":          d.Status,
		"admin_request_processed_by_id": d.ProcessedBy,
		"admin_request_processed_at":    d.At,
		"admin_request_reason":          d.Reason,
	}
	if d.Status == models.AdminRequestApproved {
		cols["role"] = models.RoleAdmin
	}

	err := r.h.writer(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND admin_request_status = ?", id, models.AdminRequestPending).
			Updates(cols)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return models.NewInternalError(err)
			}
			if n == 0 {
				return models.NewNotFoundError("User", id)
			}
			return models.NewValidationError("No pending admin request found")
		}
		if d.Status == models.AdminRequestApproved {
			return clearLists(tx, id, models.ListsClearedOnRoleChange(models.RoleAdmin))
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.h.Cache.Invalidate(ctx, cache.UserKey(id))
	return nil
}

// ReplaceChallengeLists swaps the given association lists for the challenge ids
// provided. Unknown challenge ids are rejected.
func (r *userRepository) ReplaceChallengeLists(ctx context.Context, id uint, lists map[string][]uint) error {
	err := r.h.writer(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return notFoundOrInternal(err, "User", id)
		}
		for name, ids := range lists {
			challenges := make([]models.Challenge, 0, len(ids))
			if len(ids) > 0 {
				if err := tx.Where("id IN ?", ids).Find(&challenges).Error; err != nil {
					return models.NewInternalError(err)
				}
				if len(challenges) != len(uniqueIDs(ids)) {
					return models.NewValidationError("One or more challenges do not exist")
				}
			}
			if err := tx.Model(&user).Association(name).Replace(challenges); err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.h.Cache.Invalidate(ctx, cache.UserKey(id))
	return nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Delete removes the user and their challenge list memberships.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.h.writer(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearLists(tx, id, []string{models.ListCompleted, models.ListOngoing, models.ListCreated}); err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.h.Cache.Invalidate(ctx, cache.UserKey(id))
	return nil
}
