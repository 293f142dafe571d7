package service

import (
	"context"
	"strings"
	"time"

	"talenthub/internal/models"
	"talenthub/internal/observability"
	"talenthub/internal/repository"
	"talenthub/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
	cost     int
}

// UpdateUserInput is a patch applied by Actor to the user with TargetID.
type UpdateUserInput struct {
	Actor    *models.User
	TargetID uint
	Patch    models.UserPatch
}

// ProcessAdminInput is a super admin's decision on a pending request.
type ProcessAdminInput struct {
	ActorID  uint
	TargetID uint
	Status   models.AdminRequestStatus `json:"status" validate:"required,oneof=approved rejected"`
	Reason   string                    `json:"reason" validate:"max=500"`
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now, cost: bcrypt.DefaultCost}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// ListAdmins returns every admin and super admin.
func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRoles(ctx, models.RoleAdmin, models.RoleSuperAdmin)
}

// UpdateUser applies the part of the patch the actor is allowed to change.
// Fields outside the actor's reach are dropped, not rejected.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	ctx, span := observability.StartSpan(ctx, "user", "update", attribute.Int("target_id", int(in.TargetID)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = validation.Struct(in.Patch); err != nil {
		return nil, err
	}

	target, err := s.userRepo.GetByID(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	if target.IsSuperAdmin() && !in.Actor.IsSuperAdmin() && in.Actor.ID != target.ID {
		err = models.NewForbiddenError("Only a super admin can modify a super admin")
		return nil, err
	}

	upd := in.Patch.FilterFor(in.Actor, target)
	if upd.Profile.Name != nil {
		name := strings.TrimSpace(*upd.Profile.Name)
		upd.Profile.Name = &name
	}
	if upd.Profile.Email != nil {
		email := normalizeEmail(*upd.Profile.Email)
		upd.Profile.Email = &email
	}
	if upd.Profile.Password != nil {
		if perr := validation.ValidatePassword(*upd.Profile.Password); perr != nil {
			err = models.NewValidationError(perr.Error())
			return nil, err
		}
		var hashed string
		if hashed, err = hashPassword(*upd.Profile.Password, s.cost); err != nil {
			return nil, err
		}
		upd.Profile.Password = &hashed
	}

	role := upd.Role
	if role != nil && *role == target.Role {
		role = nil
	}
	if err = s.userRepo.ApplyUpdate(ctx, target.ID, upd.Columns(), role); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, target.ID)
}

// DeleteUser removes a user. Super admins can only be removed by a super admin.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, id uint) error {
	target, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsSuperAdmin() && !actor.IsSuperAdmin() {
		return models.NewForbiddenError("Only a super admin can delete a super admin")
	}
	return s.userRepo.Delete(ctx, id)
}

// SetRole changes a user's role outside the HTTP flow (admin CLI).
func (s *UserService) SetRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}
	if err := s.userRepo.SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

// RequestAdminRole files an admin request for a plain user.
func (s *UserService) RequestAdminRole(ctx context.Context, userID uint) (*models.User, error) {
	if err := s.userRepo.RequestAdmin(ctx, userID, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *UserService) PendingAdminRequests(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListPendingAdminRequests(ctx)
}

// ProcessAdminRequest approves or rejects a pending admin request.
func (s *UserService) ProcessAdminRequest(ctx context.Context, in ProcessAdminInput) (*models.User, error) {
	ctx, span := observability.StartSpan(ctx, "user", "process_admin_request",
		attribute.Int("target_id", int(in.TargetID)),
		attribute.String("decision", string(in.Status)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	err = s.userRepo.ProcessAdminRequest(ctx, in.TargetID, repository.AdminDecision{
		Status:      in.Status,
		ProcessedBy: in.ActorID,
		Reason:      strings.TrimSpace(in.Reason),
		At:          s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	observability.AdminRequestsProcessed.WithLabelValues(string(in.Status)).Inc()
	return s.userRepo.GetByID(ctx, in.TargetID)
}

// Stats returns the caller's challenge lists with counts.
func (s *UserService) Stats(ctx context.Context, userID uint) (*models.UserStats, error) {
	user, err := s.userRepo.GetWithChallenges(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := user.Stats()
	return &stats, nil
}

// SetChallengeLists replaces a user's challenge lists. Plain users may not
// hold created challenges and admins may not hold completed or ongoing ones.
func (s *UserService) SetChallengeLists(ctx context.Context, userID uint, patch models.ChallengeListsPatch) (*models.UserStats, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	lists := make(map[string][]uint)
	if patch.CompletedChallenges != nil {
		lists[models.ListCompleted] = *patch.CompletedChallenges
	}
	if patch.OngoingChallenges != nil {
		lists[models.ListOngoing] = *patch.OngoingChallenges
	}
	if patch.CreatedChallenges != nil {
		lists[models.ListCreated] = *patch.CreatedChallenges
	}
	if len(lists) == 0 {
		return nil, models.NewValidationError("No challenge lists provided")
	}

	for _, forbidden := range models.ListsClearedOnRoleChange(user.Role) {
		if ids, ok := lists[forbidden]; ok && len(ids) > 0 {
			if user.IsAdmin() {
				return nil, models.NewValidationError("Admins cannot hold completed or ongoing challenges")
			}
			return nil, models.NewValidationError("Users cannot hold created challenges")
		}
	}

	if err := s.userRepo.ReplaceChallengeLists(ctx, userID, lists); err != nil {
		return nil, err
	}
	return s.Stats(ctx, userID)
}
