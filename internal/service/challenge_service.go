package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"talenthub/internal/featureflags"
	"talenthub/internal/models"
	"talenthub/internal/observability"
	"talenthub/internal/repository"
	"talenthub/internal/validation"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// DescriptionInput is the nested description block of a challenge.
type DescriptionInput struct {
	Title       string `json:"title" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"required,notblank,max=500"`
}

// CreateChallengeInput is the payload for posting a challenge.
type CreateChallengeInput struct {
	CreatorID          uint             `json:"-"`
	Title              string           `json:"title" validate:"required,notblank,max=100"`
	Deadline           time.Time        `json:"deadline" validate:"required"`
	ContactEmail       string           `json:"contact_email" validate:"required,email"`
	ProjectDescription string           `json:"project_description" validate:"required,min=50"`
	Brief              string           `json:"brief" validate:"required,notblank,max=250"`
	Prize              *decimal.Decimal `json:"prize" validate:"required,gte=0"`
	Description        DescriptionInput `json:"description" validate:"required"`
}

// UpdateChallengeInput is a partial update of the descriptive fields.
type UpdateChallengeInput struct {
	Title              *string           `json:"title" validate:"omitempty,notblank,max=100"`
	Deadline           *time.Time        `json:"deadline"`
	ContactEmail       *string           `json:"contact_email" validate:"omitempty,email"`
	ProjectDescription *string           `json:"project_description" validate:"omitempty,min=50"`
	Brief              *string           `json:"brief" validate:"omitempty,notblank,max=250"`
	Prize              *decimal.Decimal  `json:"prize" validate:"omitempty,gte=0"`
	Description        *DescriptionInput `json:"description"`
}

type ChallengeService struct {
	repo  repository.ChallengeRepository
	users repository.UserRepository
	flags *featureflags.Manager
	now   func() time.Time
}

func NewChallengeService(repo repository.ChallengeRepository, users repository.UserRepository, flags *featureflags.Manager) *ChallengeService {
	return &ChallengeService{repo: repo, users: users, flags: flags, now: time.Now}
}

func (s *ChallengeService) checkDeadline(deadline time.Time) error {
	if !deadline.After(s.now()) {
		return models.NewFieldValidationError("deadline must be in the future", "deadline")
	}
	return nil
}

// CreateChallenge validates and stores a new open challenge. Admin-tier
// creators also get it on their created list.
func (s *ChallengeService) CreateChallenge(ctx context.Context, in CreateChallengeInput) (*models.Challenge, error) {
	ctx, span := observability.StartSpan(ctx, "challenge", "create")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	if err = s.checkDeadline(in.Deadline); err != nil {
		return nil, err
	}

	creator, err := s.users.GetByID(ctx, in.CreatorID)
	if err != nil {
		return nil, err
	}

	challenge := &models.Challenge{
		Title:              strings.TrimSpace(in.Title),
		Deadline:           in.Deadline.UTC(),
		ContactEmail:       normalizeEmail(in.ContactEmail),
		ProjectDescription: in.ProjectDescription,
		Brief:              strings.TrimSpace(in.Brief),
		Prize:              in.Prize.Round(2),
		Description: models.ChallengeDescription{
			Title:       strings.TrimSpace(in.Description.Title),
			Description: in.Description.Description,
		},
		CreatorID: creator.ID,
		Status:    models.ChallengeStatusOpen,
	}
	if err = s.repo.CreateForCreator(ctx, challenge, creator.IsAdmin()); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *ChallengeService) SearchChallenges(ctx context.Context, query string, limit, offset int) ([]models.Challenge, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.repo.Search(ctx, query, limit, offset)
}

// UpdateChallenge changes descriptive fields. A changed deadline must still
// lie in the future.
func (s *ChallengeService) UpdateChallenge(ctx context.Context, id uint, in UpdateChallengeInput) (*models.Challenge, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	cols := make(map[string]any)
	if in.Title != nil {
		cols["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Deadline != nil {
		if err := s.checkDeadline(*in.Deadline); err != nil {
			return nil, err
		}
		cols["deadline"] = in.Deadline.UTC()
	}
	if in.ContactEmail != nil {
		cols["contact_email"] = normalizeEmail(*in.ContactEmail)
	}
	if in.ProjectDescription != nil {
		cols["project_description"] = *in.ProjectDescription
	}
	if in.Brief != nil {
		cols["brief"] = strings.TrimSpace(*in.Brief)
	}
	if in.Prize != nil {
		cols["prize"] = in.Prize.Round(2)
	}
	if in.Description != nil {
		cols["description_title"] = strings.TrimSpace(in.Description.Title)
		cols["description_description"] = in.Description.Description
	}
	if len(cols) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}

	if err := s.repo.Update(ctx, id, cols); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Participate adds one participant to an open challenge.
func (s *ChallengeService) Participate(ctx context.Context, id uint) (*models.Challenge, error) {
	ctx, span := observability.StartSpan(ctx, "challenge", "participate", attribute.Int("challenge_id", int(id)))
	err := s.repo.IncrementParticipants(ctx, id)
	observability.EndSpan(span, err)

	outcome := "joined"
	if err != nil {
		switch models.StatusFor(err) {
		case http.StatusBadRequest:
			outcome = "inactive"
		case http.StatusNotFound:
			outcome = "missing"
		default:
			outcome = "error"
		}
	}
	observability.ChallengeParticipations.WithLabelValues(outcome).Inc()

	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus sets the lifecycle status. Backward moves are rejected only
// while the strict_status_transitions flag is on.
func (s *ChallengeService) UpdateStatus(ctx context.Context, id uint, status models.ChallengeStatus) (*models.Challenge, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}

	if s.flags.EnabledGlobally(featureflags.StrictStatusTransitions) {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status != status && !current.Status.Precedes(status) {
			return nil, models.NewValidationError(fmt.Sprintf("Cannot move challenge from %s to %s", current.Status, status))
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Stats counts challenges per status, for everyone or for one creator.
func (s *ChallengeService) Stats(ctx context.Context, creatorID *uint) (*models.ChallengeStats, error) {
	return s.repo.Stats(ctx, creatorID)
}
