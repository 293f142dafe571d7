package repository

import (
	"context"

	"talenthub/internal/cache"
	"talenthub/internal/models"

	"gorm.io/gorm"
)

// ChallengeRepository defines persistence operations for challenges.
type ChallengeRepository interface {
	Store[models.Challenge]
	CreateForCreator(ctx context.Context, challenge *models.Challenge, linkCreated bool) error
	Search(ctx context.Context, query string, limit, offset int) ([]models.Challenge, error)
	Update(ctx context.Context, id uint, cols map[string]any) error
	UpdateStatus(ctx context.Context, id uint, status models.ChallengeStatus) error
	IncrementParticipants(ctx context.Context, id uint) error
	Stats(ctx context.Context, creatorID *uint) (*models.ChallengeStats, error)
}

type challengeRepository struct {
	h Handles
}

// NewChallengeRepository returns a new ChallengeRepository implementation.
func NewChallengeRepository(h Handles) ChallengeRepository {
	return &challengeRepository{h: h}
}

func (r *challengeRepository) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	err := r.h.Cache.Aside(ctx, cache.ChallengeKey(id), &challenge, cache.ChallengeTTL, func() error {
		if err := r.h.reader(ctx).First(&challenge, id).Error; err != nil {
			return notFoundOrInternal(err, "Challenge", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) List(ctx context.Context, limit, offset int) ([]models.Challenge, error) {
	limit, offset = clampPage(limit, offset)
	challenges := make([]models.Challenge, 0, limit)
	err := r.h.reader(ctx).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&challenges).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return challenges, nil
}

func (r *challengeRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.Challenge, error) {
	limit, offset = clampPage(limit, offset)
	pattern := likePattern(query)
	challenges := make([]models.Challenge, 0, limit)
	err := r.h.reader(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(brief) LIKE ? ESCAPE '\' OR LOWER(project_description) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&challenges).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return challenges, nil
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	return r.CreateForCreator(ctx, challenge, false)
}

// CreateForCreator inserts the challenge and, when linkCreated is set, adds it
// to the creator's created list in the same transaction.
func (r *challengeRepository) CreateForCreator(ctx context.Context, challenge *models.Challenge, linkCreated bool) error {
	err := r.h.writer(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Creator").Create(challenge).Error; err != nil {
			return models.NewInternalError(err)
		}
		if !linkCreated {
			return nil
		}
		err := tx.Exec("INSERT INTO "+challengeJoinTables[models.ListCreated]+" (user_id, challenge_id) VALUES (?, ?)",
			challenge.CreatorID, challenge.ID).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, challenge.ID, challenge.CreatorID)
	return nil
}

// Update writes descriptive columns. Status, participants and creator are
// changed through their own operations.
func (r *challengeRepository) Update(ctx context.Context, id uint, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	delete(cols, "status")
	delete(cols, "participants")
	delete(cols, "creator_id")
	return r.updateColumns(ctx, id, cols)
}

func (r *challengeRepository) UpdateStatus(ctx context.Context, id uint, status models.ChallengeStatus) error {
	return r.updateColumns(ctx, id, map[string]any{"status": status})
}

func (r *challengeRepository) updateColumns(ctx context.Context, id uint, cols map[string]any) error {
	res := r.h.writer(ctx).Model(&models.Challenge{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Challenge", id)
	}
	r.invalidate(ctx, id, r.creatorOf(ctx, id))
	return nil
}

// IncrementParticipants adds one participant in a single conditional UPDATE,
// so concurrent callers never lose an increment.
func (r *challengeRepository) IncrementParticipants(ctx context.Context, id uint) error {
	res := r.h.writer(ctx).Model(&models.Challenge{}).
		Where("id = ? AND status = ?", id, models.ChallengeStatusOpen).
		UpdateColumn("participants", gorm.Expr("participants + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		r.h.Cache.Invalidate(ctx, cache.ChallengeKey(id))
		return nil
	}

	var n int64
	if err := r.h.writer(ctx).Model(&models.Challenge{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return models.NewInternalError(err)
	}
	if n == 0 {
		return models.NewNotFoundError("Challenge", id)
	}
	return models.NewValidationError("Challenge is not active")
}

type statusCount struct {
	Status models.ChallengeStatus
	Count  int64
}

// Stats counts challenges per status, optionally for one creator.
func (r *challengeRepository) Stats(ctx context.Context, creatorID *uint) (*models.ChallengeStats, error) {
	key := cache.ChallengeStatsKey
	if creatorID != nil {
		key = cache.CreatorChallengeStatsKey(*creatorID)
	}

	var stats models.ChallengeStats
	err := r.h.Cache.Aside(ctx, key, &stats, cache.ChallengeStatsTTL, func() error {
		stats = models.ChallengeStats{}
		q := r.h.reader(ctx).Model(&models.Challenge{}).Select("status, COUNT(*) AS count").Group("status")
		if creatorID != nil {
			q = q.Where("creator_id = ?", *creatorID)
		}
		var rows []statusCount
		if err := q.Scan(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		for _, row := range rows {
			stats.Add(row.Status, row.Count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Delete removes the challenge and every user list reference to it.
func (r *challengeRepository) Delete(ctx context.Context, id uint) error {
	creatorID := r.creatorOf(ctx, id)
	err := r.h.writer(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range challengeJoinTables {
			if err := tx.Exec("DELETE FROM "+table+" WHERE challenge_id = ?", id).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		res := tx.Delete(&models.Challenge{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Challenge", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, id, creatorID)
	return nil
}

func (r *challengeRepository) creatorOf(ctx context.Context, id uint) uint {
	var creatorID uint
	r.h.writer(ctx).Model(&models.Challenge{}).Where("id = ?", id).Select("creator_id").Scan(&creatorID)
	return creatorID
}

func (r *challengeRepository) invalidate(ctx context.Context, id, creatorID uint) {
	keys := []string{cache.ChallengeKey(id), cache.ChallengeStatsKey}
	if creatorID != 0 {
		keys = append(keys, cache.CreatorChallengeStatsKey(creatorID))
	}
	r.h.Cache.Invalidate(ctx, keys...)
}
