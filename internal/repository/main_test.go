package repository

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"talenthub/internal/cache"
	"talenthub/internal/database"
	"talenthub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestHandles opens a fresh in-memory schema. withCache attaches a
// miniredis-backed cache.
func newTestHandles(t *testing.T, withCache bool) (Handles, *miniredis.Miniredis) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	h := Handles{DB: db}
	if !withCache {
		return h, nil
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	h.Cache = cache.New(client)
	return h, mr
}

var phoneSeq atomic.Int64

func seedUser(t *testing.T, h Handles, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
		Number:   fmt.Sprintf("+1555%07d", phoneSeq.Add(1)),
		Role:     role,
		AdminRequest: models.AdminRequest{
			Status: models.AdminRequestNone,
		},
	}
	require.NoError(t, h.DB.Create(u).Error)
	return u
}

func seedChallenge(t *testing.T, h Handles, creator *models.User, title string, status models.ChallengeStatus) *models.Challenge {
	t.Helper()
	c := &models.Challenge{
		Title:              title,
		Deadline:           time.Now().Add(72 * time.Hour),
		ContactEmail:       "contact@example.com",
		ProjectDescription: "A project description that is comfortably longer than fifty characters.",
		Brief:              "brief for " + title,
		Prize:              decimal.NewFromInt(500),
		Description:        models.ChallengeDescription{Title: "About", Description: "Details"},
		CreatorID:          creator.ID,
		Status:             status,
	}
	require.NoError(t, h.DB.Omit("Creator").Create(c).Error)
	return c
}
