// Package bootstrap wires the process-level dependencies shared by the
// server and the maintenance commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"talenthub/internal/cache"
	"talenthub/internal/config"
	"talenthub/internal/database"
	"talenthub/internal/middleware"
	"talenthub/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Runtime holds the connections opened by InitRuntime. ReadDB and Redis may
// be nil.
type Runtime struct {
	DB     *gorm.DB
	ReadDB *gorm.DB
	Redis  *redis.Client
}

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis leaves Runtime.Redis nil, for commands that only touch SQL.
	SkipRedis bool
}

// InitRuntime connects to the primary database, the optional read replica
// and Redis, then ensures the development super admin when enabled.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	readDB, err := database.ConnectReplica(cfg)
	if err != nil {
		return nil, fmt.Errorf("read replica connection failed: %w", err)
	}

	rt := &Runtime{DB: db, ReadDB: readDB}
	if !opts.SkipRedis {
		// nil when unreachable
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rt.Redis = cache.Connect(pingCtx, cfg.RedisURL)
		cancel()
	}

	if err := EnsureDevSuperAdmin(ctx, cfg, db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development super admin: %w", err)
	}
	return rt, nil
}

// EnsureDevSuperAdmin creates or promotes the configured super admin account.
// It only runs in development with DEV_BOOTSTRAP_SUPER_ADMIN enabled.
func EnsureDevSuperAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapSuperAdmin {
		return nil
	}

	name := strings.TrimSpace(cfg.DevSuperAdminName)
	if name == "" {
		name = "TalentHub Super Admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevSuperAdminEmail))
	if email == "" {
		email = "superadmin@talenthub.local"
	}
	number := strings.TrimSpace(cfg.DevSuperAdminNumber)
	if number == "" {
		number = "+10000000000"
	}
	password := cfg.DevSuperAdminPassword
	if password == "" {
		return fmt.Errorf("DEV_SUPER_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_SUPER_ADMIN is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash super admin password: %w", err)
	}

	var userID uint
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		findErr := tx.Where("email = ?", email).First(&existing).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			user := models.User{
				Name:         name,
				Email:        email,
				Password:     string(hashedPassword),
				Number:       number,
				Role:         models.RoleSuperAdmin,
				AdminRequest: models.AdminRequest{Status: models.AdminRequestNone},
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			userID = user.ID
			return nil
		case findErr != nil:
			return findErr
		}

		userID = existing.ID
		if existing.Role == models.RoleSuperAdmin {
			return nil
		}
		// Promotion drops the user-only lists, like any other role change.
		for _, list := range models.ListsClearedOnRoleChange(models.RoleSuperAdmin) {
			if err := tx.Model(&existing).Association(list).Clear(); err != nil {
				return err
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", existing.ID).Update("role", models.RoleSuperAdmin).Error
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development super admin ensured",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("email", email),
	)
	return nil
}
