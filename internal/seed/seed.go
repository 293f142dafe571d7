package seed

import (
	"fmt"
	"log"

	"talenthub/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers      int
	NumAdmins     int
	NumChallenges int
	ShouldClean   bool
	// FixturePath points at a YAML fixture. Empty uses the embedded one.
	FixturePath string
	// SkipFixture disables fixture loading entirely.
	SkipFixture bool
	Factory     SeedOptions
}

// Result summarises what Seed created.
type Result struct {
	SuperAdmin *models.User
	Admins     []*models.User
	Users      []*models.User
	Challenges []models.Challenge
}

// Seed populates the database with demo data: one super admin, a few admins
// who own the challenges, and plain users who join them.
func Seed(db *gorm.DB, opts Options) (*Result, error) {
	log.Printf("🌱 Seeding %d users, %d admins, %d challenges...", opts.NumUsers, opts.NumAdmins, opts.NumChallenges)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f := NewFactory(db, opts.Factory)
	res := &Result{}

	super, err := f.CreateUser(models.RoleSuperAdmin)
	if err != nil {
		return nil, fmt.Errorf("create super admin: %w", err)
	}
	res.SuperAdmin = super

	for i := 0; i < opts.NumAdmins; i++ {
		admin, err := f.CreateUser(models.RoleAdmin, func(u *models.User) {
			u.ManagedUsers = opts.NumUsers / max(opts.NumAdmins, 1)
		})
		if err != nil {
			return nil, fmt.Errorf("create admin: %w", err)
		}
		res.Admins = append(res.Admins, admin)
	}
	log.Printf("✓ %d admins created", len(res.Admins)+1)

	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser(models.RoleUser)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		res.Users = append(res.Users, user)
	}
	log.Printf("✓ %d users created", len(res.Users))

	if !opts.SkipFixture {
		fx, err := LoadFixture(opts.FixturePath)
		if err != nil {
			return nil, err
		}
		created, err := f.ApplyFixture(fx, super)
		if err != nil {
			return nil, err
		}
		res.Challenges = append(res.Challenges, created...)
	}

	creators := res.Admins
	if len(creators) == 0 {
		creators = []*models.User{super}
	}
	for i := 0; i < opts.NumChallenges; i++ {
		c, err := f.CreateChallenge(creators[i%len(creators)])
		if err != nil {
			return nil, fmt.Errorf("create challenge: %w", err)
		}
		res.Challenges = append(res.Challenges, *c)
	}
	log.Printf("✓ %d challenges created", len(res.Challenges))

	// Each user joins up to two challenges that accept or accepted entrants.
	joined := 0
	for i, user := range res.Users {
		for j := 0; j < 2 && len(res.Challenges) > 0; j++ {
			c := res.Challenges[(i*2+j)%len(res.Challenges)]
			if c.Status == models.ChallengeStatusOngoing {
				continue
			}
			if err := f.Join(user, &c); err != nil {
				return nil, fmt.Errorf("join challenge: %w", err)
			}
			joined++
		}
	}
	log.Printf("✓ %d participations recorded", joined)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// clearData empties every seeded table, join tables first.
func clearData(db *gorm.DB) error {
	tables := []string{
		"user_completed_challenges",
		"user_ongoing_challenges",
		"user_created_challenges",
		"images",
		"videos",
		"challenges",
		"users",
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
