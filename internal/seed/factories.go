// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"talenthub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every seeded account.
const DefaultPassword = "password123"

// SeedOptions tunes how a Factory builds records.
type SeedOptions struct {
	// SkipBcrypt stores a cheap hash so large seeds stay fast.
	SkipBcrypt bool
	// DryRun logs records instead of persisting them.
	DryRun bool
	// MaxDays bounds how far in the future generated deadlines fall.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hashed string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hashed != "" {
		return f.hashed, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", err
	}
	f.hashed = string(hashed)
	return f.hashed, nil
}

// CreateUser constructs and persists a sample user with the given role.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	person := gofakeit.Person()
	user := &models.User{
		Name:         person.FirstName + " " + person.LastName,
		Email:        fmt.Sprintf("%s.%d@%s", gofakeit.Username(), gofakeit.Number(1000, 9999), gofakeit.DomainName()),
		Password:     hashed,
		Number:       fmt.Sprintf("+1%03d%07d", gofakeit.Number(200, 999), gofakeit.Number(0, 9999999)),
		Role:         role,
		AdminRequest: models.AdminRequest{Status: models.AdminRequestNone},
	}
	if role != models.RoleUser {
		user.ProfilePicture = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s> role=%s", user.Name, user.Email, user.Role)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildChallenge constructs an open challenge for creator without saving it.
func (f *Factory) BuildChallenge(creator *models.User, overrides ...func(*models.Challenge)) *models.Challenge {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 60
	}
	deadline := time.Now().Add(time.Duration(1+f.rng.Intn(maxDays)) * 24 * time.Hour).UTC()

	product := gofakeit.AppName()
	challenge := &models.Challenge{
		Title:              fmt.Sprintf("%s %s", gofakeit.HackerVerb(), product),
		Deadline:           deadline,
		ContactEmail:       creator.Email,
		ProjectDescription: gofakeit.Paragraph(1, 3, 12, " "),
		Brief:              gofakeit.Sentence(12),
		Prize:              decimal.NewFromInt(int64(gofakeit.Number(1, 100) * 50)),
		Description: models.ChallengeDescription{
			Title:       product,
			Description: gofakeit.Sentence(20),
		},
		CreatorID: creator.ID,
		Status:    models.ChallengeStatusOpen,
	}
	if len(challenge.Title) > 100 {
		challenge.Title = challenge.Title[:100]
	}
	if len(challenge.Brief) > 250 {
		challenge.Brief = challenge.Brief[:250]
	}

	for _, override := range overrides {
		override(challenge)
	}
	return challenge
}

// CreateChallenge persists a challenge built by BuildChallenge. Admin-tier
// creators get it on their created list.
func (f *Factory) CreateChallenge(creator *models.User, overrides ...func(*models.Challenge)) (*models.Challenge, error) {
	challenge := f.BuildChallenge(creator, overrides...)

	if f.opts.DryRun {
		f.nextID++
		challenge.ID = f.nextID
		log.Printf("[dry-run] CreateChallenge: %q by %d", challenge.Title, creator.ID)
		return challenge, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Creator").Create(challenge).Error; err != nil {
			return err
		}
		if creator.IsAdmin() {
			return tx.Model(creator).Association(models.ListCreated).Append(challenge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// Join adds user to challenge as a participant and records it on the user's
// ongoing or completed list depending on the challenge status.
func (f *Factory) Join(user *models.User, challenge *models.Challenge) error {
	if f.opts.DryRun {
		return nil
	}
	list := models.ListOngoing
	if challenge.Status == models.ChallengeStatusCompleted {
		list = models.ListCompleted
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Challenge{}).Where("id = ?", challenge.ID).
			UpdateColumn("participants", gorm.Expr("participants + 1")).Error; err != nil {
			return err
		}
		return tx.Model(user).Association(list).Append(challenge)
	})
}
