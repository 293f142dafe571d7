package seed

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"talenthub/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/*.yaml
var fixturesFS embed.FS

// DefaultFixture is the embedded fixture used when no path is given.
const DefaultFixture = "fixtures/challenges.yaml"

// FixtureChallenge is one challenge entry of a fixture file.
type FixtureChallenge struct {
	Title              string `yaml:"title"`
	Brief              string `yaml:"brief"`
	ProjectDescription string `yaml:"project_description"`
	Prize              string `yaml:"prize"`
	DaysOpen           int    `yaml:"days_open"`
	Status             string `yaml:"status"`
	Description        struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"description"`
}

// Fixture is the YAML document loaded by LoadFixture.
type Fixture struct {
	Challenges []FixtureChallenge `yaml:"challenges"`
}

// LoadFixture reads a fixture from disk, or the embedded default when path
// is empty.
func LoadFixture(path string) (*Fixture, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = fs.ReadFile(fixturesFS, DefaultFixture)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes and checks a fixture document.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for i, c := range fx.Challenges {
		if c.Title == "" {
			return nil, fmt.Errorf("fixture challenge %d: title is required", i)
		}
		if _, err := decimal.NewFromString(c.Prize); err != nil {
			return nil, fmt.Errorf("fixture challenge %q: invalid prize %q", c.Title, c.Prize)
		}
		if c.Status != "" && !models.ChallengeStatus(c.Status).Valid() {
			return nil, fmt.Errorf("fixture challenge %q: invalid status %q", c.Title, c.Status)
		}
	}
	return &fx, nil
}

// ApplyFixture creates the fixture's challenges for creator. Challenges the
// creator already has with the same title are left alone, so reruns are safe.
func (f *Factory) ApplyFixture(fx *Fixture, creator *models.User) ([]models.Challenge, error) {
	out := make([]models.Challenge, 0, len(fx.Challenges))
	for _, item := range fx.Challenges {
		if !f.opts.DryRun {
			var existing models.Challenge
			err := f.db.Where("title = ? AND creator_id = ?", item.Title, creator.ID).First(&existing).Error
			if err == nil {
				out = append(out, existing)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}

		c, err := f.CreateChallenge(creator, func(c *models.Challenge) {
			c.Title = item.Title
			c.Brief = item.Brief
			c.ProjectDescription = item.ProjectDescription
			c.Prize = decimal.RequireFromString(item.Prize).Round(2)
			if item.DaysOpen > 0 {
				c.Deadline = time.Now().Add(time.Duration(item.DaysOpen) * 24 * time.Hour).UTC()
			}
			if item.Status != "" {
				c.Status = models.ChallengeStatus(item.Status)
			}
			c.Description = models.ChallengeDescription{
				Title:       item.Description.Title,
				Description: item.Description.Description,
			}
		})
		if err != nil {
			return nil, fmt.Errorf("create fixture challenge %q: %w", item.Title, err)
		}
		out = append(out, *c)
	}
	return out, nil
}
