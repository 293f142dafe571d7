// Command main runs the database seeder for TalentHub.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"talenthub/internal/bootstrap"
	"talenthub/internal/config"
	"talenthub/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 30, "Number of plain users to create")
	numAdmins := flag.Int("admins", 3, "Number of admins to create")
	numChallenges := flag.Int("challenges", 20, "Number of generated challenges")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixture := flag.String("fixture", "", "YAML fixture with showcase challenges (default: embedded)")
	noFixture := flag.Bool("no-fixture", false, "Skip the showcase fixture")
	fast := flag.Bool("fast", false, "Use the minimum bcrypt cost for seeded passwords")
	dryRun := flag.Bool("dry-run", false, "Log records instead of writing them")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	_, err = seed.Seed(rt.DB, seed.Options{
		NumUsers:      *numUsers,
		NumAdmins:     *numAdmins,
		NumChallenges: *numChallenges,
		ShouldClean:   *shouldClean,
		FixturePath:   *fixture,
		SkipFixture:   *noFixture,
		Factory: seed.SeedOptions{
			SkipBcrypt: *fast,
			DryRun:     *dryRun,
		},
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
