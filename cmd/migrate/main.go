// Command migrate applies and inspects the talenthub schema.
//
//	migrate apply            follow DB_SCHEMA_MODE (sql, auto or hybrid)
//	migrate up               run pending SQL migrations only
//	migrate status           show the schema plan with applied and pending versions
//	migrate verify           fail unless every table exists and no SQL migration is pending
//	migrate down <version>   roll back one SQL migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"talenthub/internal/config"
	"talenthub/internal/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// joinTables back the users' challenge lists and are not models of their own.
var joinTables = []string{
	"user_completed_challenges",
	"user_ongoing_challenges",
	"user_created_challenges",
}

var errUsage = errors.New("usage: migrate <apply|up|status|verify|down> [version]")

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal(errUsage)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("database handle: %v", err)
	}

	runErr := run(context.Background(), flag.Args(), cfg, db, os.Stdout)
	_ = sqlDB.Close()
	if runErr != nil {
		log.Fatal(runErr)
	}
}

func run(ctx context.Context, args []string, cfg *config.Config, db *gorm.DB, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	switch cmd := strings.ToLower(strings.TrimSpace(args[0])); cmd {
	case "apply":
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("apply schema (mode %s): %w", displayMode(cfg), err)
		}
		_, _ = fmt.Fprintf(out, "schema applied (mode %s)\n", displayMode(cfg))
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		_, _ = fmt.Fprintln(out, "sql migrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		printStatus(out, status)
	case "verify":
		return verify(ctx, db, cfg, out)
	case "down":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		_, _ = fmt.Fprintf(out, "rolled back migration %06d\n", version)
	default:
		return errUsage
	}
	return nil
}

func displayMode(cfg *config.Config) string {
	if mode := strings.TrimSpace(cfg.DBSchemaMode); mode != "" {
		return strings.ToLower(mode)
	}
	return database.SchemaModeHybrid
}

func printStatus(out io.Writer, status *database.SchemaStatus) {
	_, _ = fmt.Fprintf(out, "mode=%s env=%s sql=%t automigrate=%t\n",
		status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate)
	if !status.WillRunSQL {
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tNAME\tSTATE")
	pending := make(map[int]bool, len(status.PendingMigrations))
	for _, m := range status.PendingMigrations {
		pending[m.Version] = true
	}
	for _, m := range database.GetMigrations() {
		state := "applied"
		if pending[m.Version] {
			state = "pending"
		}
		_, _ = fmt.Fprintf(tw, "%06d\t%s\t%s\n", m.Version, m.Name, state)
	}
	_ = tw.Flush()
}

// verify checks that the tables behind users, challenges and uploads exist
// and, when SQL migrations are part of the plan, that none is pending.
func verify(ctx context.Context, db *gorm.DB, cfg *config.Config, out io.Writer) error {
	migrator := db.WithContext(ctx).Migrator()

	var missing []string
	for _, model := range database.PersistentModels() {
		if !migrator.HasTable(model) {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(model); err != nil {
				return fmt.Errorf("parse model: %w", err)
			}
			missing = append(missing, stmt.Schema.Table)
		}
	}
	for _, table := range joinTables {
		if !migrator.HasTable(table) {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}

	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	if n := len(status.PendingMigrations); n > 0 {
		return fmt.Errorf("%d sql migration(s) pending, first %06d_%s",
			n, status.PendingMigrations[0].Version, status.PendingMigrations[0].Name)
	}

	_, _ = fmt.Fprintln(out, "schema ok")
	return nil
}
