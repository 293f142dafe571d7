package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"talenthub/internal/config"
	"talenthub/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// statusRows maps version to state from the status table.
func statusRows(out string) map[string]string {
	rows := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 3 && fields[0] != "VERSION" {
			rows[fields[0]+"_"+fields[1]] = fields[2]
		}
	}
	return rows
}

func TestRun_Usage(t *testing.T) {
	db := openTestDB(t)
	cfg := &config.Config{Env: "test"}
	ctx := context.Background()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no command", nil, errUsage.Error()},
		{"unknown command", []string{"sideways"}, errUsage.Error()},
		{"down without version", []string{"down"}, "usage: migrate down <version>"},
		{"down with bad version", []string{"down", "latest"}, `invalid version "latest"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(ctx, tt.args, cfg, db, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_StatusReportsAppliedAndPending(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&database.MigrationLog{}))
	require.NoError(t, db.Create(&database.MigrationLog{Version: 1, Name: "init"}).Error)

	var out bytes.Buffer
	cfg := &config.Config{Env: "test", DBSchemaMode: database.SchemaModeSQL}
	require.NoError(t, run(context.Background(), []string{"status"}, cfg, db, &out))

	assert.Contains(t, out.String(), "mode=sql env=test sql=true automigrate=false")
	rows := statusRows(out.String())
	assert.Equal(t, "applied", rows["000001_init"])
	assert.Equal(t, "pending", rows["000002_challenge_search"])
}

func TestRun_StatusAutoModeHasNoTable(t *testing.T) {
	db := openTestDB(t)
	var out bytes.Buffer
	cfg := &config.Config{Env: "test", DBSchemaMode: "AUTO"}
	require.NoError(t, run(context.Background(), []string{"status"}, cfg, db, &out))

	assert.Equal(t, "mode=auto env=test sql=false automigrate=true\n", out.String())
}

func TestRun_ApplyAutoThenVerify(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cfg := &config.Config{Env: "test", DBSchemaMode: database.SchemaModeAuto}

	err := run(ctx, []string{"verify"}, cfg, db, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing tables: users, challenges, images, videos")
	assert.Contains(t, err.Error(), "user_created_challenges")

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"apply"}, cfg, db, &out))
	assert.Equal(t, "schema applied (mode auto)\n", out.String())

	out.Reset()
	require.NoError(t, run(ctx, []string{"verify"}, cfg, db, &out))
	assert.Equal(t, "schema ok\n", out.String())
}

func TestRun_VerifyFlagsPendingSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{Env: "test", DBSchemaMode: database.SchemaModeSQL}
	err := run(ctx, []string{"verify"}, cfg, db, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, "2 sql migration(s) pending, first 000001_init", err.Error())
}

func TestRun_ApplyRefusesAutoInProduction(t *testing.T) {
	db := openTestDB(t)
	cfg := &config.Config{Env: "production", DBSchemaMode: database.SchemaModeAuto}

	err := run(context.Background(), []string{"apply"}, cfg, db, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply schema (mode auto)")
	assert.Contains(t, err.Error(), "refusing DB_SCHEMA_MODE=auto")
}
