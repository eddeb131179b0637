// Package integration exercises the returns backend against a real
// PostgreSQL instance started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// One container can be shared across a package run; tests that write
// under random tenant ids are isolated enough to live side by side.
var sharedPG struct {
	sync.Mutex
	container testcontainers.Container
	dsn       string
}

// TestDB bundles a migrated database with the container backing it.
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB starts a dedicated PostgreSQL container, runs all
// migrations, and tears the container down when the test finishes.
// Use it for tests that mutate data across tenants.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	container, dsn := startPostgres(t, "retailbill_test")
	db, sqlDB := dial(t, dsn)
	applyMigrations(t, sqlDB)

	tdb := &TestDB{DB: db, SqlDB: sqlDB, Container: container, DSN: dsn, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// NewSharedTestDB hands out a connection to a package-wide container,
// starting it and migrating the schema on first use. Cleanup closes
// only the connection; CleanupSharedContainer stops the container.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedPG.Lock()
	if sharedPG.container == nil {
		container, dsn := startPostgres(t, "retailbill_shared_test")
		_, sqlDB := dial(t, dsn)
		applyMigrations(t, sqlDB)
		sqlDB.Close()

		sharedPG.container = container
		sharedPG.dsn = dsn
	}
	container, dsn := sharedPG.container, sharedPG.dsn
	sharedPG.Unlock()

	db, sqlDB := dial(t, dsn)
	t.Cleanup(func() { sqlDB.Close() })

	return &TestDB{DB: db, SqlDB: sqlDB, Container: container, DSN: dsn, t: t}
}

// CleanupSharedContainer stops the shared container. Call it from
// TestMain after m.Run.
func CleanupSharedContainer() {
	sharedPG.Lock()
	defer sharedPG.Unlock()

	if sharedPG.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sharedPG.container.Terminate(ctx)
	sharedPG.container = nil
	sharedPG.dsn = ""
}

// Close releases the connection and, for dedicated containers, stops
// the container as well.
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		tdb.SqlDB.Close()
	}

	sharedPG.Lock()
	isShared := tdb.Container == sharedPG.container
	sharedPG.Unlock()

	if tdb.Container != nil && !isShared {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("terminate container: %v", err)
		}
	}
}

// CleanTables truncates every public table except the migration
// bookkeeping, giving a test a blank slate on a shared database.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "list tables")

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			tdb.t.Logf("truncate %s: %v", table, err)
		}
	}
}

// WithTransaction runs fn inside a transaction that is always rolled
// back, so nothing fn writes outlives the call.
func (tdb *TestDB) WithTransaction(fn func(tx *gorm.DB)) {
	tdb.t.Helper()

	tx := tdb.DB.Begin()
	require.NoError(tdb.t, tx.Error, "begin transaction")
	defer tx.Rollback()

	fn(tx)
}

func startPostgres(t *testing.T, dbName string) (testcontainers.Container, string) {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "resolve connection string")

	return container, dsn
}

func dial(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	require.NoError(t, err, "connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "unwrap sql.DB")

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

func applyMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	path := locateMigrations()
	require.NotEmpty(t, path, "migrations directory not found")

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err, "create migration driver")

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	require.NoError(t, err, "create migrate instance")

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "apply migrations")
	}
}

// locateMigrations walks up from this file until it finds the
// migrations directory, falling back to paths relative to the
// working directory.
func locateMigrations() string {
	if _, filename, _, ok := runtime.Caller(0); ok {
		dir := filepath.Dir(filename)
		for i := 0; i < 5; i++ {
			candidate := filepath.Join(dir, "migrations")
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
			dir = filepath.Dir(dir)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, p := range []string{
		filepath.Join(wd, "migrations"),
		filepath.Join(wd, "..", "migrations"),
		filepath.Join(wd, "..", "..", "migrations"),
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
