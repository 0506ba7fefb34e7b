package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/curriculum-backend/internal/data/db"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	sqliteSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a fresh, migrated in-memory SQLite database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:curriculum_test_%d_%d?mode=memory&cache=shared&_foreign_keys=off",
		time.Now().UnixNano(), sqliteSeq.Add(1))
	gdb, err := db.NewSQLite(dsn, true)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// PostgresDB returns a shared migrated Postgres database from TEST_POSTGRES_DSN,
// or skips the test.
func PostgresDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	pgOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			pgErr = errMissingDSN
			return
		}
		pgDB, pgErr = openPostgres(dsn)
	})

	if errors.Is(pgErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run Postgres integration tests")
	}
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

// PostgresContainer starts a throwaway Postgres with testcontainers and
// returns a migrated connection. It skips when Docker is unavailable or -short is set.
func PostgresContainer(tb testing.TB) *gorm.DB {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping container test in -short mode")
	}
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return PostgresDB(tb)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := startPostgres(ctx)
	if err != nil {
		tb.Skipf("postgres container unavailable: %v", err)
	}
	tb.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		tb.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		tb.Fatalf("container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/curriculum?sslmode=disable", host, port.Port())
	gdb, err := openPostgres(dsn)
	if err != nil {
		tb.Fatalf("open container postgres: %v", err)
	}
	return gdb
}

// startPostgres recovers from the panic testcontainers raises when no Docker
// provider can be found.
func startPostgres(ctx context.Context) (c testcontainers.Container, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker provider: %v", r)
		}
	}()
	return testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "curriculum",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
}

func openPostgres(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
