package itf

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/mwaxman519/rishi-next-sub005/modules"
	"github.com/mwaxman519/rishi-next-sub005/pkg/application"
	"github.com/mwaxman519/rishi-next-sub005/pkg/composables"
	"github.com/mwaxman519/rishi-next-sub005/pkg/configuration"
	"github.com/mwaxman519/rishi-next-sub005/pkg/eventbus"
)

// TestFixtures bundles what a repository or service integration test needs:
// a dedicated database, a started transaction and a loaded application.
type TestFixtures struct {
	Pool    *pgxpool.Pool
	Context context.Context
	Tx      pgx.Tx
	App     application.Application
}

func NewPool(dbOpts string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	config, err := pgxpool.ParseConfig(dbOpts)
	if err != nil {
		panic(err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		panic(fmt.Errorf("failed to create database pool: %w", err))
	}
	return pool
}

const (
	// PostgreSQL caps identifiers at 63 bytes.
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

// sanitizeDBName turns a test name into a valid postgres database name,
// truncating with a hash suffix when the name is too long.
func sanitizeDBName(name string) string {
	sanitized := strings.ToLower(name)
	for _, ch := range []string{"/", " ", "-", ".", "(", ")", "[", "]"} {
		sanitized = strings.ReplaceAll(sanitized, ch, "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	hasher := sha256.New()
	hasher.Write([]byte(name))
	hash := fmt.Sprintf("%x", hasher.Sum(nil))[:8]
	return fmt.Sprintf("%s_%s", sanitized[:maxDBNameLength-hashSuffixLength], hash)
}

func CreateDB(name string) {
	sanitizedName := sanitizeDBName(name)

	c := configuration.Use()
	adminConnStr := fmt.Sprintf(
		"host=%s port=%s user=%s dbname=postgres password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
	)
	db, err := sql.Open("postgres", adminConnStr)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("[WARNING] Error closing CreateDB connection: %v", err)
		}
	}()
	if _, err := db.ExecContext(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", sanitizedName)); err != nil {
		panic(err)
	}
	if _, err := db.ExecContext(context.Background(), fmt.Sprintf("CREATE DATABASE %s", sanitizedName)); err != nil {
		panic(err)
	}
}

func DbOpts(name string) string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, sanitizeDBName(name), c.Database.Password,
	)
}

func SetupApplication(pool *pgxpool.Pool, mods ...application.Module) (application.Application, error) {
	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app, mods...); err != nil {
		return nil, err
	}
	if err := app.Migrations().Run(context.Background()); err != nil {
		return nil, err
	}
	return app, nil
}

// Setup provisions a per-test database with the schema applied and opens a
// transaction that is rolled back when the test finishes.
func Setup(t *testing.T, mods ...application.Module) *TestFixtures {
	t.Helper()

	CreateDB(t.Name())
	pool := NewPool(DbOpts(t.Name()))
	t.Cleanup(pool.Close)

	if len(mods) == 0 {
		mods = modules.BuiltInModules
	}
	app, err := SetupApplication(pool, mods...)
	if err != nil {
		t.Fatalf("failed to set up application: %v", err)
	}

	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithTx(ctx, tx)

	return &TestFixtures{
		Pool:    pool,
		Context: ctx,
		Tx:      tx,
		App:     app,
	}
}
