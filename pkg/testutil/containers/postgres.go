//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"leadgate/migrations"
)

// PostgresContainer is a Postgres instance with the security_events schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:18-alpine",
		postgres.WithDatabase("leadgate_test"),
		postgres.WithUsername("leadgate"),
		postgres.WithPassword("leadgate_test_password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	// Shared through Manager; Ryuk reaps it on exit.
	fail := func(format string, args ...any) {
		_ = container.Terminate(ctx)
		t.Fatalf(format, args...)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=leadgate-it")
	if err != nil {
		fail("postgres dsn: %v", err)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		fail("open postgres: %v", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		fail("migrate: %v", err)
	}
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// migrate applies the embedded up migrations; fs.Glob returns them in
// lexical, hence version, order.
func migrate(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return err
	}
	for _, name := range files {
		stmt, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// ResetEvents empties security_events between tests.
func (p *PostgresContainer) ResetEvents(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE security_events"); err != nil {
		return fmt.Errorf("truncate security_events: %w", err)
	}
	return nil
}

// CountEvents counts stored rows, optionally restricted to one event type.
func (p *PostgresContainer) CountEvents(ctx context.Context, eventType string) (int, error) {
	query, args := "SELECT COUNT(*) FROM security_events", []any{}
	if eventType != "" {
		query, args = query+" WHERE event_type = $1", append(args, eventType)
	}
	var n int
	err := p.DB.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
