package helper

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabase = "database"
	testUsername = "user"
	testPassword = "password"
)

// MustStartPostgresContainer starts a pgvector-enabled PostgreSQL
// container for tests and returns a teardown function together with
// the mapped port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg17",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUsername),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", err
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container.Terminate, "", err
	}

	return container.Terminate, port.Port(), nil
}

// SetTestDatabaseConfigEnvs sets the database envs to the test
// container values for the duration of the test.
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", port)
	t.Setenv("DB_DATABASE", testDatabase)
	t.Setenv("DB_USERNAME", testUsername)
	t.Setenv("DB_PASSWORD", testPassword)
	t.Setenv("DB_SCHEMA", "public")
	t.Setenv("DB_SSLMODE", "disable")
}

// NewTestDatabase connects to the test container with a quieter logger
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	opts := PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelWarn,
		},
	}
	logger := slog.New(NewPrettyHandler(os.Stdout, opts))

	return NewDatabase("docuquery-test", config, logger)
}
