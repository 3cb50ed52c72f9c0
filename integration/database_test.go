//go:build database

package integration

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// execInContainer runs a command inside the container and fails the test on a non-zero exit.
func execInContainer(t *testing.T, ctx context.Context, c testcontainers.Container, cmd ...string) {
	t.Helper()
	code, reader, err := c.Exec(ctx, cmd)
	require.NoError(t, err)
	if code != 0 {
		out, _ := io.ReadAll(reader)
		t.Fatalf("%v exited with %d: %s", cmd, code, out)
	}
}

// exerciseStores runs the commands touching both stores against the configured backends.
func exerciseStores(t *testing.T) {
	dir := t.TempDir()
	grades := writeFile(t, dir, "grades.txt", "10\n12\n14\n16\n18\n")

	runCoursekit(t, dir, "cache", "clear")
	runCoursekit(t, dir, "ledger", "clear")
	runCoursekit(t, dir, "ledger", "migrate")

	runCoursekit(t, dir, "thresholds", grades, "--thresholds", "A:0.5,F:0", "--record")
	runCoursekit(t, dir, "thresholds", grades, "--record", "--output", "csv")

	status := runCoursekit(t, dir, "ledger", "status")
	assert.Contains(t, status, "Connected: true")
	assert.Contains(t, status, "Total Runs: 2")
	assert.Contains(t, status, "coursekit_threshold_cutoffs: 10 rows")

	export := runCoursekit(t, dir, "ledger", "export", "--output-file", dir+"/ledger")
	assert.Contains(t, export, "Exported 2 runs")
	assert.FileExists(t, dir+"/ledger.threshold_cutoffs.parquet")

	cache := runCoursekit(t, dir, "cache", "status")
	assert.Contains(t, cache, "Connected: true")

	token := runCoursekit(t, dir, "auth", "status")
	assert.Contains(t, token, "Token Present: false")
}

// TestCoursekitWithMySQL tests the coursekit CLI with a MySQL backend.
func TestCoursekitWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "coursekit",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// The cache and the ledger must live in different databases
	execInContainer(t, ctx, mysqlC, "mysql", "-uroot", "-psecret123", "-e", "CREATE DATABASE coursekit_ledger")

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	dsn := "root:secret123@tcp(%s:%s)/%s?parseTime=true"
	t.Setenv("COURSEKIT_CACHE_BACKEND", "mysql")
	t.Setenv("COURSEKIT_CACHE_DB_CONNECT", fmt.Sprintf(dsn, host, port.Port(), "coursekit"))
	t.Setenv("COURSEKIT_LEDGER_BACKEND", "mysql")
	t.Setenv("COURSEKIT_LEDGER_DB_CONNECT", fmt.Sprintf(dsn, host, port.Port(), "coursekit_ledger"))

	exerciseStores(t)
}

// TestCoursekitWithPostgres tests the coursekit CLI with a PostgreSQL backend.
func TestCoursekitWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	execInContainer(t, ctx, pgC, "psql", "-U", "postgres", "-c", "CREATE DATABASE coursekit_ledger")

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "host=%s port=%s user=postgres dbname=%s"
	t.Setenv("COURSEKIT_CACHE_BACKEND", "postgresql")
	t.Setenv("COURSEKIT_CACHE_DB_CONNECT", fmt.Sprintf(dsn, host, port.Port(), "postgres"))
	t.Setenv("COURSEKIT_LEDGER_BACKEND", "postgresql")
	t.Setenv("COURSEKIT_LEDGER_DB_CONNECT", fmt.Sprintf(dsn, host, port.Port(), "coursekit_ledger"))

	exerciseStores(t)
}
