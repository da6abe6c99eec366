package repository

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nesi-market/nesi/internal/migrations"
	"github.com/nesi-market/nesi/internal/models"
)

var testStorage *Storage

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("nesi"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %s", err)
	}

	code, err := runWithStorage(ctx, m, pgContainer)
	if termErr := pgContainer.Terminate(ctx); termErr != nil {
		log.Printf("failed to terminate container: %s", termErr)
	}
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func runWithStorage(ctx context.Context, m *testing.M, pgContainer *postgres.PostgresContainer) (int, error) {
	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return 0, err
	}
	storage, err := New(dsn)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = storage.Close()
	}()

	path, err := filepath.Abs(filepath.Join("..", "..", "..", "migrations"))
	if err != nil {
		return 0, err
	}
	if err := migrations.Run(storage.DB, path); err != nil {
		return 0, err
	}
	testStorage = storage
	return m.Run(), nil
}

// setupStorage возвращает общее хранилище с очищенными таблицами пользователей, задач и уведомлений.
func setupStorage(t *testing.T) *Storage {
	t.Helper()
	if testStorage == nil {
		t.Skip("skipping postgres integration test in short mode")
	}
	_, err := testStorage.DB.Exec(`TRUNCATE notifications, tasks, users CASCADE`)
	require.NoError(t, err, "failed to truncate tables")
	return testStorage
}

// testDataFactory создаёт тестовые данные напрямую через SQL.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

func (f *testDataFactory) createUser(t *testing.T, role models.Role, level int) string {
	t.Helper()
	name := "user_" + uuid.NewString()[:8]
	var uid string
	err := f.storage.DB.QueryRow(
		`INSERT INTO users (email, username, password_hash, role, level)
		 VALUES ($1, $2, 'hash', $3, $4) RETURNING uid`,
		name+"@example.com", name, string(role), level,
	).Scan(&uid)
	require.NoError(t, err)
	return uid
}

func (f *testDataFactory) blockUser(t *testing.T, uid string) {
	t.Helper()
	_, err := f.storage.DB.Exec(`UPDATE users SET blocked = true WHERE uid = $1`, uid)
	require.NoError(t, err)
}

func (f *testDataFactory) createTask(t *testing.T, customerUID string, executorUID *string, status models.TaskStatus) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(
		`INSERT INTO tasks (customer_id, executor_id, title, price, status)
		 VALUES ($1, $2, $3, 100000, $4) RETURNING id`,
		customerUID, executorUID, fmt.Sprintf("task %s", status), string(status),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createNotification(t *testing.T, userUID string, typ models.NotificationType, createdAt time.Time) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(
		`INSERT INTO notifications (user_id, type, title, created_at)
		 VALUES ($1, $2, 'title', $3) RETURNING id`,
		userUID, string(typ), createdAt,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
