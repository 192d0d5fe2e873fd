//go:build integration

package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest) (testcontainers.Container, string, int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = container.Terminate(cleanupCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, req.ExposedPorts[0])
	require.NoError(t, err)

	port, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)
	return container, host, port
}

// StartPostgres はPostgreSQLを起動してマイグレーション済みの *gorm.DB を返す
func StartPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	_, host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "storefront",
			"POSTGRES_PASSWORD": "storefront",
			"POSTGRES_DB":       "storefront",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	})

	cfg := config.Config{
		GoEnv:            "prod",
		PostgresHost:     host,
		PostgresPort:     port,
		PostgresUser:     "storefront",
		PostgresPassword: "storefront",
		PostgresDB:       "storefront",
		PostgresSSLMode:  "disable",
	}
	gdb, err := db.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// StartRedis はRedisを起動して疎通確認済みのクライアントを返す
func StartRedis(t *testing.T) *redis.Client {
	t.Helper()

	_, host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	})

	client, err := cache.NewRedisClient(context.Background(), config.Config{
		RedisAddr: host + ":" + strconv.Itoa(port),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// StartRabbitMQ はRabbitMQを起動して接続を返す
func StartRabbitMQ(t *testing.T) *amqp.Connection {
	t.Helper()

	_, host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
	})

	url := "amqp://guest:guest@" + host + ":" + strconv.Itoa(port) + "/"
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
