//go:build integration

package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kboni/auth-server/internal/model"
	storage "github.com/kboni/auth-server/internal/storage/redis"
)

var addr string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		panic(err)
	}
	addr = fmt.Sprintf("%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestStagingStore_Redis(t *testing.T) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := storage.NewStagingStore(client, "it")

	require.NoError(t, s.Put(ctx, "a@b.com", "tok", 2*time.Second))
	got, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, "tok", got)

	require.Eventually(t, func() bool {
		_, err := s.Get(ctx, "a@b.com")
		return err == model.ErrNotFound
	}, 10*time.Second, 250*time.Millisecond)
}
