package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"STORE_DRIVER", "STORE_URI", "STORE_DB", "PORT", "GRPC_ADDR",
	"APP_ENV", "LOG_LEVEL", "STALE_AFTER", "SWEEP_INTERVAL",
}

// clearEnv unsets the override variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_Load_Shipped_File(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	cfg, err := Load("config.yaml")
	req.NoError(err)
	req.Equal(":5000", cfg.HTTP.Addr)
	req.Equal(DriverPostgres, cfg.Storage.Driver)
	req.Equal("chat", cfg.Storage.Database)
	req.Equal(10*time.Second, cfg.Chat.StaleAfter)
	req.Equal(1500*time.Millisecond, cfg.Chat.SweepInterval)
	req.Equal("Todos", cfg.Chat.Broadcast)
	req.Equal("15:04:05", cfg.Chat.TimeLayout)
}

func Test_Load_Missing_File_Uses_Env_And_Defaults(t *testing.T) {
	req := require.New(t)
	clearEnv(t)
	t.Setenv("STORE_URI", "postgres://u:p@db:5432/x")
	t.Setenv("STORE_DB", "chatroom")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	req.NoError(err)
	req.Equal(":5000", cfg.HTTP.Addr)
	req.Empty(cfg.GRPC.Addr)
	req.Equal("postgres://u:p@db:5432/x", cfg.Storage.URI)
	req.Equal("chatroom", cfg.Storage.Database)
	req.Equal("chatroom", cfg.Logging.Service)
	req.Equal(10*time.Second, cfg.Chat.StaleAfter)
}

func Test_Env_Overrides_File(t *testing.T) {
	req := require.New(t)
	clearEnv(t)
	path := writeFile(t, `
storage:
  driver: postgres
  uri: postgres://file
  database: filedb
chat:
  staleAfter: 30s
`)
	t.Setenv("STORE_DRIVER", "badger")
	t.Setenv("STORE_URI", "/var/lib/chat")
	t.Setenv("PORT", "8080")
	t.Setenv("STALE_AFTER", "3s")

	cfg, err := Load(path)
	req.NoError(err)
	req.Equal(DriverBadger, cfg.Storage.Driver)
	req.Equal("/var/lib/chat", cfg.Storage.URI)
	req.Equal("filedb", cfg.Storage.Database)
	req.Equal(":8080", cfg.HTTP.Addr)
	req.Equal(3*time.Second, cfg.Chat.StaleAfter)
}

func Test_Validate_Rejects_Incomplete_Storage(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "storage:\n  driver: postgres\n  uri: postgres://x\n"))
	require.ErrorContains(t, err, "storage.database")

	_, err = Load(writeFile(t, "storage:\n  driver: badger\n"))
	require.ErrorContains(t, err, "storage.uri")

	_, err = Load(writeFile(t, "storage:\n  driver: mongo\n  uri: x\n"))
	require.ErrorContains(t, err, "not supported")

	_, err = Load(writeFile(t, "storage:\n  driver: badger\n  inMemory: true\n  database: chat:p\n"))
	require.ErrorContains(t, err, "must not contain ':'")

	cfg, err := Load(writeFile(t, "storage:\n  driver: badger\n  inMemory: true\n"))
	require.NoError(t, err)
	require.True(t, cfg.Storage.InMemory)
}

func Test_Load_Rejects_Malformed_Yaml(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "http: [unterminated"))
	require.Error(t, err)
}
