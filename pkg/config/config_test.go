package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/catalog-client/pkg/logging"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.List.PageSize)
	assert.Equal(t, "book_book", cfg.List.Collection)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
graphql:
  endpoint: https://catalog.example.com/v1/graphql
  admin_secret: hunter2
  timeout: 5s
list:
  page_size: 20
  collection: author_author
redis:
  enabled: true
  addr: redis:6379
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://catalog.example.com/v1/graphql", cfg.GraphQL.Endpoint)
	assert.Equal(t, "hunter2", cfg.GraphQL.AdminSecret)
	assert.Equal(t, 5*time.Second, cfg.GraphQL.Timeout)
	assert.Equal(t, "catalog-client/0.1.0", cfg.GraphQL.UserAgent, "unset fields keep defaults")
	assert.Equal(t, 20, cfg.List.PageSize)
	assert.Equal(t, "author_author", cfg.List.Collection)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "catalog:changed:book_book", cfg.Redis.Channel)

	logCfg := cfg.Logging()
	assert.Equal(t, logging.LevelDebug, logCfg.Level)
	assert.True(t, logCfg.Pretty)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_GRAPHQL_ENDPOINT", "http://env:8080/v1/graphql")
	t.Setenv("CATALOG_PAGE_SIZE", "3")
	t.Setenv("REDIS_URL", "env-redis:6379")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://env:8080/v1/graphql", cfg.GraphQL.Endpoint)
	assert.Equal(t, 3, cfg.List.PageSize)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "invalid yaml",
			file:   "graphql: [",
			errMsg: "parse config",
		},
		{
			name:   "zero page size",
			file:   "list:\n  page_size: 0\n",
			errMsg: "list.page_size must be > 0 (got 0)",
		},
		{
			name:   "unknown collection",
			file:   "list:\n  collection: film_film\n",
			errMsg: `list.collection must be book_book or author_author (got "film_film")`,
		},
		{
			name:   "unknown log level",
			file:   "log:\n  level: loud\n",
			errMsg: `log.level: unknown log level "loud"`,
		},
		{
			name:   "redis enabled without addr",
			file:   "redis:\n  enabled: true\n  addr: \"\"\n",
			errMsg: "redis.addr is required when redis is enabled",
		},
		{
			name:   "non-numeric page size env",
			env:    map[string]string{"CATALOG_PAGE_SIZE": "ten"},
			errMsg: "CATALOG_PAGE_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
