package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, EnginePostgres, cfg.Datastore.Engine)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.RequireForDeleteAll)
	assert.Equal(t, 2*time.Millisecond, cfg.Loader.Wait)
	assert.Equal(t, 64, cfg.PubSub.ListenerBuffer)
	assert.False(t, cfg.HTTP.TrustForwardedFor)
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("SECRET", "legacy-secret")
	t.Setenv("PORT", "8080")
	t.Setenv("DATASTORE_ENGINE", "MEMORY")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOADER_WAIT", "5ms")
	t.Setenv("AUTH_REQUIRE_FOR_DELETE_ALL", "false")
	t.Setenv("TRUST_FORWARDED_FOR", "true")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, EngineMemory, cfg.Datastore.Engine)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 5*time.Millisecond, cfg.Loader.Wait)
	assert.False(t, cfg.Auth.RequireForDeleteAll)
	assert.True(t, cfg.HTTP.TrustForwardedFor)
}

func TestFromViper_Invalid(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("SECRET", "")
		_, err := FromViper(viper.New())
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("unknown engine", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DATASTORE_ENGINE", "mongo")
		_, err := FromViper(viper.New())
		assert.ErrorContains(t, err, "unknown datastore engine")
	})
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	require.NoError(t, os.WriteFile(p, []byte("DB_DSN=from_file\n"), 0o644))

	t.Setenv("DB_DSN", "from_env")

	cwd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
}
