package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "library.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Auth.TokenTTLHours)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
addr = ":9090"
cors_origins = ["https://example.com"]

[database]
path = "/tmp/lib.db"

[auth]
jwt_secret = "file-secret"
token_ttl_hours = 2
bcrypt_cost = 10
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/tmp/lib.db", cfg.Database.Path)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2, cfg.Auth.TokenTTLHours)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[auth]\njwt_secret = \"file-secret\"\n"), 0o600))

	t.Setenv("LIBRARY_JWT_SECRET", "env-secret")
	t.Setenv("LIBRARY_ADDR", ":7070")
	t.Setenv("LIBRARY_TOKEN_TTL_HOURS", "3")
	t.Setenv("LIBRARY_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Auth.TokenTTLHours)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Auth.TokenTTLHours = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Auth.BcryptCost = 100
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())
}
