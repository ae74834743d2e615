// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/accounts")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("MAIL_PORT", "2525")
	t.Setenv("APP_URL", "https://livro.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/accounts", cfg.Database.URL)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.Equal(t, "smtp.example.com:2525", cfg.Mail.Address())
	assert.Equal(t, "https://livro.example.com", cfg.App.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpire)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTokenExpire)
	assert.Equal(t, 30*time.Minute, cfg.JWT.RecoveryTokenExpire)
	assert.Equal(t, "/reset-password", cfg.Mail.RecoveryPath)
	assert.Equal(t, `"Account API" <no-reply@localhost>`, cfg.Mail.Sender())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/accounts")

	path := writeConfigFile(t, `
app:
  environment: staging
server:
  port: 9090
mail:
  host: mail.internal
  recovery_path: /alterar-senha
jwt:
  recovery_token_expire: 45m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, "mail.internal", cfg.Mail.Host)
	assert.Equal(t, "/alterar-senha", cfg.Mail.RecoveryPath)
	assert.Equal(t, 45*time.Minute, cfg.JWT.RecoveryTokenExpire)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"MAIL_HOST": "smtp.example.com"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "missing mail host",
			env:     map[string]string{"DATABASE_URL": "postgres://db"},
			wantErr: "MAIL_HOST is required",
		},
		{
			name: "relative app url",
			env: map[string]string{
				"DATABASE_URL": "postgres://db",
				"MAIL_HOST":    "smtp.example.com",
				"APP_URL":      "livro.example.com",
			},
			wantErr: "APP_URL must be an absolute URL",
		},
		{
			name: "invalid sender address",
			env: map[string]string{
				"DATABASE_URL":      "postgres://db",
				"MAIL_HOST":         "smtp.example.com",
				"MAIL_FROM_ADDRESS": "not-an-address",
			},
			wantErr: "MAIL_FROM_ADDRESS must be a valid email address",
		},
		{
			name: "wildcard origin with credentials",
			env: map[string]string{
				"DATABASE_URL": "postgres://db",
				"MAIL_HOST":    "smtp.example.com",
			},
			file: `
cors:
  allowed_origins: ["*"]
  allow_credentials: true
`,
			wantErr: "CORS wildcard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("MAIL_HOST", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
