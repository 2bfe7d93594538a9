package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeldesk/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	cfg := config.NewTestConfig()
	config.SetTestConfig(cfg)
	t.Cleanup(config.ResetConfig)

	out, err := execute(t, "token", "--user", "user-1", "--admin", "--ttl", "1h")
	require.NoError(t, err)

	raw := strings.TrimSpace(out)
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, true, claims["admin"])
}

func TestTokenCommand_RequiresUser(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	t.Cleanup(config.ResetConfig)
	tokenUser = ""

	_, err := execute(t, "token", "--user", "")
	assert.ErrorContains(t, err, "--user is required")
}

func TestMigrateDown_RejectsBadSteps(t *testing.T) {
	_, err := execute(t, "migrate", "down", "zero")
	assert.ErrorContains(t, err, "invalid step count")
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	})

	cfg := config.NewTestConfig()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	configureLogging(cfg)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.LogLevel = "loud"
	cfg.LogFormat = "text"
	configureLogging(cfg)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)
}
