package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "workflow_service", cfg.DB.Database)
	assert.Equal(t, "workflow-events", cfg.KafkaTopic)
	require.NoError(t, cfg.Validate())
}

func TestValidateProductionRequirements(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.AppEnv = "production"
	cfg.DB.Password = "secret"
	assert.Error(t, cfg.Validate(), "production needs an identity source")

	cfg.RoleDirectoryPath = "/etc/workflow/roles.yaml"
	assert.NoError(t, cfg.Validate())

	cfg.DB.Password = ""
	assert.Error(t, cfg.Validate())
}

func TestDatabaseURLEscapesPassword(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.DB.Password = "p@ss/word"
	assert.Contains(t, cfg.DatabaseURL(), "p%40ss%2Fword")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "kafka-1:9092,kafka-2:9092", cfg.KafkaBrokers)
}
