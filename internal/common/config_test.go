package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-role-key")
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequiredEnv(t)
		cfg := LoadConfig()

		assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
		assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
		assert.Equal(t, 2, cfg.Ingest.MaxRetries)
		assert.Equal(t, 2500*time.Millisecond, cfg.Ingest.RetrySleep)
		assert.Equal(t, "", cfg.Ingest.MetasStagingTable)
		assert.Equal(t, "Meta_Valores", cfg.Ingest.MetasPayloadColumn)
		assert.Equal(t, "logs", cfg.Ingest.LogDir)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("OPENAI_MODEL", "gpt-4o")
		t.Setenv("INGEST_MAX_RETRIES", "5")
		t.Setenv("INGEST_RETRY_SLEEP_SEC", "0.5")
		t.Setenv("METAS_STAGING_TABLE", "metas_staging")

		cfg := LoadConfig()
		assert.Equal(t, "gpt-4o", cfg.LLM.Model)
		assert.Equal(t, 5, cfg.Ingest.MaxRetries)
		assert.Equal(t, 500*time.Millisecond, cfg.Ingest.RetrySleep)
		assert.Equal(t, "metas_staging", cfg.Ingest.MetasStagingTable)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		setRequiredEnv(t)
		require.NoError(t, LoadConfig().Validate())
	})

	t.Run("missing required values are a config error", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("SUPABASE_KEY", "")

		err := LoadConfig().Validate()
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
		assert.Contains(t, err.Error(), "SUPABASE_KEY")
	})

	t.Run("negative retries rejected", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("INGEST_MAX_RETRIES", "-1")

		err := LoadConfig().Validate()
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}
