package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "972", cfg.CountryCode)
	assert.True(t, cfg.DuplicateCheck)
	assert.True(t, cfg.CollectPartySize)
	assert.True(t, cfg.CollectLikelihood)
	assert.Equal(t, 6, cfg.MaxPartySize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COUNTRY_CODE", "1")
	t.Setenv("DUPLICATE_CHECK", "false")
	t.Setenv("MAX_PARTY_SIZE", "10")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.CountryCode)
	assert.False(t, cfg.DuplicateCheck)
	assert.Equal(t, 10, cfg.MaxPartySize)
	assert.Equal(t, "sheet-123", cfg.GoogleSheetID)
}

func TestLoadRejectsBadCountryCode(t *testing.T) {
	t.Setenv("COUNTRY_CODE", "+972")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsZeroPartySize(t *testing.T) {
	t.Setenv("MAX_PARTY_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
}
