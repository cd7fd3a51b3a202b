package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.json5"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettingsJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json5")
	content := `{
	// Identité
	companyName: "Transports Ndjock",
	niu: "M0123456789",
	defaultTva: 19.25,
	defaultTps: 2.2,
	paymentTermsDays: 45,
	cashOpeningBalance: 150000,
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "Transports Ndjock", settings.CompanyName)
	assert.Equal(t, "M0123456789", settings.NIU)
	assert.Equal(t, 2.2, settings.DefaultTPS)
	assert.Equal(t, 45, settings.PaymentTermsDays)
	assert.Equal(t, 150000.0, settings.CashOpeningBalance)
	assert.Equal(t, "FAC", settings.InvoicePrefix)
	assert.Equal(t, "FCFA", settings.Currency)
}

func TestLoadSettingsRejectsBadRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{defaultTva: 120}`), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "oracle")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("SMTP_ALERT_RECIPIENTS", "a@x.cm, b@x.cm")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"a@x.cm", "b@x.cm"}, cfg.SMTP.AlertRecipients)
}
