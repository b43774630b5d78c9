package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/common"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.NotContains(t, cfg.Database.Path, "$HOME")
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Server.Metrics)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Ledger.AllowNegativeBalances)
	assert.Equal(t, "Asia/Manila", cfg.Ledger.Location().String())
	assert.Empty(t, cfg.Ledger.FeeSchedule)
}

func TestLoad_Overrides(t *testing.T) {
	v := newViper()
	v.Set("database.driver", "POSTGRES")
	v.Set("database.dsn", "postgres://localhost/cashflow")
	v.Set("ledger.allow_negative_balances", false)
	v.Set("ledger.timezone", "UTC")
	v.Set("logging.format", "json")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.False(t, cfg.Ledger.AllowNegativeBalances)
	assert.Equal(t, time.UTC, cfg.Ledger.Location())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/ledger.db
ledger:
  allow_negative_balances: false
server:
  addr: 127.0.0.1:9000
`), 0600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
	assert.False(t, cfg.Ledger.AllowNegativeBalances)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		wantErr error
		set     map[string]any
		name    string
	}{
		{name: "unknown driver", set: map[string]any{"database.driver": "mysql"}, wantErr: common.ErrInvalidConfig},
		{name: "postgres without dsn", set: map[string]any{"database.driver": "postgres"}, wantErr: common.ErrMissingConfig},
		{name: "empty sqlite path", set: map[string]any{"database.path": ""}, wantErr: common.ErrMissingConfig},
		{name: "bad timezone", set: map[string]any{"ledger.timezone": "Mars/Olympus"}, wantErr: common.ErrInvalidConfig},
		{name: "bad log level", set: map[string]any{"logging.level": "chatty"}, wantErr: common.ErrInvalidConfig},
		{name: "bad log format", set: map[string]any{"logging.format": "xml"}, wantErr: common.ErrInvalidConfig},
		{name: "zero timeout", set: map[string]any{"server.request_timeout": "0s"}, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("CASHFLOW_TEST_DIR", "/srv/cashflow")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "ledger.db"), ExpandPath("~/ledger.db"))
	assert.Equal(t, "/srv/cashflow/ledger.db", ExpandPath("$CASHFLOW_TEST_DIR/ledger.db"))
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")

	t.Run("no credentials", func(t *testing.T) {
		_, err := LoadSheetsConfig(newViper())
		assert.Error(t, err)
	})

	t.Run("service account from viper", func(t *testing.T) {
		v := newViper()
		v.Set("sheets.service_account_path", "/etc/cashflow/sa.json")
		v.Set("sheets.spreadsheet_name", "Kiosk 3")

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "/etc/cashflow/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "Kiosk 3", cfg.SpreadsheetName)
		assert.Equal(t, "Asia/Manila", cfg.TimeZone)
	})

	t.Run("oauth from environment", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "token")

		cfg, err := LoadSheetsConfig(newViper())
		require.NoError(t, err)
		assert.Equal(t, "id", cfg.ClientID)
	})
}
