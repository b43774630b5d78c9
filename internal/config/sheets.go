package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/cashflow/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets configuration from v.
// It follows this precedence:
// 1. Viper configuration (from config file or CASHFLOW_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	pick := func(key, env string) string {
		if s := v.GetString(key); s != "" {
			return s
		}
		return os.Getenv(env)
	}

	config.ServiceAccountPath = ExpandPath(pick("sheets.service_account_path", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	config.ClientID = pick("sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID")
	config.ClientSecret = pick("sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET")
	config.RefreshToken = pick("sheets.refresh_token", "GOOGLE_SHEETS_REFRESH_TOKEN")
	config.SpreadsheetID = pick("sheets.spreadsheet_id", "GOOGLE_SHEETS_SPREADSHEET_ID")
	if name := pick("sheets.spreadsheet_name", "GOOGLE_SHEETS_SPREADSHEET_NAME"); name != "" {
		config.SpreadsheetName = name
	}
	if tz := v.GetString("ledger.timezone"); tz != "" {
		config.TimeZone = tz
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
