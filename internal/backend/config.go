package backend

import (
	"errors"
	"fmt"

	goption "google.golang.org/api/option"

	"spendwise/internal/config"
)

// Config holds configuration for mirror creation
type Config struct {
	Type BackendType

	// Google Sheets specific
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	ClientOptions   []goption.ClientOption
}

// FromAppConfig picks the Sheets mirror when a spreadsheet is configured and
// the in-memory mirror otherwise.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	if appConfig.GoogleSpreadsheetID == "" {
		return Config{Type: MemoryBackend}, nil
	}
	return Config{
		Type:            SheetsBackend,
		SpreadsheetID:   appConfig.GoogleSpreadsheetID,
		SheetName:       appConfig.GoogleSheetName,
		CredentialsJSON: appConfig.GoogleServiceAccountJSON,
		CredentialsFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == SheetsBackend {
		if c.SpreadsheetID == "" {
			return errors.New("spreadsheet ID is required for sheets backend")
		}
		if c.CredentialsJSON == "" && c.CredentialsFile == "" && len(c.ClientOptions) == 0 {
			return errors.New("service account credentials are required for sheets backend")
		}
	}
	return nil
}
