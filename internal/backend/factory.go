package backend

import (
	"context"
	"fmt"

	applog "spendwise/internal/log"
	gsheet "spendwise/internal/sheets/google"
	"spendwise/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentSheets),
	}
}

// CreateMirror implements Factory.CreateMirror
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (*MirrorResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsMirror(ctx, config)
	case MemoryBackend:
		return f.createMemoryMirror()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsMirror(ctx context.Context, config Config) (*MirrorResult, error) {
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.SpreadsheetID,
		SheetName:       config.SheetName,
		CredentialsJSON: config.CredentialsJSON,
		CredentialsFile: config.CredentialsFile,
		ClientOptions:   config.ClientOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets mirror",
		"spreadsheet_id", config.SpreadsheetID,
		"sheet", config.SheetName)

	return &MirrorResult{Type: SheetsBackend, Mirror: client}, nil
}

func (f *DefaultFactory) createMemoryMirror() (*MirrorResult, error) {
	f.logger.Info("Initialized memory mirror")
	return &MirrorResult{Type: MemoryBackend, Mirror: memory.New()}, nil
}
