// Package backend selects and builds the sheet mirror the worker writes to.
package backend

import (
	"context"

	"spendwise/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// MirrorResult contains the mirror instance and optional cleanup function
type MirrorResult struct {
	Type    BackendType
	Mirror  sheets.ExpenseMirror
	Cleanup CleanupFunc
}

// Factory creates mirrors based on configuration
type Factory interface {
	CreateMirror(ctx context.Context, config Config) (*MirrorResult, error)
}

// BackendType represents the type of mirror backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
