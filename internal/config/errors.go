package config

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCorruptConfig means the file exists but could not be parsed.
	ErrCorruptConfig = errors.New("config file is corrupt")
	// ErrLoadConfig means the file could not be located or read.
	ErrLoadConfig = errors.New("config file could not be loaded")
	// ErrUnregisteredExtension means an extension value has no registered kind.
	ErrUnregisteredExtension = errors.New("extension type is not registered")
	ErrUnknownKey            = errors.New("unknown setting key")
	ErrInvalidValue          = errors.New("invalid setting value")
)

// SaveOp is the stage at which a save failed.
type SaveOp string

const (
	SaveOpEncode SaveOp = "encode"
	SaveOpWrite  SaveOp = "write"
)

// SaveError describes a failed save. The in-memory configuration is still
// intact when one is returned.
type SaveError struct {
	Path       string
	Op         SaveOp
	Underlying error
	Timestamp  time.Time
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save config %s: %s: %v", e.Path, e.Op, e.Underlying)
}

func (e *SaveError) Unwrap() error {
	return e.Underlying
}
