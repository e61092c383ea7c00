package sqlvibe

import (
	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/VM"
)

const (
	DefaultCDCTable      = "sqlvibe_cdc"
	DefaultStmtCacheSize = 128
)

// Config configures a Database.
type Config struct {
	// CaptureDataChanges is one of off, id, before, after or full.
	CaptureDataChanges string
	CDCTable           string
	// StmtCacheSize bounds the compiled INSERT cache. Zero disables it.
	StmtCacheSize int
}

func DefaultConfig() Config {
	return Config{
		CaptureDataChanges: "off",
		CDCTable:           DefaultCDCTable,
		StmtCacheSize:      DefaultStmtCacheSize,
	}
}

func (c Config) cdcMode() (VM.CaptureDataChangesMode, error) {
	mode, err := VM.ParseCaptureDataChangesMode(c.CaptureDataChanges)
	if err != nil {
		return VM.CDCOff, err
	}
	if mode.Enabled() && c.CDCTable == "" {
		return VM.CDCOff, errors.New("capture_data_changes requires a CDC table name")
	}
	return mode, nil
}
