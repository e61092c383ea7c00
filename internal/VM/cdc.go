package VM

import (
	"strings"

	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// CaptureDataChangesMode selects what change-capture records contain.
type CaptureDataChangesMode int

const (
	CDCOff CaptureDataChangesMode = iota
	// CDCId records only the changed row's key.
	CDCId
	CDCBefore
	CDCAfter
	CDCFull
)

var cdcModeNames = []string{"off", "id", "before", "after", "full"}

func (m CaptureDataChangesMode) String() string {
	if m < 0 || int(m) >= len(cdcModeNames) {
		return "unknown"
	}
	return cdcModeNames[m]
}

func ParseCaptureDataChangesMode(s string) (CaptureDataChangesMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CDCOff, nil
	}
	for i, name := range cdcModeNames {
		if name == s {
			return CaptureDataChangesMode(i), nil
		}
	}
	return CDCOff, SVDB.Errorf(SVDB.SVDB_MISUSE, "unknown capture_data_changes mode %q", s)
}

func (m CaptureDataChangesMode) Enabled() bool { return m != CDCOff }

// HasBefore reports whether records carry the row image before the change.
func (m CaptureDataChangesMode) HasBefore() bool { return m == CDCBefore || m == CDCFull }

// HasAfter reports whether records carry the row image after the change.
func (m CaptureDataChangesMode) HasAfter() bool { return m == CDCAfter || m == CDCFull }
