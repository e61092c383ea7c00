// Package driver registers sqlvibe as a Go database/sql driver under the
// name "sqlvibe".
//
// Import it for its side effects and open a database with sql.Open:
//
//	import _ "github.com/sqlvibe/upsertc/driver"
//
//	db, err := sql.Open("sqlvibe", "inventory?cdc=full&stmt_cache=64")
//
// The part of the DSN before "?" names an in-memory database shared by every
// connection opened with that name in the process. Options:
//
//	cdc         off, id, before, after or full
//	cdc_table   name of the change capture table
//	stmt_cache  compiled statement cache size, 0 to disable
package driver

import (
	"database/sql"
	gosqldriver "database/sql/driver"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/pkg/sqlvibe"
)

// DriverName is the name used to register the sqlvibe driver with database/sql.
const DriverName = "sqlvibe"

func init() {
	sql.Register(DriverName, &Driver{})
}

// Driver implements database/sql/driver.Driver.
type Driver struct {
	mu  sync.Mutex
	dbs map[string]*sqlvibe.Database
}

// Open returns a connection to the named database, creating it on first
// use. Options only take effect when the database is created.
func (d *Driver) Open(dsn string) (gosqldriver.Conn, error) {
	name, cfg, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if db, ok := d.dbs[name]; ok {
		return &Conn{db: db}, nil
	}
	db, err := sqlvibe.Open(cfg)
	if err != nil {
		return nil, err
	}
	if d.dbs == nil {
		d.dbs = make(map[string]*sqlvibe.Database)
	}
	d.dbs[name] = db
	return &Conn{db: db}, nil
}

func parseDSN(dsn string) (string, sqlvibe.Config, error) {
	cfg := sqlvibe.DefaultConfig()
	name, query, _ := strings.Cut(dsn, "?")
	opts, err := url.ParseQuery(query)
	if err != nil {
		return "", cfg, errors.Wrapf(err, "invalid DSN %q", dsn)
	}
	for key, vals := range opts {
		val := vals[len(vals)-1]
		switch key {
		case "cdc":
			cfg.CaptureDataChanges = val
		case "cdc_table":
			cfg.CDCTable = val
		case "stmt_cache":
			if cfg.StmtCacheSize, err = strconv.Atoi(val); err != nil {
				return "", cfg, errors.Wrapf(err, "invalid stmt_cache %q", val)
			}
		default:
			return "", cfg, errors.Newf("unknown DSN option %q", key)
		}
	}
	return name, cfg, nil
}

// Ensure Driver implements driver.Driver.
var _ gosqldriver.Driver = &Driver{}
