// sv-upsert runs SQL scripts of CREATE TABLE, CREATE INDEX and
// INSERT ... ON CONFLICT DO UPDATE statements against an in-memory database
// and prints what they return.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/jessevdk/go-flags"

	"github.com/sqlvibe/upsertc/internal/QP"
	"github.com/sqlvibe/upsertc/internal/log"
	"github.com/sqlvibe/upsertc/pkg/sqlvibe"
)

const iniFilename = "sv-upsert.ini"

// Config is the top-level configuration object of sv-upsert.
type Config struct {
	Engine struct {
		CDC       string `long:"cdc" env:"CDC" default:"off" choice:"off" choice:"id" choice:"before" choice:"after" choice:"full" description:"Capture data changes into the CDC table"`
		CDCTable  string `long:"cdc-table" env:"CDC_TABLE" default:"sqlvibe_cdc" description:"Name of the CDC table"`
		StmtCache int    `long:"stmt-cache" env:"STMT_CACHE" default:"128" description:"Compiled statement cache size. Zero disables the cache"`
	} `group:"Engine" namespace:"engine" env-namespace:"ENGINE"`

	Output struct {
		Format  string   `long:"format" env:"FORMAT" default:"table" choice:"table" choice:"yaml" choice:"json" description:"Output format of RETURNING rows and dumps"`
		Explain bool     `long:"explain" env:"EXPLAIN" description:"Print the program of each INSERT before running it"`
		Dump    bool     `long:"dump" env:"DUMP" description:"Print every table after the scripts ran"`
		Schema  []string `long:"information-schema" description:"Print an information_schema view (tables, columns, table_constraints) after the scripts ran"`
	} `group:"Output"`

	Log log.LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`

	Args struct {
		Files []string `positional-arg-name:"FILE" description:"SQL scripts to run, in order. Standard input is read when none are given"`
	} `positional-args:"yes"`
}

func main() {
	var cfg Config
	var parser = flags.NewParser(&cfg, flags.Default)
	parser.EnvNamespace = "SV"
	parser.LongDescription = `sv-upsert runs SQL scripts statement by statement against an
in-memory database. Supported statements are CREATE TABLE, CREATE INDEX and
INSERT, including ON CONFLICT ... DO UPDATE clauses and RETURNING.

Configuration is read from ` + iniFilename + ` in the working directory or
~/.config/sqlvibe, then from SV_* environment variables, then from flags.`
	mustParseConfig(parser, iniFilename)

	if err := log.InitLog(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), &cfg, os.Stdin, os.Stdout); err != nil {
		log.WithFields(log.Fields{"err": err}).Fatal("sv-upsert failed")
	}
}

// mustParseConfig parses an optional INI file, then environment bindings
// and arguments. Unknown INI options are ignored.
func mustParseConfig(parser *flags.Parser, configName string) {
	var origOptions = parser.Options
	parser.Options |= flags.IgnoreUnknown

	var iniParser = flags.NewIniParser(parser)
	for _, prefix := range []string{
		".",
		filepath.Join(os.Getenv("HOME"), ".config", "sqlvibe"),
	} {
		var path = filepath.Join(prefix, configName)
		if err := iniParser.ParseFile(path); err == nil {
			break
		} else if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	parser.Options = origOptions
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		var flagErr, ok = err.(*flags.Error)
		if ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		// go-flags already printed the message.
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, stdin io.Reader, stdout io.Writer) error {
	db, err := sqlvibe.Open(sqlvibe.Config{
		CaptureDataChanges: cfg.Engine.CDC,
		CDCTable:           cfg.Engine.CDCTable,
		StmtCacheSize:      cfg.Engine.StmtCache,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	var out = NewFormatter(stdout, cfg.Output.Format)

	if len(cfg.Args.Files) == 0 {
		script, err := io.ReadAll(stdin)
		if err != nil {
			return errors.Wrap(err, "reading standard input")
		}
		if err := runScript(ctx, db, out, cfg, "<stdin>", string(script)); err != nil {
			return err
		}
	}
	for _, name := range cfg.Args.Files {
		script, err := os.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "reading %s", name)
		}
		if err := runScript(ctx, db, out, cfg, name, string(script)); err != nil {
			return err
		}
	}

	if cfg.Output.Dump {
		for _, table := range db.Tables() {
			rows, err := db.Rows(table)
			if err != nil {
				return err
			}
			if err := out.Format(table, rows); err != nil {
				return err
			}
		}
	}
	for _, view := range cfg.Output.Schema {
		rows, err := db.InformationSchema(view)
		if err != nil {
			return err
		}
		if err := out.Format("information_schema."+view, rows); err != nil {
			return err
		}
	}
	return nil
}

// runScript runs each statement of a script in turn, printing EXPLAIN
// listings and RETURNING rows as it goes.
func runScript(ctx context.Context, db *sqlvibe.Database, out *Formatter, cfg *Config, name, script string) error {
	texts, err := QP.SplitStatements(script)
	if err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	for i, text := range texts {
		var where = fmt.Sprintf("%s: statement %d", name, i+1)

		if cfg.Output.Explain {
			if stmt, err := QP.Parse(text); err == nil {
				if _, ok := stmt.(*QP.InsertStmt); ok {
					listing, err := db.Explain(text)
					if err != nil {
						return errors.Wrapf(err, "%s", where)
					}
					fmt.Fprintf(out.w, "%s\n%s", where, listing)
				}
			}
		}

		res, err := db.Exec(ctx, text)
		if err != nil {
			return errors.Wrapf(err, "%s", where)
		}
		log.WithFields(log.Fields{
			"statement": where,
			"changes":   res.RowsAffected,
		}).Debug("statement done")

		if res.Rows != nil {
			if err := out.Format(where, res.Rows); err != nil {
				return err
			}
		}
	}
	return nil
}
