package CG

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// TestDataDriven runs the scripts under testdata. Commands:
//
//	ddl           apply CREATE statements
//	match         print which constraints each ON CONFLICT clause names
//	compile       compile an INSERT without running it
//	exec          compile and run an INSERT, printing RETURNING rows
//	rows table=t  dump a table as rowid, columns...
func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		db := &testDB{schema: IS.NewSchema(), store: DS.NewStore()}
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "ddl":
				stmts, err := QP.ParseScript(d.Input)
				if err != nil {
					return formatErr(err)
				}
				for _, stmt := range stmts {
					if err := db.apply(stmt); err != nil {
						return formatErr(err)
					}
				}
				return "ok\n"

			case "match":
				ins := parseInsert(t, d.Input)
				tbl, ok := db.schema.GetTable(ins.Table)
				if !ok {
					d.Fatalf(t, "no table %s", ins.Table)
				}
				var sb strings.Builder
				for i, u := range ins.Upserts {
					fmt.Fprintf(&sb, "clause %d: pk=%t", i, UpsertMatchesPK(u, tbl))
					for _, idx := range db.schema.TableIndexes(tbl.Name) {
						fmt.Fprintf(&sb, " %s=%t", idx.Name, UpsertMatchesIndex(u, idx, tbl))
					}
					sb.WriteByte('\n')
				}
				return sb.String()

			case "compile":
				if _, err := db.compile(t, d.Input); err != nil {
					return formatErr(err)
				}
				return "ok\n"

			case "exec":
				vm, err := db.insert(t, d.Input)
				if err != nil {
					return formatErr(err)
				}
				return formatRows(vm.Results()) + fmt.Sprintf("changes: %d\n", vm.Changes())

			case "rows":
				var table string
				d.ScanArgs(t, "table", &table)
				return formatRows(db.rows(t, table))

			default:
				d.Fatalf(t, "unknown command %s", d.Cmd)
				return ""
			}
		})
	})
}

func formatErr(err error) string {
	return fmt.Sprintf("error (%s): %s\n", SVDB.ErrorCodeOf(err), err)
}
