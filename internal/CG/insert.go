package CG

import (
	"strings"

	"github.com/sqlvibe/upsertc/internal/IS"
	"github.com/sqlvibe/upsertc/internal/QP"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
	"github.com/sqlvibe/upsertc/internal/VM"
	"github.com/sqlvibe/upsertc/internal/log"
)

// ColMapping binds a table column to the register holding its pending
// value.
type ColMapping struct {
	Name         string
	ColumnIndex  int
	Register     int
	Collation    string
	IsRowidAlias bool
}

// Insertion describes the registers of a row about to be inserted: its key
// and one register per table column, in table order.
type Insertion struct {
	KeyRegister int
	RecordStart int
	ColMappings []ColMapping
}

// GetColMappingByName finds a column's mapping, ignoring case.
func (ins *Insertion) GetColMappingByName(name string) (*ColMapping, bool) {
	for i := range ins.ColMappings {
		if strings.EqualFold(ins.ColMappings[i].Name, name) {
			return &ins.ColMappings[i], true
		}
	}
	return nil, false
}

type insertCompilation struct {
	*Compiler
	b          *VM.ProgramBuilder
	stmt       *QP.InsertStmt
	table      *IS.Table
	indexes    []*IS.Index
	tgt        *UpsertTarget
	valueIndex []int // table column -> position in a VALUES row, or -1
	rowidValue int   // position of an explicit rowid in a VALUES row, or -1

	// Unique indexes in check order.
	targetChecks []int
	otherChecks  []int
}

// CompileInsert compiles INSERT ... [ON CONFLICT ...] [RETURNING ...].
func (c *Compiler) CompileInsert(stmt *QP.InsertStmt) (*VM.Program, error) {
	table, ok := c.schema.GetTable(stmt.Table)
	if !ok {
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "no such table: %s", stmt.Table)
	}
	switch strings.ToUpper(stmt.OrAction) {
	case "", "ABORT":
	default:
		return nil, SVDB.Errorf(SVDB.SVDB_ERROR, "INSERT OR %s is not supported", strings.ToUpper(stmt.OrAction))
	}

	ic := &insertCompilation{
		Compiler: c,
		b:        c.newBuilder(),
		stmt:     stmt,
		table:    table,
		indexes:  c.schema.TableIndexes(table.Name),
	}
	if err := ic.mapColumns(); err != nil {
		return nil, err
	}
	if err := ic.checkUpserts(); err != nil {
		return nil, err
	}
	ic.openCursors()
	if len(stmt.Returning) > 0 {
		ic.b.SetResultColumns(ReturningColumnNames(table, stmt.Returning))
	}

	rows := stmt.Values
	if stmt.UseDefaults {
		rows = [][]QP.Expr{nil}
	}
	for _, row := range rows {
		if err := ic.compileRow(row); err != nil {
			return nil, err
		}
	}

	prog, err := ic.b.Build()
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"table":   table.Name,
		"rows":    len(rows),
		"upserts": len(stmt.Upserts),
		"insns":   prog.Len(),
	}).Debug("compiled insert")
	return prog, nil
}

// mapColumns resolves the column list against the table.
func (ic *insertCompilation) mapColumns() error {
	t := ic.table
	ic.valueIndex = make([]int, len(t.Columns))
	ic.rowidValue = -1
	if len(ic.stmt.Columns) == 0 {
		for i := range ic.valueIndex {
			ic.valueIndex[i] = i
		}
		for _, row := range ic.stmt.Values {
			if len(row) != len(t.Columns) {
				return SVDB.Errorf(SVDB.SVDB_ERROR, "table %s has %d columns but %d values were supplied",
					t.Name, len(t.Columns), len(row))
			}
		}
		return nil
	}

	for i := range ic.valueIndex {
		ic.valueIndex[i] = -1
	}
	for pos, name := range ic.stmt.Columns {
		if i, _, ok := t.GetColumnByName(name); ok {
			ic.valueIndex[i] = pos
			continue
		}
		if t.IsRowidRef(name) {
			ic.rowidValue = pos
			continue
		}
		return SVDB.Errorf(SVDB.SVDB_ERROR, "table %s has no column named %s", t.Name, name)
	}
	for _, row := range ic.stmt.Values {
		if len(row) != len(ic.stmt.Columns) {
			return SVDB.Errorf(SVDB.SVDB_ERROR, "%d values for %d columns", len(row), len(ic.stmt.Columns))
		}
	}
	return nil
}

// checkUpserts rejects clauses that can never fire and orders the unique
// index checks.
func (ic *insertCompilation) checkUpserts() error {
	for _, u := range ic.stmt.Upserts {
		if u.Do.Nothing {
			return SVDB.NewError(SVDB.SVDB_ERROR, "ON CONFLICT DO NOTHING is not supported")
		}
		if u.Index == nil {
			continue
		}
		if !upsertMatchesAny(u, ic.table, ic.indexes) {
			return SVDB.NewError(SVDB.SVDB_ERROR, "ON CONFLICT clause does not match any PRIMARY KEY or UNIQUE constraint")
		}
	}

	for i, idx := range ic.indexes {
		if !idx.Unique {
			continue
		}
		targeted := false
		for _, u := range ic.stmt.Upserts {
			if u.Index != nil && upsertMatchesConstraint(u, idx, ic.table) {
				targeted = true
				break
			}
		}
		if targeted {
			ic.targetChecks = append(ic.targetChecks, i)
		} else {
			ic.otherChecks = append(ic.otherChecks, i)
		}
	}
	return nil
}

func (ic *insertCompilation) openCursors() {
	b := ic.b
	ic.tgt = &UpsertTarget{
		Schema:    ic.schema,
		Table:     ic.table,
		CDCCursor: -1,
		Returning: ic.stmt.Returning,
	}
	ic.tgt.TableCursor = b.AllocCursor(VM.CursorTable, ic.table.Name)
	b.EmitOpenWrite(ic.tgt.TableCursor)
	for _, idx := range ic.indexes {
		cur := b.AllocCursor(VM.CursorIndex, idx.Name)
		b.EmitOpenWrite(cur)
		ic.tgt.IndexCursors = append(ic.tgt.IndexCursors, IndexCursor{Name: idx.Name, Cursor: cur})
	}
	if ic.opts.CaptureDataChanges.Enabled() && ic.opts.CDCTable != "" &&
		!strings.EqualFold(ic.opts.CDCTable, ic.table.Name) {
		ic.tgt.CDCCursor = b.AllocCursor(VM.CursorTable, ic.opts.CDCTable)
		b.EmitOpenWrite(ic.tgt.CDCCursor)
	}
}

// compileRow emits the insert of one VALUES row, or of an all-defaults row
// when row is nil.
func (ic *insertCompilation) compileRow(row []QP.Expr) error {
	b, t := ic.b, ic.table
	n := len(t.Columns)
	rowDone := b.AllocateLabel()

	rowidReg := b.AllocRegister()
	colStart := b.AllocRegisters(n)
	ins := &Insertion{KeyRegister: rowidReg, RecordStart: colStart}

	aliasIdx, _, hasAlias := t.RowidAlias()
	for i, col := range t.Columns {
		reg := colStart + i
		ins.ColMappings = append(ins.ColMappings, ColMapping{
			Name:         col.Name,
			ColumnIndex:  i,
			Register:     reg,
			Collation:    col.Collation,
			IsRowidAlias: col.IsRowidAlias,
		})
		var e QP.Expr
		if row != nil && ic.valueIndex[i] >= 0 {
			e = row[ic.valueIndex[i]]
		} else if col.Default != nil && !col.IsRowidAlias {
			e = col.Default
		}
		if e == nil {
			b.EmitNull(reg)
			continue
		}
		if err := TranslateExpr(b, e, reg); err != nil {
			return err
		}
	}

	// The key: an explicit rowid or INTEGER PRIMARY KEY value, else a new
	// rowid. A NULL key also gets a new rowid.
	explicitKey := false
	switch {
	case row != nil && ic.rowidValue >= 0:
		explicitKey = true
		if err := TranslateExpr(b, row[ic.rowidValue], rowidReg); err != nil {
			return err
		}
	case hasAlias && row != nil && ic.valueIndex[aliasIdx] >= 0:
		explicitKey = true
		b.EmitCopy(colStart+aliasIdx, rowidReg, 1)
	}
	if explicitKey {
		isSet, done := b.AllocateLabel(), b.AllocateLabel()
		notNull := b.AllocRegister()
		b.EmitInsn(VM.Instruction{Op: VM.OpNotNull, P1: int32(rowidReg), P2: int32(notNull)})
		b.EmitIf(notNull, isSet, false)
		b.EmitInsn(VM.Instruction{Op: VM.OpNewRowid, P1: int32(ic.tgt.TableCursor), P2: int32(rowidReg)})
		b.EmitGoto(done)
		b.ResolveLabel(isSet)
		b.EmitInsn(VM.Instruction{Op: VM.OpMustBeInt, P1: int32(rowidReg)})
		b.ResolveLabel(done)
	} else {
		b.EmitInsn(VM.Instruction{Op: VM.OpNewRowid, P1: int32(ic.tgt.TableCursor), P2: int32(rowidReg)})
	}
	if hasAlias {
		b.EmitCopy(rowidReg, colStart+aliasIdx, 1)
	}

	b.EmitInsn(VM.Instruction{Op: VM.OpAffinity, P1: int32(colStart), P2: int32(n), P4: t.AffinityString()})
	for i, col := range t.Columns {
		if col.NotNull && !col.IsRowidAlias {
			b.EmitHaltIfNull(int32(SVDB.SVDB_CONSTRAINT_NOTNULL), colStart+i,
				"NOT NULL constraint failed: "+t.Name+"."+col.Name)
		}
	}
	if t.Strict {
		b.EmitInsn(VM.Instruction{Op: VM.OpTypeCheck, P1: int32(colStart), P2: int32(n), P4: t})
	}

	keys := make([]int, len(ic.indexes))
	for i, idx := range ic.indexes {
		keys[i] = b.AllocRegisters(len(idx.Columns) + 1)
		if err := copyIndexKey(b, t, idx, colStart, rowidReg, keys[i]); err != nil {
			return err
		}
	}
	// Indexes named by an ON CONFLICT target are checked before the key so
	// that their clause sees the conflict first.
	for _, i := range ic.targetChecks {
		if err := ic.emitIndexCheck(ins, i, keys[i], rowDone); err != nil {
			return err
		}
	}
	if explicitKey {
		if err := ic.emitRowidCheck(ins, rowDone); err != nil {
			return err
		}
	}
	for _, i := range ic.otherChecks {
		if err := ic.emitIndexCheck(ins, i, keys[i], rowDone); err != nil {
			return err
		}
	}

	for i, idx := range ic.indexes {
		rec := b.AllocRegister()
		b.EmitMakeRecord(keys[i], len(idx.Columns)+1, rec, "")
		b.EmitInsn(VM.Instruction{Op: VM.OpIdxInsert, P1: int32(ic.tgt.IndexCursors[i].Cursor), P2: int32(rec)})
	}
	rec := b.AllocRegister()
	b.EmitMakeRecord(colStart, n, rec, t.AffinityString())
	b.EmitInsn(VM.Instruction{
		Op: VM.OpInsert, P1: int32(ic.tgt.TableCursor), P2: int32(rec), P3: int32(rowidReg),
		P5: VM.OPFLAG_NCHANGE | VM.OPFLAG_LASTROWID, Comment: t.Name,
	})
	if ic.tgt.CDCCursor >= 0 {
		afterRec := 0
		if ic.b.CaptureDataChangesMode().HasAfter() {
			afterRec = rec
		}
		EmitCDC(b, ic.tgt.CDCCursor, CDCInsert, t.Name, rowidReg, 0, afterRec)
	}
	if len(ic.stmt.Returning) > 0 {
		row := ReturningRow{RowidReg: rowidReg, ColStart: colStart, NumCols: n}
		if err := EmitReturning(b, t, ic.stmt.Returning, row); err != nil {
			return err
		}
	}
	b.ResolveLabel(rowDone)
	return nil
}

// emitRowidCheck handles an insert whose key is already in use.
func (ic *insertCompilation) emitRowidCheck(ins *Insertion, rowDone VM.BranchOffset) error {
	b := ic.b
	noConflict := b.AllocateLabel()
	b.EmitJump(VM.OpNotExists, ic.tgt.TableCursor, noConflict, ins.KeyRegister, nil)

	for _, u := range ic.stmt.Upserts {
		if upsertMatchesRowid(u, ic.table) {
			log.Debug("upsert on %s resolved to the primary key", ic.table.Name)
			if err := ic.emitUpsertClause(u, ins, ins.KeyRegister, rowDone); err != nil {
				return err
			}
			b.ResolveLabel(noConflict)
			return nil
		}
	}
	name := ic.table.Name + "." + IS.RowidColumnName
	if _, alias, ok := ic.table.RowidAlias(); ok {
		name = ic.table.Name + "." + alias.Name
	}
	b.EmitHalt(int32(SVDB.SVDB_CONSTRAINT_PRIMARYKEY), "UNIQUE constraint failed: "+name)
	b.ResolveLabel(noConflict)
	return nil
}

// emitIndexCheck handles an insert whose key collides in the i'th index.
// keyStart holds the index key followed by the new rowid.
func (ic *insertCompilation) emitIndexCheck(ins *Insertion, i, keyStart int, rowDone VM.BranchOffset) error {
	b := ic.b
	idx, cursor := ic.indexes[i], ic.tgt.IndexCursors[i].Cursor
	noConflict := b.AllocateLabel()
	b.EmitJump(VM.OpNoConflict, cursor, noConflict, keyStart, len(idx.Columns))

	for _, u := range ic.stmt.Upserts {
		if upsertMatchesConstraint(u, idx, ic.table) {
			log.Debug("upsert on %s resolved to index %s", ic.table.Name, idx.Name)
			conflictReg := b.AllocRegister()
			b.EmitInsn(VM.Instruction{Op: VM.OpIdxRowid, P1: int32(cursor), P2: int32(conflictReg)})
			if err := ic.emitUpsertClause(u, ins, conflictReg, rowDone); err != nil {
				return err
			}
			b.ResolveLabel(noConflict)
			return nil
		}
	}
	code := SVDB.SVDB_CONSTRAINT_UNIQUE
	if idx.PrimaryKey {
		code = SVDB.SVDB_CONSTRAINT_PRIMARYKEY
	}
	b.EmitHalt(int32(code), "UNIQUE constraint failed: "+idx.ColumnNames())
	b.ResolveLabel(noConflict)
	return nil
}

// emitUpsertClause compiles a private copy of u for one conflict site.
func (ic *insertCompilation) emitUpsertClause(u *QP.Upsert, ins *Insertion, conflictReg int, rowDone VM.BranchOffset) error {
	u = QP.CloneUpsert(u)
	sets, err := CollectSetClausesForUpsert(ic.table, u.Do.Sets, ins)
	if err != nil {
		return err
	}
	where := u.Do.Where
	if where != nil {
		RewriteExcludedInExpr(&where, ins)
	}
	return EmitUpsert(ic.b, ic.tgt, conflictReg, sets, where, rowDone)
}
