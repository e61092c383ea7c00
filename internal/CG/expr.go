package CG

import (
	"strings"

	"github.com/sqlvibe/upsertc/internal/DS"
	"github.com/sqlvibe/upsertc/internal/QP"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
	"github.com/sqlvibe/upsertc/internal/VM"
)

// NoConstantOptReason explains why an expression must be evaluated in line
// instead of having its literals hoisted into the constant section.
type NoConstantOptReason int

const (
	// NoConstantOptRegisterReuse: the target register is rewritten in the
	// body after the constant section runs, so a hoisted load would be lost.
	NoConstantOptRegisterReuse NoConstantOptReason = iota + 1
)

func (r NoConstantOptReason) String() string {
	switch r {
	case NoConstantOptRegisterReuse:
		return "register reuse"
	}
	return ""
}

type exprTranslator struct {
	b        *VM.ProgramBuilder
	constOpt bool

	// reason annotates in-line loads when constOpt is off.
	reason NoConstantOptReason
}

// TranslateExpr emits code that leaves the value of e in target. Literals
// are loaded once, in the constant section, into registers of their own.
func TranslateExpr(b *VM.ProgramBuilder, e QP.Expr, target int) error {
	t := exprTranslator{b: b, constOpt: true}
	return t.translate(e, target)
}

// TranslateExprNoConstantOpt is TranslateExpr with every load emitted in
// line, for targets that already hold a live value.
func TranslateExprNoConstantOpt(b *VM.ProgramBuilder, e QP.Expr, target int, reason NoConstantOptReason) error {
	t := exprTranslator{b: b, reason: reason}
	return t.translate(e, target)
}

func (t *exprTranslator) translate(e QP.Expr, target int) error {
	b := t.b
	switch e := e.(type) {
	case *QP.Literal:
		v, err := DS.FromInterface(e.Value)
		if err != nil {
			return err
		}
		if !t.constOpt {
			b.EmitInsn(VM.Instruction{Op: VM.OpLoadConst, P2: int32(target), P4: v, Comment: t.reason.String()})
			return nil
		}
		// The constant register is written once, before the body runs.
		reg := b.AllocRegister()
		b.EmitConstant(VM.Instruction{Op: VM.OpLoadConst, P2: int32(reg), P4: v})
		b.EmitCopy(reg, target, 1)
		return nil

	case *QP.Variable:
		b.NoteParam(e.Index)
		b.EmitInsn(VM.Instruction{Op: VM.OpVariable, P1: int32(e.Index), P2: int32(target)})
		return nil

	case *QP.Register:
		if e.Reg != target {
			b.EmitCopy(e.Reg, target, 1)
		}
		return nil

	case *QP.Parenthesized:
		if len(e.Exprs) != 1 {
			return SVDB.NewError(SVDB.SVDB_ERROR, "row value misused")
		}
		return t.translate(e.Exprs[0], target)

	case *QP.Collate:
		return t.translate(e.Expr, target)

	case *QP.Between:
		return t.translateBetween(e, target)

	case *QP.BinaryExpr:
		return t.translateBinary(e, target)

	case *QP.UnaryExpr:
		if err := t.translate(e.Expr, target); err != nil {
			return err
		}
		switch e.Op {
		case QP.TokenMinus:
			b.EmitInsn(VM.Instruction{Op: VM.OpNegate, P1: int32(target), P2: int32(target)})
		case QP.TokenNot:
			b.EmitInsn(VM.Instruction{Op: VM.OpNot, P1: int32(target), P2: int32(target)})
		}
		return nil

	case *QP.CaseExpr:
		return t.translateCase(e, target)

	case *QP.CastExpr:
		if err := t.translate(e.Expr, target); err != nil {
			return err
		}
		b.EmitInsn(VM.Instruction{Op: VM.OpCast, P1: int32(target), P2: int32(target), P4: e.TypeSpec.Name})
		return nil

	case *QP.FuncCall:
		return t.translateFuncCall(e, target)

	case *QP.InList:
		return t.translateInList(e, target)

	case *QP.IsNull:
		if err := t.translate(e.Expr, target); err != nil {
			return err
		}
		b.EmitInsn(VM.Instruction{Op: VM.OpIsNull, P1: int32(target), P2: int32(target)})
		return nil

	case *QP.NotNull:
		if err := t.translate(e.Expr, target); err != nil {
			return err
		}
		b.EmitInsn(VM.Instruction{Op: VM.OpNotNull, P1: int32(target), P2: int32(target)})
		return nil

	case *QP.LikeExpr:
		return t.translateLike(e, target)

	case *QP.Id:
		return noSuchColumn(e.Name)
	case *QP.Qualified:
		return noSuchColumn(e.Table + "." + e.Column)
	case *QP.DoublyQualified:
		return noSuchColumn(e.Schema + "." + e.Table + "." + e.Column)
	case *QP.RowIDRef:
		return noSuchColumn("rowid")

	case *QP.InSelect, *QP.InTable, *QP.SubqueryExpr, *QP.ExistsExpr:
		return SVDB.NewError(SVDB.SVDB_ERROR, "subqueries are not supported in INSERT statements")
	}
	return SVDB.Errorf(SVDB.SVDB_ERROR, "unsupported expression %s", QP.Format(e))
}

func noSuchColumn(name string) error {
	return SVDB.Errorf(SVDB.SVDB_ERROR, "no such column: %s", name)
}

// exprCollation returns the collation an operand carries: an explicit
// COLLATE, or the declared collation of the column a register was bound
// from.
func exprCollation(e QP.Expr) string {
	switch e := e.(type) {
	case *QP.Collate:
		return strings.ToLower(e.Collation)
	case *QP.Register:
		return e.Collation
	case *QP.Parenthesized:
		if len(e.Exprs) == 1 {
			return exprCollation(e.Exprs[0])
		}
	}
	return ""
}

// binaryCollation picks the collation for comparing l and r. An explicit
// COLLATE on either side wins over a column's declared collation, and the
// left operand wins ties.
func binaryCollation(l, r QP.Expr) string {
	if c, ok := explicitCollation(l); ok {
		return c
	}
	if c, ok := explicitCollation(r); ok {
		return c
	}
	if c := exprCollation(l); c != "" {
		return c
	}
	return exprCollation(r)
}

func explicitCollation(e QP.Expr) (string, bool) {
	switch e := e.(type) {
	case *QP.Collate:
		return strings.ToLower(e.Collation), true
	case *QP.Parenthesized:
		if len(e.Exprs) == 1 {
			return explicitCollation(e.Exprs[0])
		}
	}
	return "", false
}

var compareOps = map[QP.TokenType]VM.OpCode{
	QP.TokenEq:    VM.OpEq,
	QP.TokenNe:    VM.OpNe,
	QP.TokenLt:    VM.OpLt,
	QP.TokenLe:    VM.OpLe,
	QP.TokenGt:    VM.OpGt,
	QP.TokenGe:    VM.OpGe,
	QP.TokenIs:    VM.OpIs,
	QP.TokenIsNot: VM.OpIsNot,
}

var binaryOps = map[QP.TokenType]VM.OpCode{
	QP.TokenPlus:     VM.OpAdd,
	QP.TokenMinus:    VM.OpSubtract,
	QP.TokenAsterisk: VM.OpMultiply,
	QP.TokenSlash:    VM.OpDivide,
	QP.TokenPercent:  VM.OpRemainder,
	QP.TokenConcat:   VM.OpConcat,
	QP.TokenAnd:      VM.OpAnd,
	QP.TokenOr:       VM.OpOr,
}

func (t *exprTranslator) translateBinary(e *QP.BinaryExpr, target int) error {
	l, r := t.b.AllocRegister(), t.b.AllocRegister()
	if err := t.translate(e.Left, l); err != nil {
		return err
	}
	if err := t.translate(e.Right, r); err != nil {
		return err
	}
	if op, ok := compareOps[e.Op]; ok {
		insn := VM.Instruction{Op: op, P1: int32(l), P2: int32(r), P3: int32(target)}
		if coll := binaryCollation(e.Left, e.Right); coll != "" {
			insn.P4 = coll
		}
		t.b.EmitInsn(insn)
		return nil
	}
	op, ok := binaryOps[e.Op]
	if !ok {
		return SVDB.Errorf(SVDB.SVDB_ERROR, "unsupported operator %s", e.Op)
	}
	t.b.EmitInsn(VM.Instruction{Op: op, P1: int32(l), P2: int32(r), P3: int32(target)})
	return nil
}

// translateBetween evaluates x BETWEEN lo AND hi as x >= lo AND x <= hi
// with x evaluated once.
func (t *exprTranslator) translateBetween(e *QP.Between, target int) error {
	x, lo, hi := t.b.AllocRegister(), t.b.AllocRegister(), t.b.AllocRegister()
	for _, p := range []struct {
		e   QP.Expr
		reg int
	}{{e.Expr, x}, {e.Low, lo}, {e.High, hi}} {
		if err := t.translate(p.e, p.reg); err != nil {
			return err
		}
	}
	ge, le := t.b.AllocRegister(), t.b.AllocRegister()
	geInsn := VM.Instruction{Op: VM.OpGe, P1: int32(x), P2: int32(lo), P3: int32(ge)}
	if coll := binaryCollation(e.Expr, e.Low); coll != "" {
		geInsn.P4 = coll
	}
	leInsn := VM.Instruction{Op: VM.OpLe, P1: int32(x), P2: int32(hi), P3: int32(le)}
	if coll := binaryCollation(e.Expr, e.High); coll != "" {
		leInsn.P4 = coll
	}
	t.b.EmitInsn(geInsn)
	t.b.EmitInsn(leInsn)
	t.b.EmitInsn(VM.Instruction{Op: VM.OpAnd, P1: int32(ge), P2: int32(le), P3: int32(target)})
	if e.Not {
		t.b.EmitInsn(VM.Instruction{Op: VM.OpNot, P1: int32(target), P2: int32(target)})
	}
	return nil
}

func (t *exprTranslator) translateCase(e *QP.CaseExpr, target int) error {
	b := t.b
	end := b.AllocateLabel()
	operand := 0
	if e.Operand != nil {
		operand = b.AllocRegister()
		if err := t.translate(e.Operand, operand); err != nil {
			return err
		}
	}
	for _, w := range e.Whens {
		next := b.AllocateLabel()
		cond := b.AllocRegister()
		if err := t.translate(w.Condition, cond); err != nil {
			return err
		}
		if operand != 0 {
			insn := VM.Instruction{Op: VM.OpEq, P1: int32(operand), P2: int32(cond), P3: int32(cond)}
			if coll := binaryCollation(e.Operand, w.Condition); coll != "" {
				insn.P4 = coll
			}
			b.EmitInsn(insn)
		}
		b.EmitIfNot(cond, next, true)
		if err := t.translate(w.Result, target); err != nil {
			return err
		}
		b.EmitGoto(end)
		b.ResolveLabel(next)
	}
	if e.Else != nil {
		if err := t.translate(e.Else, target); err != nil {
			return err
		}
	} else {
		b.EmitNull(target)
	}
	b.ResolveLabel(end)
	return nil
}

func (t *exprTranslator) translateFuncCall(e *QP.FuncCall, target int) error {
	switch {
	case e.Star:
		return SVDB.Errorf(SVDB.SVDB_ERROR, "wrong number of arguments to function %s()", e.Name)
	case e.Distinct, len(e.OrderBy) > 0, e.Filter != nil:
		return SVDB.Errorf(SVDB.SVDB_ERROR, "%s() may not be used as an aggregate here", e.Name)
	}
	start := t.b.AllocRegisters(len(e.Args))
	for i, arg := range e.Args {
		if err := t.translate(arg, start+i); err != nil {
			return err
		}
	}
	t.b.EmitInsn(VM.Instruction{
		Op: VM.OpFunction,
		P1: int32(start),
		P2: int32(len(e.Args)),
		P3: int32(target),
		P4: strings.ToLower(e.Name),
	})
	return nil
}

func (t *exprTranslator) translateInList(e *QP.InList, target int) error {
	b := t.b
	if len(e.List) == 0 {
		b.EmitLoadConst(target, DS.BoolValue(e.Not))
		return nil
	}
	lhs := b.AllocRegister()
	if err := t.translate(e.Expr, lhs); err != nil {
		return err
	}
	start := b.AllocRegisters(len(e.List))
	for i, item := range e.List {
		if err := t.translate(item, start+i); err != nil {
			return err
		}
	}
	b.EmitInsn(VM.Instruction{
		Op: VM.OpIn,
		P1: int32(lhs),
		P2: int32(start),
		P3: int32(target),
		P4: VM.InList{Count: len(e.List), Collation: exprCollation(e.Expr)},
	})
	if e.Not {
		b.EmitInsn(VM.Instruction{Op: VM.OpNot, P1: int32(target), P2: int32(target)})
	}
	return nil
}

func (t *exprTranslator) translateLike(e *QP.LikeExpr, target int) error {
	b := t.b
	val, pat := b.AllocRegister(), b.AllocRegister()
	if err := t.translate(e.Expr, val); err != nil {
		return err
	}
	if err := t.translate(e.Pattern, pat); err != nil {
		return err
	}
	insn := VM.Instruction{Op: VM.OpLike, P1: int32(val), P2: int32(pat), P3: int32(target)}
	if e.Escape != nil {
		esc := b.AllocRegister()
		if err := t.translate(e.Escape, esc); err != nil {
			return err
		}
		insn.P4 = esc
	}
	if e.Glob {
		insn.P5 = VM.OPFLAG_GLOB
	}
	b.EmitInsn(insn)
	if e.Not {
		b.EmitInsn(VM.Instruction{Op: VM.OpNot, P1: int32(target), P2: int32(target)})
	}
	return nil
}
