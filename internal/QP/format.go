package QP

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Format renders an expression as SQL text. Registers render as r[N].
func Format(e Expr) string {
	var sb strings.Builder
	formatExpr(&sb, e)
	return sb.String()
}

// FormatLiteral renders a literal value the way it would be written in SQL.
func FormatLiteral(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(v)) + "'"
	}
	return fmt.Sprintf("%v", v)
}

func formatExpr(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Id:
		sb.WriteString(n.Name)
	case *Qualified:
		sb.WriteString(n.Table + "." + n.Column)
	case *DoublyQualified:
		sb.WriteString(n.Schema + "." + n.Table + "." + n.Column)
	case *RowIDRef:
		sb.WriteString(n.Table + ".rowid")
	case *Register:
		fmt.Fprintf(sb, "r[%d]", n.Reg)
	case *Literal:
		sb.WriteString(FormatLiteral(n.Value))
	case *Variable:
		sb.WriteString(n.Name)
	case *Parenthesized:
		sb.WriteByte('(')
		formatList(sb, n.Exprs)
		sb.WriteByte(')')
	case *Collate:
		formatExpr(sb, n.Expr)
		sb.WriteString(" COLLATE " + n.Collation)
	case *Between:
		formatExpr(sb, n.Expr)
		if n.Not {
			sb.WriteString(" NOT")
		}
		sb.WriteString(" BETWEEN ")
		formatExpr(sb, n.Low)
		sb.WriteString(" AND ")
		formatExpr(sb, n.High)
	case *BinaryExpr:
		sb.WriteByte('(')
		formatExpr(sb, n.Left)
		sb.WriteString(" " + n.Op.String() + " ")
		formatExpr(sb, n.Right)
		sb.WriteByte(')')
	case *UnaryExpr:
		if n.Op == TokenNot {
			sb.WriteString("NOT ")
		} else {
			sb.WriteString(n.Op.String())
		}
		formatExpr(sb, n.Expr)
	case *CaseExpr:
		sb.WriteString("CASE")
		if n.Operand != nil {
			sb.WriteByte(' ')
			formatExpr(sb, n.Operand)
		}
		for _, w := range n.Whens {
			sb.WriteString(" WHEN ")
			formatExpr(sb, w.Condition)
			sb.WriteString(" THEN ")
			formatExpr(sb, w.Result)
		}
		if n.Else != nil {
			sb.WriteString(" ELSE ")
			formatExpr(sb, n.Else)
		}
		sb.WriteString(" END")
	case *CastExpr:
		sb.WriteString("CAST(")
		formatExpr(sb, n.Expr)
		sb.WriteString(" AS " + n.TypeSpec.Name + ")")
	case *FuncCall:
		sb.WriteString(n.Name + "(")
		if n.Star {
			sb.WriteByte('*')
		} else {
			if n.Distinct {
				sb.WriteString("DISTINCT ")
			}
			formatList(sb, n.Args)
			for i, o := range n.OrderBy {
				if i == 0 {
					sb.WriteString(" ORDER BY ")
				} else {
					sb.WriteString(", ")
				}
				formatExpr(sb, o.Expr)
				if o.Desc {
					sb.WriteString(" DESC")
				}
			}
		}
		sb.WriteByte(')')
		if n.Filter != nil {
			sb.WriteString(" FILTER (WHERE ")
			formatExpr(sb, n.Filter)
			sb.WriteByte(')')
		}
	case *InList:
		formatExpr(sb, n.Expr)
		writeNot(sb, n.Not)
		sb.WriteString(" IN (")
		formatList(sb, n.List)
		sb.WriteByte(')')
	case *InSelect:
		formatExpr(sb, n.Expr)
		writeNot(sb, n.Not)
		sb.WriteString(" IN (" + n.Select.SQL + ")")
	case *InTable:
		formatExpr(sb, n.Expr)
		writeNot(sb, n.Not)
		sb.WriteString(" IN " + n.Table)
		if n.Args != nil {
			sb.WriteByte('(')
			formatList(sb, n.Args)
			sb.WriteByte(')')
		}
	case *IsNull:
		formatExpr(sb, n.Expr)
		sb.WriteString(" IS NULL")
	case *NotNull:
		formatExpr(sb, n.Expr)
		sb.WriteString(" IS NOT NULL")
	case *LikeExpr:
		formatExpr(sb, n.Expr)
		writeNot(sb, n.Not)
		if n.Glob {
			sb.WriteString(" GLOB ")
		} else {
			sb.WriteString(" LIKE ")
		}
		formatExpr(sb, n.Pattern)
		if n.Escape != nil {
			sb.WriteString(" ESCAPE ")
			formatExpr(sb, n.Escape)
		}
	case *SubqueryExpr:
		sb.WriteString("(" + n.Select.SQL + ")")
	case *ExistsExpr:
		if n.Not {
			sb.WriteString("NOT ")
		}
		sb.WriteString("EXISTS (" + n.Select.SQL + ")")
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}

func formatList(sb *strings.Builder, list []Expr) {
	for i, e := range list {
		if i > 0 {
			sb.WriteString(", ")
		}
		formatExpr(sb, e)
	}
}

func writeNot(sb *strings.Builder, not bool) {
	if not {
		sb.WriteString(" NOT")
	}
}
