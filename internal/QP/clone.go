package QP

// CloneExpr returns a deep copy of e. Rewrites mutate expressions in place,
// so every consumer that needs the original shape afterwards works on a clone.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *Id:
		c := *n
		return &c
	case *Qualified:
		c := *n
		return &c
	case *DoublyQualified:
		c := *n
		return &c
	case *RowIDRef:
		c := *n
		return &c
	case *Register:
		c := *n
		return &c
	case *Literal:
		c := *n
		if b, ok := n.Value.([]byte); ok {
			c.Value = append([]byte(nil), b...)
		}
		return &c
	case *Variable:
		c := *n
		return &c
	case *Parenthesized:
		return &Parenthesized{Exprs: cloneExprs(n.Exprs)}
	case *Collate:
		return &Collate{Expr: CloneExpr(n.Expr), Collation: n.Collation}
	case *Between:
		return &Between{Expr: CloneExpr(n.Expr), Not: n.Not, Low: CloneExpr(n.Low), High: CloneExpr(n.High)}
	case *BinaryExpr:
		return &BinaryExpr{Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *UnaryExpr:
		return &UnaryExpr{Op: n.Op, Expr: CloneExpr(n.Expr)}
	case *CaseExpr:
		c := &CaseExpr{Operand: CloneExpr(n.Operand), Else: CloneExpr(n.Else)}
		for _, w := range n.Whens {
			c.Whens = append(c.Whens, CaseWhen{Condition: CloneExpr(w.Condition), Result: CloneExpr(w.Result)})
		}
		return c
	case *CastExpr:
		return &CastExpr{Expr: CloneExpr(n.Expr), TypeSpec: n.TypeSpec}
	case *FuncCall:
		c := &FuncCall{
			Name:     n.Name,
			Args:     cloneExprs(n.Args),
			Star:     n.Star,
			Distinct: n.Distinct,
			Filter:   CloneExpr(n.Filter),
		}
		for _, o := range n.OrderBy {
			c.OrderBy = append(c.OrderBy, OrderingTerm{Expr: CloneExpr(o.Expr), Desc: o.Desc})
		}
		return c
	case *InList:
		return &InList{Expr: CloneExpr(n.Expr), Not: n.Not, List: cloneExprs(n.List)}
	case *InSelect:
		return &InSelect{Expr: CloneExpr(n.Expr), Not: n.Not, Select: cloneSelect(n.Select)}
	case *InTable:
		return &InTable{Expr: CloneExpr(n.Expr), Not: n.Not, Table: n.Table, Args: cloneExprs(n.Args)}
	case *IsNull:
		return &IsNull{Expr: CloneExpr(n.Expr)}
	case *NotNull:
		return &NotNull{Expr: CloneExpr(n.Expr)}
	case *LikeExpr:
		return &LikeExpr{
			Expr:    CloneExpr(n.Expr),
			Not:     n.Not,
			Glob:    n.Glob,
			Pattern: CloneExpr(n.Pattern),
			Escape:  CloneExpr(n.Escape),
		}
	case *SubqueryExpr:
		return &SubqueryExpr{Select: cloneSelect(n.Select)}
	case *ExistsExpr:
		return &ExistsExpr{Not: n.Not, Select: cloneSelect(n.Select)}
	}
	panic("QP: CloneExpr: unhandled expression type")
}

func cloneExprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = CloneExpr(e)
	}
	return out
}

func cloneSelect(s *SelectStmt) *SelectStmt {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// CloneUpsert returns a deep copy of an ON CONFLICT clause.
func CloneUpsert(u *Upsert) *Upsert {
	if u == nil {
		return nil
	}
	c := &Upsert{}
	if u.Index != nil {
		idx := &UpsertIndex{Where: CloneExpr(u.Index.Where)}
		for _, t := range u.Index.Targets {
			idx.Targets = append(idx.Targets, SortedColumn{Expr: CloneExpr(t.Expr), Desc: t.Desc})
		}
		c.Index = idx
	}
	c.Do.Nothing = u.Do.Nothing
	c.Do.Where = CloneExpr(u.Do.Where)
	for _, s := range u.Do.Sets {
		c.Do.Sets = append(c.Do.Sets, Set{
			ColNames: append([]string(nil), s.ColNames...),
			Expr:     CloneExpr(s.Expr),
		})
	}
	return c
}
