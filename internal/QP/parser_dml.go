package QP

import (
	"strings"
)

func (p *Parser) parseInsert() (*InsertStmt, error) {
	p.advance()
	stmt := &InsertStmt{}

	if p.current().Type == TokenOr {
		p.advance()
		action := strings.ToUpper(p.current().Literal)
		switch action {
		case "REPLACE", "IGNORE", "ABORT", "FAIL", "ROLLBACK":
			stmt.OrAction = action
			p.advance()
		default:
			return nil, p.errorf("unknown INSERT OR action: %s", p.current().Literal)
		}
	}

	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if p.current().Type == TokenDot {
		p.advance()
		if table, err = p.parseName(); err != nil {
			return nil, err
		}
	}
	stmt.Table = table
	if p.current().Is("AS") {
		return nil, p.errorf("table aliases in INSERT are not supported")
	}

	if p.current().Type == TokenLeftParen {
		p.advance()
		for {
			col, err := p.parseName()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
	}

	switch {
	case p.acceptKeyword("DEFAULT"):
		if err := p.expectKeyword("VALUES"); err != nil {
			return nil, err
		}
		stmt.UseDefaults = true
	case p.acceptKeyword("VALUES"):
		if err := p.parseValues(stmt); err != nil {
			return nil, err
		}
	case p.current().Is("SELECT"):
		return nil, p.errorf("INSERT ... SELECT is not supported")
	default:
		return nil, p.errorf("expected VALUES or DEFAULT VALUES, got %q", p.current().Literal)
	}

	for p.current().Is("ON") {
		if stmt.UseDefaults {
			return nil, p.errorf("ON CONFLICT is not allowed with DEFAULT VALUES")
		}
		upsert, err := p.parseUpsert()
		if err != nil {
			return nil, err
		}
		stmt.Upserts = append(stmt.Upserts, upsert)
	}

	if p.acceptKeyword("RETURNING") {
		if stmt.Returning, err = p.parseResultColumns(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseValues(stmt *InsertStmt) error {
	for {
		if _, err := p.expect(TokenLeftParen); err != nil {
			return err
		}
		if p.current().Type == TokenRightParen {
			return p.errorf("empty VALUES () not supported, use DEFAULT VALUES")
		}
		row, err := p.parseExprList()
		if err != nil {
			return err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return err
		}
		if len(stmt.Values) > 0 && len(row) != len(stmt.Values[0]) {
			return p.errorf("all VALUES must have the same number of terms")
		}
		stmt.Values = append(stmt.Values, row)
		if p.current().Type != TokenComma {
			return nil
		}
		p.advance()
	}
}

// parseUpsert parses one ON CONFLICT [(target) [WHERE expr]] DO ... clause.
func (p *Parser) parseUpsert() (*Upsert, error) {
	p.advance()
	if err := p.expectKeyword("CONFLICT"); err != nil {
		return nil, err
	}
	upsert := &Upsert{}

	if p.current().Type == TokenLeftParen {
		p.advance()
		idx := &UpsertIndex{}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			term := SortedColumn{Expr: e}
			if p.acceptKeyword("DESC") {
				term.Desc = true
			} else {
				p.acceptKeyword("ASC")
			}
			idx.Targets = append(idx.Targets, term)
			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		if p.acceptKeyword("WHERE") {
			where, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			idx.Where = where
		}
		upsert.Index = idx
	}

	if err := p.expectKeyword("DO"); err != nil {
		return nil, err
	}
	if p.acceptKeyword("NOTHING") {
		upsert.Do.Nothing = true
		return upsert, nil
	}
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		set, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		upsert.Do.Sets = append(upsert.Do.Sets, set)
		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	if p.acceptKeyword("WHERE") {
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		upsert.Do.Where = where
	}
	return upsert, nil
}

func (p *Parser) parseSet() (Set, error) {
	var set Set
	if p.current().Type == TokenLeftParen {
		p.advance()
		for {
			name, err := p.parseName()
			if err != nil {
				return set, err
			}
			set.ColNames = append(set.ColNames, name)
			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return set, err
		}
	} else {
		name, err := p.parseName()
		if err != nil {
			return set, err
		}
		set.ColNames = []string{name}
	}
	if _, err := p.expect(TokenEq); err != nil {
		return set, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return set, err
	}
	set.Expr = e
	return set, nil
}

func (p *Parser) parseResultColumns() ([]ResultColumn, error) {
	var cols []ResultColumn
	for {
		if p.current().Type == TokenAsterisk {
			p.advance()
			cols = append(cols, ResultColumn{Star: true})
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			rc := ResultColumn{Expr: e}
			if p.acceptKeyword("AS") {
				if rc.Alias, err = p.parseName(); err != nil {
					return nil, err
				}
			} else if p.current().Type == TokenIdentifier {
				rc.Alias = p.advance().Literal
			}
			cols = append(cols, rc)
		}
		if p.current().Type != TokenComma {
			return cols, nil
		}
		p.advance()
	}
}
