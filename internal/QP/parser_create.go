package QP

import (
	"strings"
)

func (p *Parser) parseCreate() (ASTNode, error) {
	p.advance()

	if p.acceptKeyword("UNIQUE") {
		if !p.current().Is("INDEX") {
			return nil, p.errorf("expected INDEX after CREATE UNIQUE")
		}
		return p.parseCreateIndex(true)
	}
	if p.current().Is("INDEX") {
		return p.parseCreateIndex(false)
	}

	if p.current().Is("TEMP") || p.current().Is("TEMPORARY") {
		return nil, p.errorf("temporary tables are not supported")
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{}
	ifNotExists, err := p.parseIfNotExists()
	if err != nil {
		return nil, err
	}
	stmt.IfNotExists = ifNotExists
	if stmt.Name, err = p.parseName(); err != nil {
		return nil, err
	}
	if p.current().Is("AS") {
		return nil, p.errorf("CREATE TABLE ... AS SELECT is not supported")
	}
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	for {
		if p.isTableConstraintStart() {
			tc, err := p.parseTableConstraint()
			if err != nil {
				return nil, err
			}
			stmt.Constraints = append(stmt.Constraints, tc)
		} else {
			if len(stmt.Constraints) > 0 {
				return nil, p.errorf("column definition after table constraint")
			}
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
		}
		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if len(stmt.Columns) == 0 {
		return nil, p.errorf("table %s has no columns", stmt.Name)
	}

	// Table options.
	for {
		switch {
		case p.acceptKeyword("STRICT"):
			stmt.Strict = true
		case p.current().Is("WITHOUT"):
			return nil, p.errorf("WITHOUT ROWID tables are not supported")
		default:
			return stmt, nil
		}
		if p.current().Type != TokenComma {
			return stmt, nil
		}
		p.advance()
	}
}

func (p *Parser) parseIfNotExists() (bool, error) {
	if !p.acceptKeyword("IF") {
		return false, nil
	}
	if p.current().Type != TokenNot {
		return false, p.errorf("expected NOT after IF")
	}
	p.advance()
	if err := p.expectKeyword("EXISTS"); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Parser) isTableConstraintStart() bool {
	tok := p.current()
	return tok.Is("CONSTRAINT") || tok.Is("CHECK") ||
		(tok.Type == TokenIdentifier && strings.EqualFold(tok.Literal, "FOREIGN")) ||
		(tok.Is("PRIMARY") && p.peek().Is("KEY")) ||
		(tok.Is("UNIQUE") && p.peek().Type == TokenLeftParen)
}

func (p *Parser) parseTableConstraint() (TableConstraint, error) {
	var tc TableConstraint
	if p.acceptKeyword("CONSTRAINT") {
		name, err := p.parseName()
		if err != nil {
			return tc, err
		}
		tc.Name = name
	}

	switch {
	case p.acceptKeyword("PRIMARY"):
		if err := p.expectKeyword("KEY"); err != nil {
			return tc, err
		}
		tc.PrimaryKey = true
	case p.acceptKeyword("UNIQUE"):
		tc.Unique = true
	case p.current().Is("CHECK"):
		return tc, p.errorf("CHECK constraints are not supported")
	default:
		return tc, p.errorf("unsupported table constraint %q", p.current().Literal)
	}

	cols, err := p.parseIndexedColumns()
	if err != nil {
		return tc, err
	}
	tc.Columns = cols
	if err := p.skipConflictClause(); err != nil {
		return tc, err
	}
	return tc, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	var col ColumnDef
	name, err := p.parseName()
	if err != nil {
		return col, err
	}
	col.Name = name

	spec, err := p.parseTypeSpec()
	if err != nil {
		return col, err
	}
	col.Type = spec.Name

	for {
		tok := p.current()
		switch {
		case tok.Is("CONSTRAINT"):
			p.advance()
			if _, err := p.parseName(); err != nil {
				return col, err
			}

		case tok.Is("PRIMARY"):
			p.advance()
			if err := p.expectKeyword("KEY"); err != nil {
				return col, err
			}
			col.PrimaryKey = true
			if p.acceptKeyword("DESC") {
				col.Desc = true
			} else {
				p.acceptKeyword("ASC")
			}
			if err := p.skipConflictClause(); err != nil {
				return col, err
			}
			col.Autoincrement = p.acceptKeyword("AUTOINCREMENT")

		case tok.Type == TokenNot:
			p.advance()
			if err := p.expectKeyword("NULL"); err != nil {
				return col, err
			}
			col.NotNull = true
			if err := p.skipConflictClause(); err != nil {
				return col, err
			}

		case tok.Is("NULL"):
			p.advance()

		case tok.Is("UNIQUE"):
			p.advance()
			col.Unique = true
			if err := p.skipConflictClause(); err != nil {
				return col, err
			}

		case tok.Is("DEFAULT"):
			p.advance()
			def, err := p.parseDefault()
			if err != nil {
				return col, err
			}
			col.Default = def

		case tok.Is("COLLATE"):
			p.advance()
			coll, err := p.parseName()
			if err != nil {
				return col, err
			}
			col.Collate = strings.ToLower(coll)

		case tok.Is("CHECK"):
			return col, p.errorf("CHECK constraints are not supported")

		case tok.Is("REFERENCES"):
			return col, p.errorf("foreign keys are not supported")

		default:
			return col, nil
		}
	}
}

// parseDefault reads a column default: a literal, a signed number, or a
// parenthesized expression.
func (p *Parser) parseDefault() (Expr, error) {
	if p.current().Type == TokenMinus || p.current().Type == TokenPlus {
		op := p.advance().Type
		tok, err := p.expect(TokenNumber)
		if err != nil {
			return nil, err
		}
		num, err := parseNumber(tok.Literal)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Expr: num}, nil
	}
	return p.parsePrimaryExpr()
}

// skipConflictClause rejects ON CONFLICT on constraint definitions, which
// only the default ABORT behavior is implemented for.
func (p *Parser) skipConflictClause() error {
	if !p.current().Is("ON") || !p.peek().Is("CONFLICT") {
		return nil
	}
	p.advance()
	p.advance()
	tok := p.advance()
	if !strings.EqualFold(tok.Literal, "ABORT") {
		return p.errorf("constraint conflict resolution %s is not supported", tok.Literal)
	}
	return nil
}

func (p *Parser) parseIndexedColumns() ([]IndexedColumn, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	var cols []IndexedColumn
	for {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		if p.current().Type == TokenLeftParen {
			return nil, p.errorf("indexes on expressions are not supported")
		}
		col := IndexedColumn{Name: name}
		if p.acceptKeyword("COLLATE") {
			coll, err := p.parseName()
			if err != nil {
				return nil, err
			}
			col.Collate = strings.ToLower(coll)
		}
		if p.acceptKeyword("DESC") {
			col.Desc = true
		} else {
			p.acceptKeyword("ASC")
		}
		cols = append(cols, col)
		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return cols, nil
}

func (p *Parser) parseCreateIndex(unique bool) (ASTNode, error) {
	p.advance()
	stmt := &CreateIndexStmt{Unique: unique}

	ifNotExists, err := p.parseIfNotExists()
	if err != nil {
		return nil, err
	}
	stmt.IfNotExists = ifNotExists
	if stmt.Name, err = p.parseName(); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	if stmt.Table, err = p.parseName(); err != nil {
		return nil, err
	}
	if stmt.Columns, err = p.parseIndexedColumns(); err != nil {
		return nil, err
	}
	if p.current().Is("WHERE") {
		return nil, p.errorf("partial indexes are not supported")
	}
	return stmt, nil
}
