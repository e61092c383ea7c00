package QP

import (
	"encoding/hex"
	"strconv"
	"strings"
)

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenOr, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseAndExpr() (Expr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenAnd, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseNotExpr() (Expr, error) {
	if p.current().Type == TokenNot && !p.peek().Is("EXISTS") {
		p.advance()
		inner, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: TokenNot, Expr: inner}, nil
	}
	return p.parseEqExpr()
}

// parseEqExpr handles the equality-level operators, which in SQLite share a
// precedence tier with IS, IN, LIKE, GLOB, BETWEEN and the null tests.
func (p *Parser) parseEqExpr() (Expr, error) {
	left, err := p.parseCmpExpr()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		switch {
		case tok.Type == TokenEq || tok.Type == TokenNe:
			p.advance()
			right, err := p.parseCmpExpr()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: tok.Type, Left: left, Right: right}

		case tok.Type == TokenIs:
			p.advance()
			op := TokenIs
			if p.current().Type == TokenNot {
				p.advance()
				op = TokenIsNot
			}
			if p.current().Is("NULL") {
				p.advance()
				if op == TokenIs {
					left = &IsNull{Expr: left}
				} else {
					left = &NotNull{Expr: left}
				}
				continue
			}
			right, err := p.parseCmpExpr()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: op, Left: left, Right: right}

		case tok.Is("ISNULL"):
			p.advance()
			left = &IsNull{Expr: left}

		case tok.Is("NOTNULL"):
			p.advance()
			left = &NotNull{Expr: left}

		case tok.Type == TokenNot && p.peek().Is("NULL"):
			p.advance()
			p.advance()
			left = &NotNull{Expr: left}

		case tok.Type == TokenNot && (p.peek().Type == TokenIn || p.peek().Type == TokenLike ||
			p.peek().Type == TokenGlob || p.peek().Type == TokenBetween):
			p.advance()
			left, err = p.parsePostfixOp(left, true)
			if err != nil {
				return nil, err
			}

		case tok.Type == TokenIn || tok.Type == TokenLike || tok.Type == TokenGlob || tok.Type == TokenBetween:
			left, err = p.parsePostfixOp(left, false)
			if err != nil {
				return nil, err
			}

		default:
			return left, nil
		}
	}
}

func (p *Parser) parsePostfixOp(left Expr, not bool) (Expr, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenBetween:
		low, err := p.parseCmpExpr()
		if err != nil {
			return nil, err
		}
		if p.current().Type != TokenAnd {
			return nil, p.errorf("expected AND in BETWEEN, got %q", p.current().Literal)
		}
		p.advance()
		high, err := p.parseCmpExpr()
		if err != nil {
			return nil, err
		}
		return &Between{Expr: left, Not: not, Low: low, High: high}, nil

	case TokenLike, TokenGlob:
		pattern, err := p.parseCmpExpr()
		if err != nil {
			return nil, err
		}
		like := &LikeExpr{Expr: left, Not: not, Glob: tok.Type == TokenGlob, Pattern: pattern}
		if p.acceptKeyword("ESCAPE") {
			if like.Escape, err = p.parseCmpExpr(); err != nil {
				return nil, err
			}
		}
		return like, nil

	case TokenIn:
		return p.parseIn(left, not)
	}
	return nil, p.errorf("unexpected %q", tok.Literal)
}

func (p *Parser) parseIn(left Expr, not bool) (Expr, error) {
	if p.current().Type == TokenLeftParen {
		p.advance()
		if p.current().Is("SELECT") {
			sel, err := p.parseOpaqueSelect()
			if err != nil {
				return nil, err
			}
			return &InSelect{Expr: left, Not: not, Select: sel}, nil
		}
		in := &InList{Expr: left, Not: not}
		if p.current().Type == TokenRightParen {
			p.advance()
			return in, nil
		}
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		in.List = list
		return in, nil
	}

	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if p.current().Type == TokenDot {
		p.advance()
		if name, err = p.parseName(); err != nil {
			return nil, err
		}
	}
	in := &InTable{Expr: left, Not: not, Table: name}
	if p.current().Type == TokenLeftParen {
		p.advance()
		if p.current().Type != TokenRightParen {
			if in.Args, err = p.parseExprList(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// parseOpaqueSelect captures a parenthesized SELECT body as text; the
// current token is SELECT and the closing parenthesis is consumed.
func (p *Parser) parseOpaqueSelect() (*SelectStmt, error) {
	depth := 0
	var parts []string
	for {
		tok := p.current()
		switch tok.Type {
		case TokenEOF:
			return nil, p.errorf("unterminated subquery")
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			if depth == 0 {
				p.advance()
				return &SelectStmt{SQL: strings.Join(parts, " ")}, nil
			}
			depth--
		}
		if tok.Type == TokenString {
			parts = append(parts, "'"+strings.ReplaceAll(tok.Literal, "'", "''")+"'")
		} else {
			parts = append(parts, tok.Literal)
		}
		p.advance()
	}
}

func (p *Parser) parseCmpExpr() (Expr, error) {
	left, err := p.parseAddExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenLt || p.current().Type == TokenLe ||
		p.current().Type == TokenGt || p.current().Type == TokenGe {
		op := p.advance().Type
		right, err := p.parseAddExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseAddExpr() (Expr, error) {
	left, err := p.parseMulExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenPlus || p.current().Type == TokenMinus {
		op := p.advance().Type
		right, err := p.parseMulExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseMulExpr() (Expr, error) {
	left, err := p.parseConcatExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAsterisk || p.current().Type == TokenSlash || p.current().Type == TokenPercent {
		op := p.advance().Type
		right, err := p.parseConcatExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseConcatExpr() (Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenConcat {
		p.advance()
		right, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenConcat, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseUnaryExpr() (Expr, error) {
	if p.current().Type == TokenMinus || p.current().Type == TokenPlus {
		op := p.advance().Type
		inner, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Expr: inner}, nil
	}
	return p.parseCollateExpr()
}

func (p *Parser) parseCollateExpr() (Expr, error) {
	expr, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("COLLATE") {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		expr = &Collate{Expr: expr, Collation: name}
	}
	return expr, nil
}

func (p *Parser) parsePrimaryExpr() (Expr, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return parseNumber(tok.Literal)

	case TokenString:
		p.advance()
		return &Literal{Value: tok.Literal}, nil

	case TokenBlob:
		p.advance()
		b, _ := hex.DecodeString(tok.Literal)
		return &Literal{Value: b}, nil

	case TokenVariable:
		p.advance()
		return p.bindVariable(tok.Literal)

	case TokenLeftParen:
		p.advance()
		if p.current().Is("SELECT") {
			sel, err := p.parseOpaqueSelect()
			if err != nil {
				return nil, err
			}
			return &SubqueryExpr{Select: sel}, nil
		}
		list, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return &Parenthesized{Exprs: list}, nil

	case TokenNot:
		if p.peek().Is("EXISTS") {
			p.advance()
			p.advance()
			return p.parseExists(true)
		}

	case TokenIdentifier:
		return p.parseIdentifierExpr()

	case TokenKeyword:
		switch tok.Literal {
		case "NULL":
			p.advance()
			return &Literal{Value: nil}, nil
		case "TRUE":
			p.advance()
			return &Literal{Value: int64(1)}, nil
		case "FALSE":
			p.advance()
			return &Literal{Value: int64(0)}, nil
		case "CASE":
			return p.parseCaseExpr()
		case "CAST":
			return p.parseCastExpr()
		case "EXISTS":
			p.advance()
			return p.parseExists(false)
		}
		if nameKeywords[tok.Literal] {
			return p.parseIdentifierExpr()
		}
	}

	return nil, p.errorf("unexpected %q in expression", tok.Literal)
}

func parseNumber(lit string) (Expr, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if v, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return &Literal{Value: v}, nil
		}
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, err
	}
	return &Literal{Value: v}, nil
}

func (p *Parser) bindVariable(lit string) (Expr, error) {
	if lit == "?" {
		p.nextVar++
		return &Variable{Name: lit, Index: p.nextVar}, nil
	}
	if lit[0] == '?' {
		n, err := strconv.Atoi(lit[1:])
		if err != nil || n < 1 {
			return nil, p.errorf("invalid parameter %q", lit)
		}
		if n > p.nextVar {
			p.nextVar = n
		}
		return &Variable{Name: lit, Index: n}, nil
	}
	if idx, ok := p.named[lit]; ok {
		return &Variable{Name: lit, Index: idx}, nil
	}
	p.nextVar++
	p.named[lit] = p.nextVar
	return &Variable{Name: lit, Index: p.nextVar}, nil
}

func (p *Parser) parseExists(not bool) (Expr, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	if !p.current().Is("SELECT") {
		return nil, p.errorf("expected SELECT after EXISTS")
	}
	sel, err := p.parseOpaqueSelect()
	if err != nil {
		return nil, err
	}
	return &ExistsExpr{Not: not, Select: sel}, nil
}

func (p *Parser) parseIdentifierExpr() (Expr, error) {
	first, err := p.parseName()
	if err != nil {
		return nil, err
	}

	if p.current().Type == TokenLeftParen {
		return p.parseFuncCall(first)
	}

	if p.current().Type != TokenDot {
		return &Id{Name: first}, nil
	}
	p.advance()
	second, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if p.current().Type != TokenDot {
		return &Qualified{Table: first, Column: second}, nil
	}
	p.advance()
	third, err := p.parseName()
	if err != nil {
		return nil, err
	}
	return &DoublyQualified{Schema: first, Table: second, Column: third}, nil
}

func (p *Parser) parseFuncCall(name string) (Expr, error) {
	p.advance()
	fc := &FuncCall{Name: strings.ToLower(name)}

	switch {
	case p.current().Type == TokenAsterisk:
		p.advance()
		fc.Star = true
	case p.current().Type == TokenRightParen:
	default:
		fc.Distinct = p.acceptKeyword("DISTINCT")
		args, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		fc.Args = args
		if p.current().Is("ORDER") {
			p.advance()
			if err := p.expectKeyword("BY"); err != nil {
				return nil, err
			}
			if fc.OrderBy, err = p.parseOrderingTerms(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	if p.acceptKeyword("FILTER") {
		if _, err := p.expect(TokenLeftParen); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("WHERE"); err != nil {
			return nil, err
		}
		filter, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		fc.Filter = filter
	}
	return fc, nil
}

func (p *Parser) parseOrderingTerms() ([]OrderingTerm, error) {
	var terms []OrderingTerm
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		term := OrderingTerm{Expr: e}
		if p.acceptKeyword("DESC") {
			term.Desc = true
		} else {
			p.acceptKeyword("ASC")
		}
		terms = append(terms, term)
		if p.current().Type != TokenComma {
			return terms, nil
		}
		p.advance()
	}
}

func (p *Parser) parseCaseExpr() (Expr, error) {
	p.advance()
	ce := &CaseExpr{}

	if !p.current().Is("WHEN") {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Operand = operand
	}

	for p.acceptKeyword("WHEN") {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, CaseWhen{Condition: cond, Result: result})
	}
	if len(ce.Whens) == 0 {
		return nil, p.errorf("CASE requires at least one WHEN")
	}

	if p.acceptKeyword("ELSE") {
		elseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Else = elseExpr
	}

	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return ce, nil
}

func (p *Parser) parseCastExpr() (Expr, error) {
	p.advance()
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	spec, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, p.errorf("expected type name in CAST")
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return &CastExpr{Expr: inner, TypeSpec: spec}, nil
}

// parseTypeSpec reads a possibly multi-word type name with optional
// (precision[, scale]). An absent type yields an empty name.
func (p *Parser) parseTypeSpec() (TypeSpec, error) {
	var words []string
	for p.current().Type == TokenIdentifier {
		words = append(words, strings.ToUpper(p.advance().Literal))
	}
	spec := TypeSpec{Name: strings.Join(words, " ")}
	if len(words) == 0 || p.current().Type != TokenLeftParen {
		return spec, nil
	}
	p.advance()
	n, err := p.parseSignedInt()
	if err != nil {
		return spec, err
	}
	spec.Precision = n
	if p.current().Type == TokenComma {
		p.advance()
		if spec.Scale, err = p.parseSignedInt(); err != nil {
			return spec, err
		}
	}
	_, err = p.expect(TokenRightParen)
	return spec, err
}

func (p *Parser) parseSignedInt() (int, error) {
	neg := false
	if p.current().Type == TokenMinus || p.current().Type == TokenPlus {
		neg = p.advance().Type == TokenMinus
	}
	tok, err := p.expect(TokenNumber)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Literal)
	if err != nil {
		return 0, p.errorf("expected integer, got %q", tok.Literal)
	}
	if neg {
		n = -n
	}
	return n, nil
}

func (p *Parser) parseExprList() ([]Expr, error) {
	var list []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if p.current().Type != TokenComma {
			return list, nil
		}
		p.advance()
	}
}
