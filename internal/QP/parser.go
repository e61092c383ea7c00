package QP

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/sqlvibe/upsertc/internal/SF/util"
)

type Parser struct {
	tokens  []Token
	pos     int
	nextVar int
	named   map[string]int
}

func NewParser(tokens []Token) *Parser {
	util.AssertNotNil(tokens, "tokens")
	return &Parser{
		tokens: tokens,
		named:  make(map[string]int),
	}
}

// Parse parses a single statement.
func Parse(sql string) (ASTNode, error) {
	tokens, err := NewTokenizer(sql).Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	stmt, err := p.Parse()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenSemicolon {
		p.advance()
	}
	if !p.isEOF() {
		return nil, p.errorf("unexpected %q after end of statement", p.current().Literal)
	}
	return stmt, nil
}

// ParseScript parses a semicolon-separated list of statements.
func ParseScript(sql string) ([]ASTNode, error) {
	tokens, err := NewTokenizer(sql).Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	var stmts []ASTNode
	for {
		for p.current().Type == TokenSemicolon {
			p.advance()
		}
		if p.isEOF() {
			return stmts, nil
		}
		// Parameter numbering restarts with each statement.
		p.nextVar = 0
		p.named = make(map[string]int)
		stmt, err := p.Parse()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if !p.isEOF() && p.current().Type != TokenSemicolon {
			return nil, p.errorf("unexpected %q after end of statement", p.current().Literal)
		}
	}
}

// SplitStatements returns the source text of each statement of a script,
// without the separating semicolons. Empty statements are dropped, so the
// result lines up with ParseScript.
func SplitStatements(sql string) ([]string, error) {
	tokens, err := NewTokenizer(sql).Tokenize()
	if err != nil {
		return nil, err
	}
	var out []string
	start := -1
	for _, tok := range tokens {
		switch tok.Type {
		case TokenSemicolon, TokenEOF:
			if start >= 0 {
				out = append(out, strings.TrimSpace(sql[start:tok.Location]))
				start = -1
			}
		default:
			if start < 0 {
				start = tok.Location
			}
		}
	}
	return out, nil
}

func (p *Parser) Parse() (ASTNode, error) {
	tok := p.current()
	switch {
	case tok.Is("CREATE"):
		return p.parseCreate()
	case tok.Is("INSERT"):
		return p.parseInsert()
	case tok.Type == TokenEOF:
		return nil, p.errorf("empty statement")
	default:
		return nil, p.errorf("unsupported statement starting with %q", tok.Literal)
	}
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, p.errorf("expected %s, got %q", typ, tok.Literal)
	}
	p.advance()
	return tok, nil
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.current().Is(kw) {
		return p.errorf("expected %s, got %q", kw, p.current().Literal)
	}
	p.advance()
	return nil
}

// acceptKeyword consumes kw if it is the current token.
func (p *Parser) acceptKeyword(kw string) bool {
	if p.current().Is(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) isEOF() bool {
	return p.current().Type == TokenEOF
}

// parseName accepts an identifier, or a keyword used as a name where the
// grammar is unambiguous.
func (p *Parser) parseName() (string, error) {
	tok := p.current()
	switch tok.Type {
	case TokenIdentifier:
		p.advance()
		return tok.Literal, nil
	case TokenKeyword:
		if nameKeywords[tok.Literal] {
			p.advance()
			return strings.ToLower(tok.Literal), nil
		}
	}
	return "", p.errorf("expected name, got %q", tok.Literal)
}

// Keywords that SQLite accepts as bare column or collation names.
var nameKeywords = map[string]bool{
	"KEY":      true,
	"DO":       true,
	"NOTHING":  true,
	"CONFLICT": true,
	"STRICT":   true,
	"TEMP":     true,
	"FILTER":   true,
	"ESCAPE":   true,
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Newf(format, args...), "near position %d", p.current().Location)
}
