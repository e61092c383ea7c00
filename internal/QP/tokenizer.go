package QP

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

type TokenType int

const (
	TokenInvalid TokenType = iota
	TokenEOF
	TokenIdentifier
	TokenString
	TokenNumber
	TokenBlob
	TokenVariable
	TokenKeyword
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenSemicolon
	TokenDot
	TokenAsterisk
	TokenEq
	TokenNe
	TokenLt
	TokenLe
	TokenGt
	TokenGe
	TokenPlus
	TokenMinus
	TokenSlash
	TokenPercent
	TokenConcat
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenLike
	TokenGlob
	TokenBetween
	TokenIs
	TokenIsNot
)

var tokenNames = map[TokenType]string{
	TokenEq:       "=",
	TokenNe:       "!=",
	TokenLt:       "<",
	TokenLe:       "<=",
	TokenGt:       ">",
	TokenGe:       ">=",
	TokenPlus:     "+",
	TokenMinus:    "-",
	TokenAsterisk: "*",
	TokenSlash:    "/",
	TokenPercent:  "%",
	TokenConcat:   "||",
	TokenAnd:      "AND",
	TokenOr:       "OR",
	TokenNot:      "NOT",
	TokenIs:       "IS",
	TokenIsNot:    "IS NOT",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]TokenType{
	"AND":           TokenAnd,
	"OR":            TokenOr,
	"NOT":           TokenNot,
	"IN":            TokenIn,
	"LIKE":          TokenLike,
	"GLOB":          TokenGlob,
	"BETWEEN":       TokenBetween,
	"IS":            TokenIs,
	"ISNULL":        TokenKeyword,
	"NOTNULL":       TokenKeyword,
	"NULL":          TokenKeyword,
	"TRUE":          TokenKeyword,
	"FALSE":         TokenKeyword,
	"SELECT":        TokenKeyword,
	"FROM":          TokenKeyword,
	"WHERE":         TokenKeyword,
	"INSERT":        TokenKeyword,
	"INTO":          TokenKeyword,
	"VALUES":        TokenKeyword,
	"UPDATE":        TokenKeyword,
	"SET":           TokenKeyword,
	"CREATE":        TokenKeyword,
	"TABLE":         TokenKeyword,
	"INDEX":         TokenKeyword,
	"PRIMARY":       TokenKeyword,
	"KEY":           TokenKeyword,
	"UNIQUE":        TokenKeyword,
	"DEFAULT":       TokenKeyword,
	"CHECK":         TokenKeyword,
	"CONSTRAINT":    TokenKeyword,
	"REFERENCES":    TokenKeyword,
	"ON":            TokenKeyword,
	"AS":            TokenKeyword,
	"ORDER":         TokenKeyword,
	"BY":            TokenKeyword,
	"ASC":           TokenKeyword,
	"DESC":          TokenKeyword,
	"CASE":          TokenKeyword,
	"WHEN":          TokenKeyword,
	"THEN":          TokenKeyword,
	"ELSE":          TokenKeyword,
	"END":           TokenKeyword,
	"EXISTS":        TokenKeyword,
	"CAST":          TokenKeyword,
	"DISTINCT":      TokenKeyword,
	"COLLATE":       TokenKeyword,
	"ESCAPE":        TokenKeyword,
	"FILTER":        TokenKeyword,
	"CONFLICT":      TokenKeyword,
	"DO":            TokenKeyword,
	"NOTHING":       TokenKeyword,
	"RETURNING":     TokenKeyword,
	"STRICT":        TokenKeyword,
	"WITHOUT":       TokenKeyword,
	"IF":            TokenKeyword,
	"AUTOINCREMENT": TokenKeyword,
	"TEMP":          TokenKeyword,
	"TEMPORARY":     TokenKeyword,
}

type Token struct {
	Type     TokenType
	Literal  string
	Location int
}

// Is reports whether the token is the keyword kw (upper case).
func (t Token) Is(kw string) bool {
	switch t.Type {
	case TokenKeyword, TokenAnd, TokenOr, TokenNot, TokenIn, TokenLike, TokenGlob, TokenBetween, TokenIs:
		return t.Literal == kw
	}
	return false
}

type Tokenizer struct {
	input  string
	pos    int
	start  int
	tokens []Token
}

func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{
		input:  input,
		tokens: make([]Token, 0),
	}
}

func (t *Tokenizer) Tokenize() ([]Token, error) {
	for {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			t.start = t.pos
			t.addToken(TokenEOF, "")
			break
		}

		ch := t.input[t.pos]
		t.start = t.pos

		var err error
		switch {
		case (ch == 'x' || ch == 'X') && t.pos+1 < len(t.input) && t.input[t.pos+1] == '\'':
			err = t.readBlob()
		case unicode.IsLetter(rune(ch)) || ch == '_':
			t.readIdentifier()
		case unicode.IsDigit(rune(ch)) || (ch == '.' && t.pos+1 < len(t.input) && unicode.IsDigit(rune(t.input[t.pos+1]))):
			t.readNumber()
		case ch == '\'':
			err = t.readString()
		case ch == '"' || ch == '`' || ch == '[':
			err = t.readQuotedIdentifier()
		case ch == '?' || ch == ':' || ch == '@' || ch == '$':
			t.readVariable()
		default:
			err = t.readOperator()
		}
		if err != nil {
			return nil, err
		}
	}
	return t.tokens, nil
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			t.pos++
		} else if ch == '-' && t.pos+1 < len(t.input) && t.input[t.pos+1] == '-' {
			for t.pos < len(t.input) && t.input[t.pos] != '\n' {
				t.pos++
			}
		} else if ch == '/' && t.pos+1 < len(t.input) && t.input[t.pos+1] == '*' {
			t.pos += 2
			for t.pos < len(t.input) {
				if t.input[t.pos] == '*' && t.pos+1 < len(t.input) && t.input[t.pos+1] == '/' {
					t.pos += 2
					break
				}
				t.pos++
			}
		} else {
			break
		}
	}
}

func (t *Tokenizer) readIdentifier() {
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) || ch == '_' || ch == '$' {
			t.pos++
		} else {
			break
		}
	}

	literal := t.input[t.start:t.pos]
	upper := strings.ToUpper(literal)

	if tokenType, ok := keywords[upper]; ok {
		t.addToken(tokenType, upper)
	} else {
		t.addToken(TokenIdentifier, literal)
	}
}

func (t *Tokenizer) readQuotedIdentifier() error {
	open := t.input[t.pos]
	closing := open
	if open == '[' {
		closing = ']'
	}
	t.pos++

	var sb strings.Builder
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if ch == closing {
			// Doubled quote characters escape themselves.
			if closing != ']' && t.pos+1 < len(t.input) && t.input[t.pos+1] == closing {
				sb.WriteByte(ch)
				t.pos += 2
				continue
			}
			t.pos++
			t.addToken(TokenIdentifier, sb.String())
			return nil
		}
		sb.WriteByte(ch)
		t.pos++
	}
	return errors.Newf("unterminated quoted identifier at position %d", t.start)
}

func (t *Tokenizer) readNumber() {
	hasDot := false
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if unicode.IsDigit(rune(ch)) {
			t.pos++
		} else if ch == '.' && !hasDot {
			hasDot = true
			t.pos++
		} else if ch == 'e' || ch == 'E' {
			t.pos++
			if t.pos < len(t.input) && (t.input[t.pos] == '+' || t.input[t.pos] == '-') {
				t.pos++
			}
		} else {
			break
		}
	}

	t.addToken(TokenNumber, t.input[t.start:t.pos])
}

func (t *Tokenizer) readString() error {
	t.pos++

	var sb strings.Builder
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if ch == '\'' {
			if t.pos+1 < len(t.input) && t.input[t.pos+1] == '\'' {
				sb.WriteByte('\'')
				t.pos += 2
				continue
			}
			t.pos++
			t.addToken(TokenString, sb.String())
			return nil
		}
		sb.WriteByte(ch)
		t.pos++
	}
	return errors.Newf("unterminated string at position %d", t.start)
}

func (t *Tokenizer) readBlob() error {
	t.pos += 2
	begin := t.pos
	for t.pos < len(t.input) && t.input[t.pos] != '\'' {
		t.pos++
	}
	if t.pos >= len(t.input) {
		return errors.Newf("unterminated blob literal at position %d", t.start)
	}
	digits := t.input[begin:t.pos]
	t.pos++
	if _, err := hex.DecodeString(digits); err != nil {
		return errors.Newf("malformed blob literal at position %d", t.start)
	}
	t.addToken(TokenBlob, digits)
	return nil
}

func (t *Tokenizer) readVariable() {
	t.pos++
	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		if unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) || ch == '_' {
			t.pos++
		} else {
			break
		}
	}
	t.addToken(TokenVariable, t.input[t.start:t.pos])
}

func (t *Tokenizer) readOperator() error {
	ch := t.input[t.pos]
	t.pos++

	switch ch {
	case '(':
		t.addToken(TokenLeftParen, "(")
	case ')':
		t.addToken(TokenRightParen, ")")
	case ',':
		t.addToken(TokenComma, ",")
	case ';':
		t.addToken(TokenSemicolon, ";")
	case '.':
		t.addToken(TokenDot, ".")
	case '*':
		t.addToken(TokenAsterisk, "*")
	case '=':
		if t.pos < len(t.input) && t.input[t.pos] == '=' {
			t.pos++
		}
		t.addToken(TokenEq, "=")
	case '<':
		if t.pos < len(t.input) && t.input[t.pos] == '=' {
			t.pos++
			t.addToken(TokenLe, "<=")
		} else if t.pos < len(t.input) && t.input[t.pos] == '>' {
			t.pos++
			t.addToken(TokenNe, "<>")
		} else {
			t.addToken(TokenLt, "<")
		}
	case '>':
		if t.pos < len(t.input) && t.input[t.pos] == '=' {
			t.pos++
			t.addToken(TokenGe, ">=")
		} else {
			t.addToken(TokenGt, ">")
		}
	case '!':
		if t.pos < len(t.input) && t.input[t.pos] == '=' {
			t.pos++
			t.addToken(TokenNe, "!=")
		} else {
			return errors.Newf("invalid operator '!' at position %d", t.start)
		}
	case '+':
		t.addToken(TokenPlus, "+")
	case '-':
		t.addToken(TokenMinus, "-")
	case '/':
		t.addToken(TokenSlash, "/")
	case '%':
		t.addToken(TokenPercent, "%")
	case '|':
		if t.pos < len(t.input) && t.input[t.pos] == '|' {
			t.pos++
			t.addToken(TokenConcat, "||")
		} else {
			return errors.Newf("invalid operator '|' at position %d", t.start)
		}
	default:
		return errors.Newf("invalid character '%c' at position %d", ch, t.start)
	}
	return nil
}

func (t *Tokenizer) addToken(tokenType TokenType, literal string) {
	t.tokens = append(t.tokens, Token{
		Type:     tokenType,
		Literal:  literal,
		Location: t.start,
	})
}
