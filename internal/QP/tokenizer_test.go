package QP

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizerInsert(t *testing.T) {
	tokens, err := NewTokenizer("insert into users (name, age) values ('John', 25)").Tokenize()
	require.NoError(t, err)

	require.Equal(t, TokenKeyword, tokens[0].Type)
	require.Equal(t, "INSERT", tokens[0].Literal)
	require.True(t, tokens[0].Is("INSERT"))
	require.Equal(t, TokenIdentifier, tokens[2].Type)
	require.Equal(t, "users", tokens[2].Literal)
	require.Equal(t, TokenEOF, tokens[len(tokens)-1].Type)
}

func TestTokenizerQuoting(t *testing.T) {
	tokens, err := NewTokenizer(`"we""ird" [br ack] ` + "`bq`" + ` 'it''s' x'0aFF'`).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 6)

	require.Equal(t, Token{Type: TokenIdentifier, Literal: `we"ird`, Location: 0}, tokens[0])
	require.Equal(t, TokenIdentifier, tokens[1].Type)
	require.Equal(t, "br ack", tokens[1].Literal)
	require.Equal(t, "bq", tokens[2].Literal)
	require.Equal(t, TokenString, tokens[3].Type)
	require.Equal(t, "it's", tokens[3].Literal)
	require.Equal(t, TokenBlob, tokens[4].Type)
	require.Equal(t, "0aFF", tokens[4].Literal)
}

func TestTokenizerOperators(t *testing.T) {
	tokens, err := NewTokenizer("a == b <> c != d || e <= f >= g").Tokenize()
	require.NoError(t, err)

	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	require.Equal(t, []TokenType{
		TokenIdentifier, TokenEq, TokenIdentifier, TokenNe, TokenIdentifier, TokenNe,
		TokenIdentifier, TokenConcat, TokenIdentifier, TokenLe, TokenIdentifier, TokenGe,
		TokenIdentifier, TokenEOF,
	}, types)
}

func TestTokenizerVariablesAndComments(t *testing.T) {
	tokens, err := NewTokenizer("? -- trailing\n ?3 /* block */ :name @x $y").Tokenize()
	require.NoError(t, err)

	var lits []string
	for _, tok := range tokens[:len(tokens)-1] {
		require.Equal(t, TokenVariable, tok.Type)
		lits = append(lits, tok.Literal)
	}
	require.Equal(t, []string{"?", "?3", ":name", "@x", "$y"}, lits)
}

func TestTokenizerErrors(t *testing.T) {
	for _, sql := range []string{
		"'unterminated",
		`"unterminated`,
		"x'0g'",
		"a ! b",
		"a | b",
		"#",
	} {
		_, err := NewTokenizer(sql).Tokenize()
		require.Error(t, err, sql)
	}
}
