package QP

import (
	"regexp"
	"strings"
)

// queryWhitespace matches runs of whitespace, or a string literal or quoted
// identifier in any of the quoting styles the tokenizer accepts. Quoted text
// is kept verbatim while whitespace is folded.
var queryWhitespace = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` +
	"`(?:[^`]|``)*`" + `|\[[^\]]*\]|\s+`)

// NormalizeQuery normalizes a SQL string for statement cache keys. It trims
// the text and any trailing semicolons and folds whitespace outside quotes
// to a single space. Literal values are kept, since a compiled program
// embeds them.
func NormalizeQuery(sql string) string {
	sql = strings.TrimRight(strings.TrimSpace(sql), "; \t\r\n")
	return queryWhitespace.ReplaceAllStringFunc(sql, func(m string) string {
		switch m[0] {
		case '\'', '"', '`', '[':
			return m
		}
		return " "
	})
}

// NormalizeIdent returns the canonical spelling used for catalog lookups.
// Identifiers are case-insensitive.
func NormalizeIdent(name string) string {
	return strings.ToLower(name)
}

// IsRowidName reports whether name is one of the implicit rowid spellings.
func IsRowidName(name string) bool {
	switch NormalizeIdent(name) {
	case "rowid", "_rowid_", "oid":
		return true
	}
	return false
}
