package VM

import (
	"unicode/utf8"

	"github.com/sqlvibe/upsertc/internal/DS"
	SVDB "github.com/sqlvibe/upsertc/internal/SF/errors"
)

// likeOp evaluates value LIKE pattern [ESCAPE esc], or GLOB when glob is set.
func likeOp(value, pattern, esc DS.Value, glob, hasEscape bool) (DS.Value, error) {
	if value.IsNull() || pattern.IsNull() || (hasEscape && esc.IsNull()) {
		return DS.NullValue(), nil
	}
	var escape rune = -1
	if hasEscape {
		s := textOf(esc)
		if utf8.RuneCountInString(s) != 1 {
			return DS.Value{}, SVDB.NewError(SVDB.SVDB_ERROR, "ESCAPE expression must be a single character")
		}
		escape, _ = utf8.DecodeRuneInString(s)
	}
	p, s := []rune(textOf(pattern)), []rune(textOf(value))
	if glob {
		return DS.BoolValue(globMatch(p, s)), nil
	}
	return DS.BoolValue(likeMatch(p, s, escape)), nil
}

func foldRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// likeMatch matches with % and _ wildcards, folding ASCII case.
func likeMatch(p, s []rune, escape rune) bool {
	for len(p) > 0 {
		c := p[0]
		switch {
		case c == escape:
			if len(p) < 2 || len(s) == 0 || foldRune(p[1]) != foldRune(s[0]) {
				return false
			}
			p, s = p[2:], s[1:]
		case c == '%':
			for len(p) > 0 && (p[0] == '%' || p[0] == '_') {
				if p[0] == '_' {
					if len(s) == 0 {
						return false
					}
					s = s[1:]
				}
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if likeMatch(p, s[i:], escape) {
					return true
				}
			}
			return false
		case c == '_':
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
		default:
			if len(s) == 0 || foldRune(c) != foldRune(s[0]) {
				return false
			}
			p, s = p[1:], s[1:]
		}
	}
	return len(s) == 0
}

// globMatch matches with *, ? and [...] character classes, case-sensitively.
func globMatch(p, s []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			for len(p) > 0 && p[0] == '*' {
				p = p[1:]
			}
			if len(p) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatch(p, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
		case '[':
			if len(s) == 0 {
				return false
			}
			n, ok := matchClass(p, s[0])
			if n == 0 || !ok {
				return false
			}
			p, s = p[n:], s[1:]
		default:
			if len(s) == 0 || p[0] != s[0] {
				return false
			}
			p, s = p[1:], s[1:]
		}
	}
	return len(s) == 0
}

// matchClass matches r against the class at the start of p, returning the
// class length in runes (0 when unterminated).
func matchClass(p []rune, r rune) (int, bool) {
	i := 1
	invert := false
	if i < len(p) && p[i] == '^' {
		invert = true
		i++
	}
	matched := false
	first := true
	for i < len(p) {
		c := p[i]
		if c == ']' && !first {
			if invert {
				matched = !matched
			}
			return i + 1, matched
		}
		first = false
		if i+2 < len(p) && p[i+1] == '-' && p[i+2] != ']' {
			if r >= c && r <= p[i+2] {
				matched = true
			}
			i += 3
			continue
		}
		if r == c {
			matched = true
		}
		i++
	}
	return 0, false
}
