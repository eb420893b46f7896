package expr

import (
	"strings"

	"github.com/blockpp/blockpp/pperrors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokString
	tokSymbol
)

type token struct {
	kind tokenKind
	text string
}

// lexer turns already-buffered expression text into tokens. Expression text
// is a single line materialized in memory (never a multi-line stream like a
// whole source file), so a plain string-scanning lexer is used here instead
// of gazelle_cc's bufio.Scanner-based tokenizer (language/internal/cc/parser/
// parser.go's tokenizer split func), which exists to stream tokens off an
// io.Reader one buffer at a time.
type lexer struct {
	src []rune
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src)}
}

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) skipSpace() {
	for {
		r, ok := l.peekRune()
		if !ok || !isSpace(r) {
			return
		}
		l.pos++
	}
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
func isIdentPart(r rune) bool { return isIdentStart(r) || isDigit(r) }

var multiCharSymbols = []string{"==", "!=", "<=", ">=", "&&", "||"}

// next returns the next token, consuming it.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	r, ok := l.peekRune()
	if !ok {
		return token{kind: tokEOF}, nil
	}

	switch {
	case isDigit(r):
		start := l.pos
		for {
			r, ok := l.peekRune()
			if !ok || !isDigit(r) {
				break
			}
			l.pos++
		}
		return token{kind: tokInt, text: string(l.src[start:l.pos])}, nil

	case isIdentStart(r):
		start := l.pos
		for {
			r, ok := l.peekRune()
			if !ok || !isIdentPart(r) {
				break
			}
			l.pos++
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos])}, nil

	case r == '"':
		return l.scanString()

	default:
		for _, sym := range multiCharSymbols {
			if l.hasPrefix(sym) {
				l.pos += len([]rune(sym))
				return token{kind: tokSymbol, text: sym}, nil
			}
		}
		l.pos++
		return token{kind: tokSymbol, text: string(r)}, nil
	}
}

func (l *lexer) hasPrefix(s string) bool {
	runes := []rune(s)
	if l.pos+len(runes) > len(l.src) {
		return false
	}
	for i, r := range runes {
		if l.src[l.pos+i] != r {
			return false
		}
	}
	return true
}

func (l *lexer) scanString() (token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			return token{}, pperrors.New(pperrors.ExpressionSyntax, "unterminated string literal")
		}
		if r == '"' {
			l.pos++
			return token{kind: tokString, text: b.String()}, nil
		}
		if r == '\\' {
			l.pos++
			next, ok := l.peekRune()
			if !ok {
				return token{}, pperrors.New(pperrors.ExpressionSyntax, "unterminated string literal")
			}
			switch next {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '"', '\\':
				b.WriteRune(next)
			default:
				b.WriteRune(next)
			}
			l.pos++
			continue
		}
		b.WriteRune(r)
		l.pos++
	}
}
