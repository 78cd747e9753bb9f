package hdl

import (
	"fmt"

	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
	tokSemi
	tokColon
	tokEq
	tokDotDot
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of file",
	tokIdent:  "identifier",
	tokInt:    "integer",
	tokLBrace: `"{"`,
	tokRBrace: `"}"`,
	tokLParen: `"("`,
	tokRParen: `")"`,
	tokLBrack: `"["`,
	tokRBrack: `"]"`,
	tokComma:  `","`,
	tokSemi:   `";"`,
	tokColon:  `":"`,
	tokEq:     `"="`,
	tokDotDot: `".."`,
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string
	pos  hdlerrors.Position
}

func (t token) String() string {
	switch t.kind {
	case tokIdent, tokInt:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
	return t.kind.String()
}

// lexer splits HDL source into tokens, skipping whitespace and comments.
type lexer struct {
	src  []byte
	file string
	pos  int
	line int
	col  int
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{src: src, file: file, line: 1, col: 1}
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f'
}

func (l *lexer) peekByte(off int) (byte, bool) {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off], true
	}
	return 0, false
}

func (l *lexer) advance() {
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *lexer) position() hdlerrors.Position {
	return hdlerrors.Position{File: l.file, Line: l.line, Col: l.col}
}

func (l *lexer) errorf(pos hdlerrors.Position, format string, args ...any) error {
	return &hdlerrors.SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// skipTrivia consumes whitespace, line comments and block comments.
func (l *lexer) skipTrivia() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.advance()
		case c == '/':
			next, ok := l.peekByte(1)
			if !ok {
				return nil
			}
			switch next {
			case '/':
				for l.pos < len(l.src) && l.src[l.pos] != '\n' {
					l.advance()
				}
			case '*':
				start := l.position()
				l.advance()
				l.advance()
				closed := false
				for l.pos < len(l.src) {
					if c, _ := l.peekByte(0); c == '*' {
						if n, ok := l.peekByte(1); ok && n == '/' {
							l.advance()
							l.advance()
							closed = true
							break
						}
					}
					l.advance()
				}
				if !closed {
					return l.errorf(start, "unterminated block comment")
				}
			default:
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipTrivia(); err != nil {
		return token{}, err
	}
	pos := l.position()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}

	c := l.src[l.pos]
	switch {
	case isLetter(c):
		start := l.pos
		for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.advance()
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos]), pos: pos}, nil
	case isDigit(c):
		start := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
		return token{kind: tokInt, text: string(l.src[start:l.pos]), pos: pos}, nil
	case c == '.':
		if n, ok := l.peekByte(1); ok && n == '.' {
			l.advance()
			l.advance()
			return token{kind: tokDotDot, text: "..", pos: pos}, nil
		}
		return token{}, l.errorf(pos, `unexpected "."`)
	}

	kind, ok := punct[c]
	if !ok {
		return token{}, l.errorf(pos, "unexpected character %q", c)
	}
	l.advance()
	return token{kind: kind, text: string(c), pos: pos}, nil
}

var punct = map[byte]tokenKind{
	'{': tokLBrace,
	'}': tokRBrace,
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBrack,
	']': tokRBrack,
	',': tokComma,
	';': tokSemi,
	':': tokColon,
	'=': tokEq,
}
