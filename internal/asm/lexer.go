package asm

import (
	"fmt"
	"strconv"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIdent
	tokNumber
	tokComma
	tokColon
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "end of line"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokComma:
		return "','"
	case tokColon:
		return "':'"
	}
	return fmt.Sprintf("token(%d)", uint8(k))
}

type token struct {
	kind tokenKind
	text string
	val  int
	line int
}

type lexer struct {
	src  []byte
	pos  int
	line int
}

func newLexer(src []byte) *lexer { return &lexer{src: src, line: 1} }

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#' || c == ';':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '\n':
			l.pos++
			l.line++
			return token{kind: tokNewline, line: l.line - 1}, nil
		case c == ',':
			l.pos++
			return token{kind: tokComma, text: ",", line: l.line}, nil
		case c == ':':
			l.pos++
			return token{kind: tokColon, text: ":", line: l.line}, nil
		case isDigit(c):
			return l.number()
		case isIdentStart(c):
			start := l.pos
			for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
				l.pos++
			}
			return token{kind: tokIdent, text: string(l.src[start:l.pos]), line: l.line}, nil
		default:
			return token{}, errorf(l.line, "unexpected character %q", c)
		}
	}
	return token{kind: tokEOF, line: l.line}, nil
}

func (l *lexer) number() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	var (
		v   uint64
		err error
	)
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		v, err = strconv.ParseUint(text[2:], 16, 16)
	} else {
		v, err = strconv.ParseUint(text, 10, 16)
	}
	if err != nil {
		return token{}, errorf(l.line, "invalid number %q", text)
	}
	return token{kind: tokNumber, text: text, val: int(v), line: l.line}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
