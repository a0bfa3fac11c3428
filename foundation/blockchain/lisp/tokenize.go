package lisp

import (
	"fmt"
	"strconv"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenLeftParen
	tokenRightParen
	tokenString
	tokenNumber
	tokenIdentifier
)

type token struct {
	typ   tokenType
	text  string
	value Value // Set for literals.
}

// tokenize splits the source into tokens. The token stream always ends with
// a tokenEOF token.
func tokenize(source string) ([]token, error) {
	var tokens []token

	pos := 0
	for pos < len(source) {
		start := pos
		c := source[pos]
		pos++

		switch {
		case c == '(':
			tokens = append(tokens, token{typ: tokenLeftParen, text: "("})

		case c == ')':
			tokens = append(tokens, token{typ: tokenRightParen, text: ")"})

		case c == ';':
			for pos < len(source) && source[pos] != '\n' {
				pos++
			}

		case c == ' ' || c == '\n' || c == '\t' || c == '\r':

		case c == '"':
			for pos < len(source) && source[pos] != '"' {
				pos++
			}
			if pos >= len(source) {
				return nil, fmt.Errorf("unterminated string at %d", start)
			}
			pos++
			tokens = append(tokens, token{typ: tokenString, text: source[start:pos], value: source[start+1 : pos-1]})

		case isDigit(c):
			for pos < len(source) && isDigit(source[pos]) {
				pos++
			}
			if pos < len(source) && source[pos] == '.' {
				pos++
				for pos < len(source) && isDigit(source[pos]) {
					pos++
				}
			}
			n, err := strconv.ParseFloat(source[start:pos], 64)
			if err != nil {
				return nil, fmt.Errorf("number %q: %w", source[start:pos], err)
			}
			tokens = append(tokens, token{typ: tokenNumber, text: source[start:pos], value: n})

		case isAlpha(c) || isOperator(c):
			for pos < len(source) && isIdentifier(source[pos]) {
				pos++
			}
			tokens = append(tokens, token{typ: tokenIdentifier, text: source[start:pos]})

		default:
			return nil, fmt.Errorf("unexpected character %q at %d", c, start)
		}
	}

	return append(tokens, token{typ: tokenEOF}), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isOperator(c byte) bool {
	switch c {
	case '+', '-', '*', '<', '>':
		return true
	}
	return false
}

func isIdentifier(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '!' || c == '_' || c == '-'
}
