package lisp

import (
	"errors"
	"fmt"
)

// expression is a node of the syntax tree: apply, identifier or literal.
type expression interface {
	isExpression()
}

type apply struct {
	args []expression
}

type identifier struct {
	name string
}

type literal struct {
	value Value
}

func (apply) isExpression()      {}
func (identifier) isExpression() {}
func (literal) isExpression()    {}

// parser builds expressions from a token stream.
type parser struct {
	tokens []token
	pos    int
	depth  int
}

// parse returns every top level expression found in the source.
func parse(source string) ([]expression, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}

	p := parser{tokens: tokens}

	var exprs []expression
	for p.peek().typ != tokenEOF {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	if len(exprs) == 0 {
		return nil, errors.New("empty program")
	}

	return exprs, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) expression() (expression, error) {
	t := p.next()

	switch t.typ {
	case tokenLeftParen:
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > MaxDepth {
			return nil, ErrTooDeep
		}

		var args []expression
		for {
			switch p.peek().typ {
			case tokenRightParen:
				p.next()
				return apply{args: args}, nil
			case tokenEOF:
				return nil, errors.New("expected a closing ')'")
			}

			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}

	case tokenIdentifier:
		return identifier{name: t.text}, nil

	case tokenString, tokenNumber:
		return literal{value: t.value}, nil

	case tokenRightParen:
		return nil, errors.New("unexpected ')'")

	case tokenEOF:
		return nil, errors.New("unexpected end of program")
	}

	return nil, fmt.Errorf("unknown token %q", t.text)
}
