package rules

import (
	"fmt"
)

// Grammar:
//
//	expr       = term { "or" term }
//	term       = factor { "and" factor }
//	factor     = "(" expr ")" | comparison
//	comparison = operand comparator operand
//	operand    = indicator | number
type parser struct {
	rule   string
	tokens []token
	pos    int
}

func parse(rule string) (node, error) {
	tokens, err := lex(rule)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		return nil, &ParseError{Rule: rule, Pos: 0, Reason: "empty rule"}
	}
	p := &parser{rule: rule, tokens: tokens}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}
	return n, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...interface{}) *ParseError {
	return &ParseError{Rule: p.rule, Pos: tok.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binary{left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = &binary{and: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) factor() (node, error) {
	if p.peek().kind == tokLParen {
		open := p.next()
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.kind != tokRParen {
			return nil, p.errorf(open, "unbalanced parenthesis")
		}
		return n, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (node, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	tok := p.next()
	if tok.kind != tokCompare {
		return nil, p.errorf(tok, "expected comparator, got %s", describe(tok))
	}
	right, err := p.operand()
	if err != nil {
		return nil, err
	}
	return &comparison{left: left, op: tok.text, right: right}, nil
}

func (p *parser) operand() (operand, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent:
		return operand{indicator: tok.text}, nil
	case tokNumber:
		return operand{literal: tok.num}, nil
	case tokEOF:
		return operand{}, p.errorf(tok, "missing operand")
	}
	return operand{}, p.errorf(tok, "expected indicator or number, got %s", describe(tok))
}

func describe(tok token) string {
	if tok.text == "" {
		return tok.kind.String()
	}
	return fmt.Sprintf("%s %q", tok.kind, tok.text)
}
