// Package query compiles row filter expressions into engine predicates.
//
//	Manager == ["Debra Henley"]
//	Status in ["pending", "won"] & Manager == "Debra Henley"
//	not (Status == "declined") | `Sales Rep` != 'Wendy Yule'
//
// "==" against a list is a membership test, "!=" against a list its negation.
// "&"/"and" binds tighter than "|"/"or"; "~"/"not" binds tightest.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spektr-org/pivot/engine"
)

// SyntaxError reports where an expression stopped making sense.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query syntax error at offset %d in %q: %s", e.Pos, e.Expr, e.Msg)
}

// ============================================================================
// AST
// ============================================================================

// Expr is a parsed filter expression.
type Expr interface {
	// Predicate compiles the expression.
	Predicate() engine.Predicate
	// Keys lists the row key names the expression reads, in order of appearance.
	Keys() []string
	String() string
}

// Membership is `Key in [values]` or its negation.
type Membership struct {
	Key    string
	Values []any
	Negate bool
}

func (m *Membership) Predicate() engine.Predicate {
	if m.Negate {
		return engine.NotIn(m.Key, m.Values...)
	}
	return engine.In(m.Key, m.Values...)
}

func (m *Membership) Keys() []string { return []string{m.Key} }

func (m *Membership) String() string {
	vals := make([]string, len(m.Values))
	for i, v := range m.Values {
		if s, ok := v.(string); ok {
			vals[i] = strconv.Quote(s)
		} else if v == nil {
			vals[i] = "None"
		} else {
			vals[i] = engine.FormatValue(v)
		}
	}
	op := "in"
	if m.Negate {
		op = "not in"
	}
	return fmt.Sprintf("%s %s [%s]", m.Key, op, strings.Join(vals, ", "))
}

// Logical joins two expressions with "and" or "or".
type Logical struct {
	Op          TokenType // AND or OR
	Left, Right Expr
}

func (l *Logical) Predicate() engine.Predicate {
	if l.Op == AND {
		return engine.And(l.Left.Predicate(), l.Right.Predicate())
	}
	return engine.Or(l.Left.Predicate(), l.Right.Predicate())
}

func (l *Logical) Keys() []string { return append(l.Left.Keys(), l.Right.Keys()...) }

func (l *Logical) String() string {
	return fmt.Sprintf("(%s %s %s)", l.Left, l.Op, l.Right)
}

// Negation inverts an expression.
type Negation struct {
	Expr Expr
}

func (n *Negation) Predicate() engine.Predicate { return engine.Not(n.Expr.Predicate()) }

func (n *Negation) Keys() []string { return n.Expr.Keys() }

func (n *Negation) String() string { return fmt.Sprintf("not %s", n.Expr) }

// ============================================================================
// PARSER
// ============================================================================

type Parser struct {
	expr   string
	tokens []Token
	pos    int
}

// Parse parses a filter expression.
func Parse(expr string) (Expr, error) {
	p := &Parser{expr: expr, tokens: NewLexer(expr).Tokens()}
	if p.peek().Type == EOF {
		return nil, p.errorf(p.peek(), "empty expression")
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, p.errorf(tok, "unexpected %s after expression", describe(tok))
	}
	return e, nil
}

func (p *Parser) peek() Token { return p.tokens[p.pos] }

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) errorf(tok Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Expr: p.expr, Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(t TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != t {
		return tok, p.errorf(tok, "expected %s, got %s", t, describe(tok))
	}
	return tok, nil
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for t := p.peek().Type; t == OR || t == PIPE; t = p.peek().Type {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: OR, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for t := p.peek().Type; t == AND || t == AMPERSAND; t = p.peek().Type {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: AND, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if t := p.peek().Type; t == NOT || t == TILDE {
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Negation{Expr: e}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.Type {
	case PAREN_OPEN:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(PAREN_CLOSE); err != nil {
			return nil, err
		}
		return e, nil
	case IDENTIFIER:
		return p.parseComparison(tok.Literal)
	}
	return nil, p.errorf(tok, "expected row key or '(', got %s", describe(tok))
}

// parseComparison handles `key == x`, `key != x`, `key in [..]`, `key not in [..]`.
func (p *Parser) parseComparison(key string) (Expr, error) {
	m := &Membership{Key: key}
	op := p.next()
	switch op.Type {
	case EQUALS:
	case NOT_EQUALS:
		m.Negate = true
	case IN:
	case NOT:
		if _, err := p.expect(IN); err != nil {
			return nil, err
		}
		m.Negate = true
	default:
		return nil, p.errorf(op, "expected ==, !=, in or not in after %q, got %s", key, describe(op))
	}

	vals, err := p.parseOperand(op.Type == IN || op.Type == NOT)
	if err != nil {
		return nil, err
	}
	m.Values = vals
	return m, nil
}

// parseOperand reads a literal or a bracketed list. "in" requires a list.
func (p *Parser) parseOperand(listOnly bool) ([]any, error) {
	if p.peek().Type != BRACKET_OPEN {
		if listOnly {
			return nil, p.errorf(p.peek(), "expected '[' after in, got %s", describe(p.peek()))
		}
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}

	p.next()
	var vals []any
	if p.peek().Type == BRACKET_CLOSE {
		p.next()
		return vals, nil
	}
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)

		tok := p.next()
		switch tok.Type {
		case COMMA:
			if p.peek().Type == BRACKET_CLOSE {
				p.next()
				return vals, nil
			}
		case BRACKET_CLOSE:
			return vals, nil
		default:
			return nil, p.errorf(tok, "expected ',' or ']', got %s", describe(tok))
		}
	}
}

func (p *Parser) parseLiteral() (any, error) {
	tok := p.next()
	switch tok.Type {
	case STRING:
		return tok.Literal, nil
	case NUMBER:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %q", tok.Literal)
		}
		return f, nil
	case TRUE:
		return true, nil
	case FALSE:
		return false, nil
	case NULL:
		return nil, nil
	}
	return nil, p.errorf(tok, "expected a literal, got %s", describe(tok))
}

func describe(tok Token) string {
	switch tok.Type {
	case EOF:
		return "end of expression"
	case IDENTIFIER, STRING, NUMBER, ILLEGAL:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
	return fmt.Sprintf("%q", tok.Type.String())
}
