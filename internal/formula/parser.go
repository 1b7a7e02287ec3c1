package formula

import "fmt"

// resolver supplies identifier and function-call values during evaluation.
// Identifiers resolve strictly against the value context; there is no access
// to anything outside it.
type resolver struct {
	ident func(name string) (float64, error)
	call  func(name string, arg float64) (float64, error)
}

type node interface {
	eval(res resolver) (float64, error)
}

type numberNode float64

func (n numberNode) eval(resolver) (float64, error) { return float64(n), nil }

type identNode string

func (n identNode) eval(res resolver) (float64, error) { return res.ident(string(n)) }

type callNode struct {
	name string
	arg  node
}

func (n callNode) eval(res resolver) (float64, error) {
	arg, err := n.arg.eval(res)
	if err != nil {
		return 0, err
	}
	return res.call(n.name, arg)
}

type unaryNode struct {
	operand node
}

func (n unaryNode) eval(res resolver) (float64, error) {
	v, err := n.operand.eval(res)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n binaryNode) eval(res resolver) (float64, error) {
	left, err := n.left.eval(res)
	if err != nil {
		return 0, err
	}
	right, err := n.right.eval(res)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		// Division by zero yields a non-finite value here; the evaluator
		// converts it to 0 at the boundary.
		return left / right, nil
	case "<":
		return boolValue(left < right), nil
	case "<=":
		return boolValue(left <= right), nil
	case ">":
		return boolValue(left > right), nil
	case ">=":
		return boolValue(left >= right), nil
	case "==":
		return boolValue(left == right), nil
	case "!=":
		return boolValue(left != right), nil
	}
	return 0, fmt.Errorf("unsupported operator %q", n.op)
}

type ternaryNode struct {
	cond, then, els node
}

// Branches evaluate lazily so a guard like `x == 0 ? 0 : y / x` never
// produces the non-finite division it exists to avoid.
func (n ternaryNode) eval(res resolver) (float64, error) {
	cond, err := n.cond.eval(res)
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return n.then.eval(res)
	}
	return n.els.eval(res)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type parser struct {
	tokens []token
	pos    int
}

// parse builds the expression tree for a tokenized formula.
func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	n, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q after expression", p.peek().text)
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.peek().kind != kind {
		return fmt.Errorf("expected %s, found %q", what, p.peek().text)
	}
	p.next()
	return nil
}

func (p *parser) parseTernary() (node, error) {
	cond, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokQuestion {
		return cond, nil
	}
	p.next()

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: then, els: els}, nil
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokCompare {
		return left, nil
	}
	op := p.next().text
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: op, left: left, right: right}, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOperator && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOperator && (p.peek().text == "*" || p.peek().text == "/") {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.peek().kind == tokOperator && p.peek().text == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		return numberNode(t.value), nil
	case tokIdent:
		p.next()
		if p.peek().kind == tokLParen {
			p.next()
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRParen, "')'"); err != nil {
				return nil, err
			}
			return callNode{name: t.text, arg: arg}, nil
		}
		return identNode(t.text), nil
	case tokLParen:
		p.next()
		inner, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}
