package css

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension is a length or a percentage.
type Dimension struct {
	Percent bool
	Pct     float64
	Length  Length
}

func (d Dimension) String() string {
	if d.Percent {
		return strconv.FormatFloat(d.Pct, 'f', -1, 64) + "%"
	}
	return d.Length.String()
}

// Op is an arithmetic operator inside calc().
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv

	// Unary functions. Parsed but not evaluated by the layout resolver.
	OpNeg
	OpAbs
	OpSign
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpNeg:
		return "neg"
	case OpAbs:
		return "abs"
	case OpSign:
		return "sign"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Expr is a node of a calc() expression tree, or a plain length-percentage.
// Implemented by Value, Number, Unary and Binary.
type Expr interface {
	isExpr()
	String() string
}

// Value is a length-percentage leaf.
type Value struct{ Dim Dimension }

// Number is a dimensionless literal, used as a multiplier or divisor.
type Number float64

type Unary struct {
	Op  Op
	Arg Expr
}

type Binary struct {
	Op       Op
	LHS, RHS Expr
}

func (Value) isExpr()  {}
func (Number) isExpr() {}
func (Unary) isExpr()  {}
func (Binary) isExpr() {}

func (v Value) String() string  { return v.Dim.String() }
func (n Number) String() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }
func (u Unary) String() string  { return u.Op.String() + "(" + u.Arg.String() + ")" }
func (b Binary) String() string {
	return "(" + b.LHS.String() + " " + b.Op.String() + " " + b.RHS.String() + ")"
}

// L wraps a length into an expression.
func L(l Length) Expr { return Value{Dim: Dimension{Length: l}} }

// PxExpr is shorthand for L(Px(v)).
func PxExpr(v float64) Expr { return L(Px(v)) }

// Percent builds a percentage expression.
func Percent(p float64) Expr { return Value{Dim: Dimension{Percent: true, Pct: p}} }

func Add(a, b Expr) Expr { return Binary{Op: OpAdd, LHS: a, RHS: b} }
func Sub(a, b Expr) Expr { return Binary{Op: OpSub, LHS: a, RHS: b} }
func Mul(a, b Expr) Expr { return Binary{Op: OpMul, LHS: a, RHS: b} }
func Div(a, b Expr) Expr { return Binary{Op: OpDiv, LHS: a, RHS: b} }

// ParseExpr parses "10px", "50%", "calc(100% - 2 * 8px)" and the like.
func ParseExpr(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") && !strings.ContainsAny(s, "()") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percentage %q: %w", s, err)
		}
		return Percent(p), nil
	}
	if l, ok := ParseLength(s); ok {
		return L(l), nil
	}
	p := &calcParser{src: s}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing input in %q", ErrInvalidValue, s)
	}
	return e, nil
}

type calcParser struct {
	src string
	pos int
}

func (p *calcParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *calcParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *calcParser) parseSum() (Expr, error) {
	lhs, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		c := p.peek()
		if c != '+' && c != '-' {
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		op := OpAdd
		if c == '-' {
			op = OpSub
		}
		lhs = Binary{Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *calcParser) parseProduct() (Expr, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		c := p.peek()
		if c != '*' && c != '/' {
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		op := OpMul
		if c == '/' {
			op = OpDiv
		}
		lhs = Binary{Op: op, LHS: lhs, RHS: rhs}
	}
}

var calcFunctions = map[string]Op{
	"abs(":  OpAbs,
	"sign(": OpSign,
}

func (p *calcParser) parseTerm() (Expr, error) {
	p.skipSpace()
	rest := strings.ToLower(p.src[p.pos:])
	switch {
	case strings.HasPrefix(rest, "calc("):
		p.pos += len("calc(")
		return p.parseGroup()
	case strings.HasPrefix(rest, "("):
		p.pos++
		return p.parseGroup()
	}
	for name, op := range calcFunctions {
		if strings.HasPrefix(rest, name) {
			p.pos += len(name)
			arg, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			return Unary{Op: op, Arg: arg}, nil
		}
	}
	if p.peek() == '-' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '(' || p.src[p.pos+1] == 'c') {
		p.pos++
		arg, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNeg, Arg: arg}, nil
	}

	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '%' {
			p.pos++
			continue
		}
		break
	}
	tok := p.src[start:p.pos]
	if tok == "" {
		return nil, fmt.Errorf("%w: expected a value at offset %d in %q", ErrInvalidValue, start, p.src)
	}
	if strings.HasSuffix(tok, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidValue, tok)
		}
		return Percent(v), nil
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return Number(n), nil
	}
	l, ok := ParseLength(tok)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, tok)
	}
	return L(l), nil
}

func (p *calcParser) parseGroup() (Expr, error) {
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ')' {
		return nil, fmt.Errorf("%w: missing ')' in %q", ErrInvalidValue, p.src)
	}
	p.pos++
	return e, nil
}
