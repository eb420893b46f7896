package expr

import (
	"strconv"

	"github.com/blockpp/blockpp/pperrors"
)

// precedence mirrors gazelle_cc's parser.go precedence-climbing table
// (precedenceLowest < precedenceOr < precedenceAnd < precedenceCompare <
// precedenceBang < precedenceParens), extended downward for membership and
// arithmetic so `a + 1 in xs` and `a == b + 1` bind the way a reader
// familiar with ordinary operator precedence would expect.
type precedence int

const (
	precLowest precedence = iota
	precOr                // ||
	precAnd               // &&
	precCompare           // == != < <= > >=
	precIn                // in
	precAdd               // + -
	precMul               // * / %
	precUnary             // ! (prefix)
)

var binaryPrecedence = map[string]precedence{
	"||": precOr,
	"&&": precAnd,
	"==": precCompare, "!=": precCompare,
	"<": precCompare, "<=": precCompare, ">": precCompare, ">=": precCompare,
	"in": precIn,
	"+":  precAdd, "-": precAdd,
	"*": precMul, "/": precMul, "%": precMul,
}

// parser is a hand-written recursive-descent/Pratt parser over a lexer. No
// host-language eval is ever used (see DESIGN.md open-question decisions).
type parser struct {
	lex *lexer
	cur token
}

// Parse parses src as a full expression and reports an error if trailing
// input remains.
func Parse(src string) (Expr, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, pperrors.Newf(pperrors.ExpressionSyntax, "unexpected trailing token %q", p.cur.text)
	}
	return expr, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) expectSymbol(sym string) error {
	if p.cur.kind != tokSymbol || p.cur.text != sym {
		return pperrors.Newf(pperrors.ExpressionSyntax, "expected %q, got %q", sym, p.cur.text)
	}
	return p.advance()
}

func (p *parser) parseExpr(minPrec precedence) (Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		opText, ok := p.peekOperator()
		if !ok {
			return left, nil
		}
		prec, exists := binaryPrecedence[opText]
		if !exists || prec < minPrec {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = combine(opText, left, right)
	}
}

// peekOperator reports the textual operator at the current token, whether
// it is a symbol (==, &&, +, ...) or the `in` keyword.
func (p *parser) peekOperator() (string, bool) {
	if p.cur.kind == tokSymbol {
		return p.cur.text, true
	}
	if p.cur.kind == tokIdent {
		switch p.cur.text {
		case "in":
			return "in", true
		case "and":
			return "&&", true
		case "or":
			return "||", true
		}
	}
	return "", false
}

func combine(op string, left, right Expr) Expr {
	switch op {
	case "||":
		return Or{L: left, R: right}
	case "&&":
		return And{L: left, R: right}
	case "==", "!=", "<", "<=", ">", ">=":
		return Compare{Left: left, Op: op, Right: right}
	case "+", "-", "*", "/", "%":
		return BinOp{Left: left, Op: op, Right: right}
	case "in":
		return In{Left: left, Right: right}
	default:
		panic("expr: unreachable operator " + op)
	}
}

func (p *parser) parsePrefix() (Expr, error) {
	switch {
	case p.cur.kind == tokSymbol && p.cur.text == "!", p.cur.kind == tokIdent && p.cur.text == "not":
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return Not{X: inner}, nil

	case p.cur.kind == tokSymbol && p.cur.text == "-":
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(precUnary)
		if err != nil {
			return nil, err
		}
		return BinOp{Left: ConstantInt(0), Op: "-", Right: inner}, nil

	case p.cur.kind == tokSymbol && p.cur.text == "(":
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case p.cur.kind == tokSymbol && p.cur.text == "[":
		return p.parseListLiteral()

	case p.cur.kind == tokInt:
		n, err := strconv.ParseInt(p.cur.text, 10, 64)
		if err != nil {
			return nil, pperrors.Wrap(pperrors.ExpressionSyntax, err, "invalid integer literal "+p.cur.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ConstantInt(n), nil

	case p.cur.kind == tokString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return StringLiteral(s), nil

	case p.cur.kind == tokIdent && p.cur.text == "defined":
		return p.parseDefined()

	case p.cur.kind == tokIdent && p.cur.text == "true":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return BoolLiteral(true), nil

	case p.cur.kind == tokIdent && p.cur.text == "false":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return BoolLiteral(false), nil

	case p.cur.kind == tokIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokSymbol && p.cur.text == "(" {
			return p.parseCall(name)
		}
		return Ident(name), nil

	default:
		return nil, pperrors.Newf(pperrors.ExpressionSyntax, "unexpected token %q", p.cur.text)
	}
}

func (p *parser) parseDefined() (Expr, error) {
	if err := p.advance(); err != nil { // consume "defined"
		return nil, err
	}
	paren := p.cur.kind == tokSymbol && p.cur.text == "("
	if paren {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.kind != tokIdent {
		return nil, pperrors.Newf(pperrors.ExpressionSyntax, "expected identifier after defined, got %q", p.cur.text)
	}
	name := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if paren {
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
	}
	return Defined{Name: Ident(name)}, nil
}

func (p *parser) parseCall(name string) (Expr, error) {
	if err := p.advance(); err != nil { // consume "("
		return nil, err
	}
	var args []Expr
	for !(p.cur.kind == tokSymbol && p.cur.text == ")") {
		arg, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.kind == tokSymbol && p.cur.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return Call{Name: name, Args: args}, nil
}

func (p *parser) parseListLiteral() (Expr, error) {
	if err := p.advance(); err != nil { // consume "["
		return nil, err
	}
	var elements []Expr
	for !(p.cur.kind == tokSymbol && p.cur.text == "]") {
		el, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
		if p.cur.kind == tokSymbol && p.cur.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectSymbol("]"); err != nil {
		return nil, err
	}
	return ListLiteral{Elements: elements}, nil
}

// Evaluate parses and evaluates src in one step, returning its boolean
// truthiness the way `if`/`elif` conditions consume it.
func Evaluate(src string, env Env) (bool, error) {
	tree, err := Parse(src)
	if err != nil {
		return false, err
	}
	v, err := tree.Eval(env)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}
