// Package expr parses and evaluates the small expression language used by
// calculator definitions: arithmetic, comparisons, logical operators,
// ternary conditionals, identifiers and boolean, number and string literals.
package expr

import (
	"strconv"
	"strings"
)

// Parser holds the state for parsing a token stream.
type Parser struct {
	source string
	tokens []Token
	pos    int
}

// Parse parses a complete expression.
func Parse(source string) (Node, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &ParseError{Source: source, Span: Span{Start: 0, End: len(source)}, Msg: "empty expression"}
	}

	tokens, err := Lex(source)
	if err != nil {
		return nil, err
	}

	p := &Parser{source: source, tokens: tokens}
	node, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	// Make sure we consumed everything.
	if tok := p.peek(); tok.Type != TokenEOF {
		if tok.Type == TokenRParen {
			return nil, p.errorAt(tok, "unmatched ')'")
		}
		return nil, p.errorAt(tok, "unexpected trailing token "+strconv.Quote(tok.Literal))
	}
	return node, nil
}

// MustParse is like Parse but panics on error. For tests and static tables.
func MustParse(source string) Node {
	n, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: len(p.source), End: len(p.source)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) match(types ...TokenType) (Token, bool) {
	tok := p.peek()
	for _, typ := range types {
		if tok.Type == typ {
			p.advance()
			return tok, true
		}
	}
	return tok, false
}

func (p *Parser) errorAt(tok Token, msg string) *ParseError {
	return &ParseError{Source: p.source, Span: tok.span(), Msg: msg}
}

// parseTernary: or ( "?" ternary ":" ternary )?
func (p *Parser) parseTernary() (Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, ok := p.match(TokenQuestion); !ok {
		return cond, nil
	}

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.match(TokenColon); !ok {
		return nil, p.errorAt(tok, "expected ':' in conditional expression")
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &Ternary{
		Cond: cond,
		Then: then,
		Else: els,
		Pos:  Span{Start: cond.Span().Start, End: els.Span().End},
	}, nil
}

// parseBinaryLevel parses left-associative operators of one precedence
// level.
func (p *Parser) parseBinaryLevel(next func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.match(ops...)
		if !ok {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Binary{
			Op:    op.Type,
			Left:  left,
			Right: right,
			Pos:   Span{Start: left.Span().Start, End: right.Span().End},
		}
	}
}

func (p *Parser) parseOr() (Node, error) {
	return p.parseBinaryLevel(p.parseAnd, TokenOr)
}

func (p *Parser) parseAnd() (Node, error) {
	return p.parseBinaryLevel(p.parseEquality, TokenAnd)
}

func (p *Parser) parseEquality() (Node, error) {
	return p.parseBinaryLevel(p.parseRelational, TokenEq, TokenNotEq)
}

func (p *Parser) parseRelational() (Node, error) {
	return p.parseBinaryLevel(p.parseAdditive, TokenGT, TokenGTE, TokenLT, TokenLTE)
}

func (p *Parser) parseAdditive() (Node, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, TokenPlus, TokenMinus)
}

func (p *Parser) parseMultiplicative() (Node, error) {
	return p.parseBinaryLevel(p.parseUnary, TokenStar, TokenSlash)
}

// parseUnary: ("!" | "-") unary | primary
func (p *Parser) parseUnary() (Node, error) {
	if op, ok := p.match(TokenBang, TokenMinus); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{
			Op:      op.Type,
			Operand: operand,
			Pos:     Span{Start: op.Pos, End: operand.Span().End},
		}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenNumber:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid number "+strconv.Quote(tok.Literal))
		}
		return &NumberLit{Value: f, Pos: tok.span()}, nil
	case TokenString:
		return &StringLit{Value: tok.Literal, Pos: tok.span()}, nil
	case TokenTrue:
		return &BoolLit{Value: true, Pos: tok.span()}, nil
	case TokenFalse:
		return &BoolLit{Value: false, Pos: tok.span()}, nil
	case TokenIdent:
		return &Ident{Name: tok.Literal, Pos: tok.span()}, nil
	case TokenLParen:
		inner, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		closing, ok := p.match(TokenRParen)
		if !ok {
			return nil, &ParseError{
				Source: p.source,
				Span:   Span{Start: tok.Pos, End: closing.End},
				Msg:    "unmatched '('",
			}
		}
		return inner, nil
	case TokenEOF:
		return nil, p.errorAt(tok, "unexpected end of expression")
	default:
		return nil, p.errorAt(tok, "unexpected token "+strconv.Quote(tok.Literal))
	}
}
