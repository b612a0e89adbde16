package expr

import (
	"strings"
)

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenIdent
	TokenTrue
	TokenFalse
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenGT
	TokenGTE
	TokenLT
	TokenLTE
	TokenEq
	TokenNotEq
	TokenAnd
	TokenOr
	TokenBang
	TokenQuestion
	TokenColon
	TokenLParen
	TokenRParen
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "end of expression",
	TokenNumber:   "number",
	TokenString:   "string",
	TokenIdent:    "identifier",
	TokenTrue:     "true",
	TokenFalse:    "false",
	TokenPlus:     "+",
	TokenMinus:    "-",
	TokenStar:     "*",
	TokenSlash:    "/",
	TokenGT:       ">",
	TokenGTE:      ">=",
	TokenLT:       "<",
	TokenLTE:      "<=",
	TokenEq:       "==",
	TokenNotEq:    "!=",
	TokenAnd:      "&&",
	TokenOr:       "||",
	TokenBang:     "!",
	TokenQuestion: "?",
	TokenColon:    ":",
	TokenLParen:   "(",
	TokenRParen:   ")",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit. Pos is the byte offset of the first
// character; Literal holds the raw source text, except for strings where it
// holds the unescaped contents.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
	End     int
}

func (t Token) span() Span {
	return Span{Start: t.Pos, End: t.End}
}

// twoCharOps must be checked before their single character prefixes.
var twoCharOps = map[string]TokenType{
	">=": TokenGTE,
	"<=": TokenLTE,
	"==": TokenEq,
	"!=": TokenNotEq,
	"&&": TokenAnd,
	"||": TokenOr,
}

var oneCharOps = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'>': TokenGT,
	'<': TokenLT,
	'!': TokenBang,
	'?': TokenQuestion,
	':': TokenColon,
	'(': TokenLParen,
	')': TokenRParen,
}

// Lex tokenizes an expression. The returned slice always ends with a
// TokenEOF positioned at len(input).
func Lex(input string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(input) {
		ch := input[i]

		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			i++
			continue
		}

		if i+1 < len(input) {
			if typ, ok := twoCharOps[input[i:i+2]]; ok {
				tokens = append(tokens, Token{Type: typ, Literal: input[i : i+2], Pos: i, End: i + 2})
				i += 2
				continue
			}
		}
		if typ, ok := oneCharOps[ch]; ok {
			tokens = append(tokens, Token{Type: typ, Literal: string(ch), Pos: i, End: i + 1})
			i++
			continue
		}

		switch {
		case ch == '\'':
			tok, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isDigit(ch) || (ch == '.' && i+1 < len(input) && isDigit(input[i+1])):
			next := lexNumber(input, i)
			tokens = append(tokens, Token{Type: TokenNumber, Literal: input[i:next], Pos: i, End: next})
			i = next
		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			word := input[start:i]
			typ := TokenIdent
			switch word {
			case "true":
				typ = TokenTrue
			case "false":
				typ = TokenFalse
			}
			tokens = append(tokens, Token{Type: typ, Literal: word, Pos: start, End: i})
		default:
			return nil, &ParseError{
				Source: input,
				Span:   Span{Start: i, End: i + 1},
				Msg:    "unknown token " + quoteChar(ch),
			}
		}
	}
	tokens = append(tokens, Token{Type: TokenEOF, Pos: len(input), End: len(input)})
	return tokens, nil
}

func lexString(input string, start int) (Token, int, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(input) {
		ch := input[i]
		switch ch {
		case '\\':
			if i+1 >= len(input) {
				i++
				continue
			}
			sb.WriteByte(input[i+1])
			i += 2
		case '\'':
			return Token{Type: TokenString, Literal: sb.String(), Pos: start, End: i + 1}, i + 1, nil
		default:
			sb.WriteByte(ch)
			i++
		}
	}
	return Token{}, 0, &ParseError{
		Source: input,
		Span:   Span{Start: start, End: len(input)},
		Msg:    "unterminated string literal",
	}
}

// lexNumber returns the end offset of the numeric literal starting at start:
// digits, an optional fraction and an optional exponent.
func lexNumber(input string, start int) int {
	i := start
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	if i < len(input) && input[i] == '.' && i+1 < len(input) && isDigit(input[i+1]) {
		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
		j := i + 1
		if j < len(input) && (input[j] == '+' || input[j] == '-') {
			j++
		}
		if j < len(input) && isDigit(input[j]) {
			for j < len(input) && isDigit(input[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func quoteChar(ch byte) string {
	return "'" + string(rune(ch)) + "'"
}
