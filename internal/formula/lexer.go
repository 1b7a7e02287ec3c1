package formula

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOperator // + - * /
	tokCompare  // < <= > >= == !=
	tokLParen
	tokRParen
	tokQuestion
	tokColon
	tokEOF
)

type token struct {
	kind  tokenKind
	text  string
	value float64 // tokNumber only
}

// tokenize splits a formula expression into tokens. Only the whitelisted
// arithmetic grammar is recognized; anything else is a lex error.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q in formula", text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, value: value})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i])})
		case r == '+' || r == '-' || r == '*' || r == '/':
			tokens = append(tokens, token{kind: tokOperator, text: string(r)})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case r == '?':
			tokens = append(tokens, token{kind: tokQuestion, text: "?"})
			i++
		case r == ':':
			tokens = append(tokens, token{kind: tokColon, text: ":"})
			i++
		case r == '<' || r == '>':
			text := string(r)
			i++
			if i < len(runes) && runes[i] == '=' {
				text += "="
				i++
			}
			tokens = append(tokens, token{kind: tokCompare, text: text})
		case r == '=' || r == '!':
			if i+1 >= len(runes) || runes[i+1] != '=' {
				return nil, fmt.Errorf("unexpected character %q in formula", r)
			}
			tokens = append(tokens, token{kind: tokCompare, text: string(r) + "="})
			i += 2
		default:
			return nil, fmt.Errorf("unexpected character %q in formula", r)
		}
	}

	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}
