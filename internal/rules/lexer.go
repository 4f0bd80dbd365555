package rules

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokCompare
	tokAnd
	tokOr
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of rule"
	case tokIdent:
		return "indicator"
	case tokNumber:
		return "number"
	case tokCompare:
		return "comparator"
	case tokAnd:
		return "'and'"
	case tokOr:
		return "'or'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

var comparators = []string{"<=", ">=", "==", "!=", "<", ">"}

// lex splits rule text into tokens. Identifiers and keywords are lowercased.
func lex(rule string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(rule) {
		c := rune(rule[i])
		switch {
		case isSpace(c):
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '<' || c == '>' || c == '=' || c == '!':
			op := ""
			for _, cmp := range comparators {
				if strings.HasPrefix(rule[i:], cmp) {
					op = cmp
					break
				}
			}
			if op == "" {
				return nil, &ParseError{Rule: rule, Pos: i, Reason: "unknown operator " + strconv.Quote(string(c))}
			}
			tokens = append(tokens, token{kind: tokCompare, text: op, pos: i})
			i += len(op)
		case isDigit(c) || c == '.' || (c == '-' && i+1 < len(rule) && (isDigit(rune(rule[i+1])) || rule[i+1] == '.')):
			start := i
			i++
			for i < len(rule) && (isDigit(rune(rule[i])) || rule[i] == '.') {
				i++
			}
			if i < len(rule) && (rule[i] == 'e' || rule[i] == 'E') {
				j := i + 1
				if j < len(rule) && (rule[j] == '+' || rule[j] == '-') {
					j++
				}
				if j < len(rule) && isDigit(rune(rule[j])) {
					i = j
					for i < len(rule) && isDigit(rune(rule[i])) {
						i++
					}
				}
			}
			text := rule[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &ParseError{Rule: rule, Pos: start, Reason: "malformed number " + strconv.Quote(text)}
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: v, pos: start})
		case isIdentStart(c):
			start := i
			for i < len(rule) && isIdentPart(rune(rule[i])) {
				i++
			}
			word := strings.ToLower(rule[start:i])
			kind := tokIdent
			switch word {
			case "and":
				kind = tokAnd
			case "or":
				kind = tokOr
			}
			tokens = append(tokens, token{kind: kind, text: word, pos: start})
		default:
			r, _ := utf8.DecodeRuneInString(rule[i:])
			return nil, &ParseError{Rule: rule, Pos: i, Reason: "unexpected character " + strconv.QuoteRune(r)}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(rule)})
	return tokens, nil
}

// isSpace accepts ASCII blanks only; every other byte must form a token
func isSpace(c rune) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c rune) bool { return isIdentStart(c) || isDigit(c) }
