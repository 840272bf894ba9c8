package tool

import (
	"fmt"
	"strings"
	"unicode"
)

// CheckStatement accepts exactly one read-only SELECT statement. A WITH
// clause is accepted when its main statement is a SELECT. A single trailing
// semicolon is allowed.
func CheckStatement(q string) error {
	if strings.TrimSpace(q) == "" {
		return invalidStatement("query cannot be empty")
	}

	tokens, err := lexStatement(q)
	if err != nil {
		return err
	}

	stmts, err := splitStatements(tokens)
	if err != nil {
		return err
	}
	switch len(stmts) {
	case 0:
		return invalidStatement("query cannot be empty")
	case 1:
	default:
		return invalidStatement("only a single statement is supported")
	}

	if statementType(stmts[0]) != "SELECT" {
		return invalidStatement("only SELECT queries are supported")
	}
	return nil
}

func invalidStatement(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidStatement, msg)
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokLiteral
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

// lexStatement splits q into words, quoted literals and punctuation,
// dropping whitespace and comments.
func lexStatement(q string) ([]token, error) {
	var out []token
	r := []rune(q)

	for i := 0; i < len(r); {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++

		case c == '-' && i+1 < len(r) && r[i+1] == '-':
			for i < len(r) && r[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < len(r) && r[i+1] == '*':
			j := i + 2
			for j+1 < len(r) && (r[j] != '*' || r[j+1] != '/') {
				j++
			}
			if j+1 >= len(r) {
				return nil, invalidStatement("unterminated comment")
			}
			i = j + 2

		case c == '\'' || c == '"' || c == '`':
			j, ok := closeQuote(r, i)
			if !ok {
				return nil, invalidStatement("unterminated quoted text")
			}
			out = append(out, token{kind: tokLiteral, text: string(r[i : j+1])})
			i = j + 1

		case isWordRune(c):
			j := i
			for j < len(r) && isWordRune(r[j]) {
				j++
			}
			out = append(out, token{kind: tokWord, text: string(r[i:j])})
			i = j

		default:
			out = append(out, token{kind: tokPunct, text: string(c)})
			i++
		}
	}
	return out, nil
}

// closeQuote returns the index of the quote closing the one at start.
// A doubled quote inside the literal is an escaped quote.
func closeQuote(r []rune, start int) (int, bool) {
	q := r[start]
	for i := start + 1; i < len(r); i++ {
		if r[i] != q {
			continue
		}
		if i+1 < len(r) && r[i+1] == q {
			i++
			continue
		}
		return i, true
	}
	return 0, false
}

func isWordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '$' || c == '.'
}

// splitStatements groups tokens by top-level semicolons, checking that
// parentheses balance. Empty statements are dropped.
func splitStatements(tokens []token) ([][]token, error) {
	var (
		stmts   [][]token
		current []token
		depth   int
	)
	for _, t := range tokens {
		if t.kind == tokPunct {
			switch t.text {
			case "(":
				depth++
			case ")":
				depth--
				if depth < 0 {
					return nil, invalidStatement("unbalanced parentheses")
				}
			case ";":
				if depth == 0 {
					if len(current) > 0 {
						stmts = append(stmts, current)
					}
					current = nil
					continue
				}
			}
		}
		current = append(current, t)
	}
	if depth != 0 {
		return nil, invalidStatement("unbalanced parentheses")
	}
	if len(current) > 0 {
		stmts = append(stmts, current)
	}
	return stmts, nil
}

var mainStatementKeywords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"MERGE": true, "REPLACE": true, "UPSERT": true, "VALUES": true,
}

// statementType returns the upper-cased leading keyword of stmt, looking
// through leading parentheses and WITH clauses.
func statementType(stmt []token) string {
	i := 0
	for i < len(stmt) && stmt[i].kind == tokPunct && stmt[i].text == "(" {
		i++
	}
	if i >= len(stmt) || stmt[i].kind != tokWord {
		return ""
	}

	first := strings.ToUpper(stmt[i].text)
	if first != "WITH" {
		return first
	}

	depth := 0
	for _, t := range stmt[i+1:] {
		switch {
		case t.kind == tokPunct && t.text == "(":
			depth++
		case t.kind == tokPunct && t.text == ")":
			depth--
		case t.kind == tokWord && depth == 0:
			if kw := strings.ToUpper(t.text); mainStatementKeywords[kw] {
				return kw
			}
		}
	}
	return ""
}
