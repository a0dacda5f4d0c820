// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines calc token types, operator symbols and the
// precedence table.
package token

// Token represents a calc token type.
type Token int

const (
	EOF Token = iota
	NUMBER

	// Binary operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /
	CARET // ^

	// Grouping
	LPAREN // (
	RPAREN // )
)

// Symbols for each operator and grouping token.
const (
	RunePlus   = '+'
	RuneMinus  = '-'
	RuneStar   = '*'
	RuneSlash  = '/'
	RuneCaret  = '^'
	RuneLParen = '('
	RuneRParen = ')'
)

// IsDigit returns true if r is an ASCII decimal digit.
func IsDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// IsOperator returns true if the rune is one of the binary operators.
func IsOperator(r rune) bool {
	switch r {
	case RunePlus, RuneMinus, RuneStar, RuneSlash, RuneCaret:
		return true
	}
	return false
}

// IsSymbol returns true if the rune is an operator or a parenthesis.
func IsSymbol(r rune) bool {
	return IsOperator(r) || r == RuneLParen || r == RuneRParen
}

// TokenFromRune returns the token type for a symbol rune.
func TokenFromRune(r rune) Token {
	switch r {
	case RunePlus:
		return PLUS
	case RuneMinus:
		return MINUS
	case RuneStar:
		return STAR
	case RuneSlash:
		return SLASH
	case RuneCaret:
		return CARET
	case RuneLParen:
		return LPAREN
	case RuneRParen:
		return RPAREN
	}
	return EOF
}

// Rune returns the symbol of an operator or grouping token, or 0.
func (t Token) Rune() rune {
	switch t {
	case PLUS:
		return RunePlus
	case MINUS:
		return RuneMinus
	case STAR:
		return RuneStar
	case SLASH:
		return RuneSlash
	case CARET:
		return RuneCaret
	case LPAREN:
		return RuneLParen
	case RPAREN:
		return RuneRParen
	}
	return 0
}

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EOF:
		return "EOF"
	case NUMBER:
		return "NUMBER"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case STAR:
		return "STAR"
	case SLASH:
		return "SLASH"
	case CARET:
		return "CARET"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	}
	return "UNKNOWN"
}

// IsOperator returns true if the token is a binary operator.
func (t Token) IsOperator() bool {
	switch t {
	case PLUS, MINUS, STAR, SLASH, CARET:
		return true
	}
	return false
}
