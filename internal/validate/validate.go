// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package validate rejects malformed expressions before any evaluation
// work is done.
package validate

import (
	"nickandperla.net/calc/internal/calcerr"
	"nickandperla.net/calc/internal/token"
)

// Check validates a whitespace-stripped expression. It returns nil if the
// expression is well formed, or a *calcerr.ValidationError describing the
// first problem found.
func Check(input string) error {
	if input == "" {
		return &calcerr.ValidationError{Kind: calcerr.EmptyExpression}
	}

	for pos, r := range input {
		if !token.IsDigit(r) && !token.IsSymbol(r) {
			return reject(calcerr.InvalidCharacter, r, pos)
		}
	}

	depth := 0
	expectingOperand := true
	var prev rune

	for pos, r := range input {
		switch {
		case token.IsDigit(r):
			expectingOperand = false

		case r == token.RuneLParen:
			depth++
			expectingOperand = false

		case r == token.RuneRParen:
			// An empty group satisfies operand position but has no value.
			if expectingOperand || prev == token.RuneLParen {
				return reject(calcerr.MisplacedClosingParen, r, pos)
			}
			depth--

		default:
			if expectingOperand || prev == token.RuneLParen {
				return reject(calcerr.MisplacedOperand, r, pos)
			}
			expectingOperand = true
		}

		if depth < 0 {
			return reject(calcerr.UnmatchedClosingParen, r, pos)
		}
		prev = r
	}

	if expectingOperand {
		return reject(calcerr.EndsWithOperator, prev, len(input)-1)
	}
	if depth != 0 {
		return &calcerr.ValidationError{Kind: calcerr.UnmatchedOpeningParen}
	}
	return nil
}

func reject(kind calcerr.Kind, r rune, pos int) error {
	return &calcerr.ValidationError{Kind: kind, Char: r, Pos: pos}
}
