// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package rewrite normalizes expression text ahead of evaluation.
package rewrite

import (
	"strings"
	"unicode"

	"nickandperla.net/calc/internal/token"
)

// StripSpace removes every Unicode white space character from s.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ImplicitMultiplication inserts an explicit * between a digit and (,
// between ) and a digit, and between ) and (. The input must already be
// validated.
func ImplicitMultiplication(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + len(s)/2)

	for i := 0; i < len(s); i++ {
		cur := rune(s[i])
		sb.WriteByte(s[i])
		if i+1 == len(s) {
			break
		}
		next := rune(s[i+1])
		if needsStar(cur, next) {
			sb.WriteRune(token.RuneStar)
		}
	}
	return sb.String()
}

func needsStar(cur, next rune) bool {
	switch {
	case token.IsDigit(cur) && next == token.RuneLParen:
		return true
	case cur == token.RuneRParen && token.IsDigit(next):
		return true
	case cur == token.RuneRParen && next == token.RuneLParen:
		return true
	}
	return false
}
