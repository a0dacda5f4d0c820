// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package token

// Table maps binary operators to their precedence rank. A Table is
// immutable once built and may be shared between evaluators.
type Table struct {
	ranks map[Token]int
}

// NewTable builds a Table from the given ranks. Non-operator tokens are
// ignored.
func NewTable(ranks map[Token]int) *Table {
	t := &Table{ranks: make(map[Token]int, len(ranks))}
	for tok, rank := range ranks {
		if tok.IsOperator() {
			t.ranks[tok] = rank
		}
	}
	return t
}

// DefaultTable is the standard arithmetic precedence: additive operators
// bind loosest, then multiplicative, then exponentiation.
var DefaultTable = NewTable(map[Token]int{
	PLUS:  1,
	MINUS: 1,
	STAR:  2,
	SLASH: 2,
	CARET: 3,
})

// Precedence returns the rank of op and whether op is in the table.
func (t *Table) Precedence(op Token) (int, bool) {
	rank, ok := t.ranks[op]
	return rank, ok
}

// Has returns true if op has a rank in the table.
func (t *Table) Has(op Token) bool {
	_, ok := t.ranks[op]
	return ok
}
