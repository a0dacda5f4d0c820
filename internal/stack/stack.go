// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package stack provides the LIFO used for operand and operator stacks.
package stack

// Stack is a last-in-first-out sequence. The zero value is an empty stack.
type Stack[T any] struct {
	items []T
}

// New creates an empty stack with room for n items.
func New[T any](n int) *Stack[T] {
	return &Stack[T]{items: make([]T, 0, n)}
}

// Push adds v to the top of the stack.
func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top item. ok is false if the stack is empty.
func (s *Stack[T]) Pop() (v T, ok bool) {
	if len(s.items) == 0 {
		return v, false
	}
	last := len(s.items) - 1
	v = s.items[last]
	var zero T
	s.items[last] = zero
	s.items = s.items[:last]
	return v, true
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (v T, ok bool) {
	if len(s.items) == 0 {
		return v, false
	}
	return s.items[len(s.items)-1], true
}

// Len returns the number of items on the stack.
func (s *Stack[T]) Len() int {
	return len(s.items)
}

// Empty returns true if the stack holds no items.
func (s *Stack[T]) Empty() bool {
	return len(s.items) == 0
}
