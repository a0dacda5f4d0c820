// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming lexer for calc expressions.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"nickandperla.net/calc/internal/token"
)

// Scanner tokenizes calc input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	buf    strings.Builder
	peeked *Item
	pos    int // Byte offset of the next unread rune
}

// Item represents a scanned token with its value.
type Item struct {
	Token token.Token
	Value string
	Pos   int // Byte offset where this token started
}

func (i Item) String() string {
	if i.Token == token.EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%s)@%d", i.Token, i.Value, i.Pos)
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Pos returns the byte offset of the next unread rune.
func (s *Scanner) Pos() int {
	return s.pos
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() (*Item, error) {
	if s.peeked != nil {
		return s.peeked, nil
	}
	item, err := s.Next()
	if err != nil {
		return nil, err
	}
	s.peeked = item
	return item, nil
}

// Next returns the next token from the input. Runs of digits form a single
// NUMBER item; each operator or parenthesis is its own item. White space
// between tokens is skipped.
func (s *Scanner) Next() (*Item, error) {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item, nil
	}

	s.buf.Reset()
	start := s.pos

	for {
		r, size, err := s.reader.ReadRune()
		if err == io.EOF {
			if s.buf.Len() > 0 {
				return &Item{Token: token.NUMBER, Value: s.buf.String(), Pos: start}, nil
			}
			return &Item{Token: token.EOF, Pos: s.pos}, nil
		}
		if err != nil {
			return nil, err
		}

		if token.IsDigit(r) {
			s.pos += size
			s.buf.WriteRune(r)
			continue
		}

		// Anything else ends a pending number
		if s.buf.Len() > 0 {
			s.reader.UnreadRune()
			return &Item{Token: token.NUMBER, Value: s.buf.String(), Pos: start}, nil
		}

		s.pos += size
		switch {
		case unicode.IsSpace(r):
			start = s.pos
		case token.IsSymbol(r):
			return &Item{Token: token.TokenFromRune(r), Value: string(r), Pos: start}, nil
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", r, start)
		}
	}
}

// All scans the remaining input and returns every item up to, but not
// including, EOF.
func (s *Scanner) All() ([]Item, error) {
	var items []Item
	for {
		item, err := s.Next()
		if err != nil {
			return nil, err
		}
		if item.Token == token.EOF {
			return items, nil
		}
		items = append(items, *item)
	}
}
