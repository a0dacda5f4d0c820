// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the calc evaluator: a two-stack operator
// precedence machine that reduces eagerly as tokens arrive.
package eval

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"nickandperla.net/calc/internal/calcerr"
	"nickandperla.net/calc/internal/rewrite"
	"nickandperla.net/calc/internal/scanner"
	"nickandperla.net/calc/internal/stack"
	"nickandperla.net/calc/internal/token"
	"nickandperla.net/calc/internal/validate"
)

// DefaultMaxExponent is the largest exponent accepted by ^ unless
// overridden with WithMaxExponent.
const DefaultMaxExponent = 4096

// Overflow controls what happens when a result leaves the int64 range.
type Overflow int

const (
	// OverflowFail reports ErrArithmeticOverflow. This is the default.
	OverflowFail Overflow = iota
	// OverflowWrap keeps two's-complement wraparound.
	OverflowWrap
)

// String returns the string representation of an Overflow policy.
func (o Overflow) String() string {
	switch o {
	case OverflowFail:
		return "fail"
	case OverflowWrap:
		return "wrap"
	default:
		return "unknown"
	}
}

// ParseOverflow parses a string into an Overflow policy.
func ParseOverflow(s string) (Overflow, bool) {
	switch strings.ToLower(s) {
	case "fail", "":
		return OverflowFail, true
	case "wrap":
		return OverflowWrap, true
	default:
		return OverflowFail, false
	}
}

// Step describes one reduction. It is passed to the reduce hook.
type Step struct {
	Op     rune
	Left   int64
	Right  int64
	Result int64
}

func (s Step) String() string {
	return fmt.Sprintf("%d %c %d = %d", s.Left, s.Op, s.Right, s.Result)
}

// ReduceHook observes every successful reduction.
type ReduceHook func(Step)

// Evaluator evaluates arithmetic expressions. An Evaluator holds only
// configuration; every call to Eval works on its own stacks, so a single
// Evaluator may be used from many goroutines.
type Evaluator struct {
	table       *token.Table
	maxExponent int64
	overflow    Overflow
	hook        ReduceHook
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTable sets the operator precedence table.
func WithTable(t *token.Table) Option {
	return func(e *Evaluator) { e.table = t }
}

// WithMaxExponent bounds the exponents accepted by ^. Values <= 0 select
// DefaultMaxExponent.
func WithMaxExponent(n int64) Option {
	return func(e *Evaluator) {
		if n <= 0 {
			n = DefaultMaxExponent
		}
		e.maxExponent = n
	}
}

// WithOverflow sets the overflow policy.
func WithOverflow(o Overflow) Option {
	return func(e *Evaluator) { e.overflow = o }
}

// WithReduceHook registers a callback invoked after every reduction.
func WithReduceHook(h ReduceHook) Option {
	return func(e *Evaluator) { e.hook = h }
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		table:       token.DefaultTable,
		maxExponent: DefaultMaxExponent,
		overflow:    OverflowFail,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Overflow returns the configured overflow policy.
func (e *Evaluator) Overflow() Overflow {
	return e.overflow
}

// MaxExponent returns the largest exponent accepted by ^.
func (e *Evaluator) MaxExponent() int64 {
	return e.maxExponent
}

// Eval evaluates an expression. White space is ignored. Malformed input is
// rejected with a *calcerr.ValidationError before any evaluation happens.
func (e *Evaluator) Eval(input string) (int64, error) {
	return e.EvalTrace(input, e.hook)
}

// EvalTrace evaluates like Eval and additionally calls hook after every
// reduction of this evaluation. A hook set with WithReduceHook is not
// called.
func (e *Evaluator) EvalTrace(input string, hook ReduceHook) (int64, error) {
	expr := rewrite.StripSpace(input)
	if err := validate.Check(expr); err != nil {
		return 0, err
	}
	return e.run(rewrite.ImplicitMultiplication(expr), hook)
}

// EvalReader evaluates the whole content of r as a single expression.
func (e *Evaluator) EvalReader(r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	return e.Eval(string(b))
}

// machine holds the state of a single evaluation.
type machine struct {
	ev        *Evaluator
	hook      ReduceHook
	operands  *stack.Stack[int64]
	operators *stack.Stack[token.Token]
}

// run evaluates a validated, rewritten expression.
func (e *Evaluator) run(expr string, hook ReduceHook) (int64, error) {
	m := &machine{
		ev:        e,
		hook:      hook,
		operands:  stack.New[int64](len(expr)/2 + 1),
		operators: stack.New[token.Token](len(expr)/2 + 1),
	}
	scan := scanner.NewFromString(expr)

	for {
		item, err := scan.Next()
		if err != nil {
			calcerr.Violate("scanning validated input %q: %v", expr, err)
		}

		switch item.Token {
		case token.EOF:
			return m.drain()

		case token.NUMBER:
			v, err := parseLiteral(item.Value)
			if err != nil {
				return 0, err
			}
			m.operands.Push(v)

		case token.LPAREN:
			m.operators.Push(token.LPAREN)

		case token.RPAREN:
			for {
				top, ok := m.operators.Peek()
				if !ok || top == token.LPAREN {
					break
				}
				if err := m.reduce(); err != nil {
					return 0, err
				}
			}
			if _, ok := m.operators.Pop(); !ok {
				calcerr.Violate("no open group for ')' at position %d", item.Pos)
			}

		default:
			rank := m.precedence(item.Token)
			for {
				top, ok := m.operators.Peek()
				if !ok || top == token.LPAREN || m.precedence(top) < rank {
					break
				}
				if err := m.reduce(); err != nil {
					return 0, err
				}
			}
			m.operators.Push(item.Token)
		}
	}
}

// drain reduces every pending operator and returns the single remaining
// operand.
func (m *machine) drain() (int64, error) {
	for !m.operators.Empty() {
		if err := m.reduce(); err != nil {
			return 0, err
		}
	}
	if m.operands.Len() != 1 {
		calcerr.Violate("operand stack holds %d values after drain", m.operands.Len())
	}
	v, _ := m.operands.Pop()
	return v, nil
}

func (m *machine) precedence(op token.Token) int {
	rank, ok := m.ev.table.Precedence(op)
	if !ok {
		calcerr.Violate("operator %s has no precedence", op)
	}
	return rank
}

// parseLiteral parses a run of digits. Literals beyond the int64 range are
// reported as overflow under either policy.
func parseLiteral(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("integer literal %s: %w", s, calcerr.ErrArithmeticOverflow)
		}
		calcerr.Violate("literal %q: %v", s, err)
	}
	return v, nil
}
