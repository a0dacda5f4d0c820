package eval

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/calc/internal/calcerr"
	"nickandperla.net/calc/internal/stack"
	"nickandperla.net/calc/internal/token"
)

func TestEval(t *testing.T) {
	e := New()

	cases := []struct {
		input string
		want  int64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10-6/2", 7},
		{"8-3-2", 3},
		{"100/10/5", 2},
		{"2(3+4)", 14},
		{"(2)(3)", 6},
		{"(1+1)2", 4},
		{"7/2", 3},
		{"8/3", 2},
		{"(0-7)/2", -3},
		{"2^3", 8},
		{"2^0", 1},
		{"0^0", 1},
		{"(0-2)^3", -8},
		{"2^3^2", 64},
		{"2*3^2", 18},
		{"((2+3)*(4+5))", 45},
		{" 1 + 2 ", 3},
		{"42", 42},
		{"007", 7},
		{"3(2)(2)", 12},
		{"9223372036854775807", math.MaxInt64},
	}
	for _, tc := range cases {
		got, err := e.Eval(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestEvalValidationErrors(t *testing.T) {
	e := New()

	for _, input := range []string{"", "   ", "2++3", "(2+3", "2+3)", "2+", "2a3", "()", "(*1)"} {
		_, err := e.Eval(input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, calcerr.ErrValidation), "%q: %v", input, err)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	e := New()

	_, err := e.Eval("5/0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrDivisionByZero))

	var oe *calcerr.OperationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, '/', oe.Op)
	assert.Equal(t, int64(5), oe.Left)
	assert.Equal(t, int64(0), oe.Right)

	_, err = e.Eval("1+10/(5-5)")
	assert.True(t, errors.Is(err, calcerr.ErrDivisionByZero))
}

func TestEvalNegativeExponent(t *testing.T) {
	e := New()

	_, err := e.Eval("2^(0-1)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrUnsupportedOperation))
	assert.Contains(t, err.Error(), "negative exponent")
}

func TestEvalExponentLimit(t *testing.T) {
	e := New(WithMaxExponent(10))
	assert.Equal(t, int64(10), e.MaxExponent())

	got, err := e.Eval("1^10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	_, err = e.Eval("1^11")
	require.Error(t, err)
	assert.True(t, errors.Is(err, calcerr.ErrUnsupportedOperation))

	// The default limit still allows large exponents of small bases.
	got, err = New().Eval("1^4096")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	assert.Equal(t, int64(DefaultMaxExponent), New(WithMaxExponent(0)).MaxExponent())
}

func TestEvalOverflowFail(t *testing.T) {
	e := New()
	big := strconv.FormatInt(math.MaxInt64, 10)

	for _, input := range []string{
		big + "+1",
		"0-" + big + "-2",
		big + "*2",
		"2^63",
		"9223372036854775808",
		"(0-" + big + "-1)/(0-1)",
	} {
		_, err := e.Eval(input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, calcerr.ErrArithmeticOverflow), "%q: %v", input, err)
	}

	got, err := e.Eval("2^62")
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<62, got)
}

func TestEvalOverflowWrap(t *testing.T) {
	e := New(WithOverflow(OverflowWrap))
	assert.Equal(t, OverflowWrap, e.Overflow())

	got, err := e.Eval("9223372036854775807+1")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)

	got, err = e.Eval("2^64")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	// Literals out of range are rejected under either policy.
	_, err = e.Eval("99999999999999999999")
	assert.True(t, errors.Is(err, calcerr.ErrArithmeticOverflow))
}

func TestParseOverflow(t *testing.T) {
	o, ok := ParseOverflow("WRAP")
	require.True(t, ok)
	assert.Equal(t, OverflowWrap, o)
	assert.Equal(t, "wrap", o.String())

	o, ok = ParseOverflow("")
	require.True(t, ok)
	assert.Equal(t, OverflowFail, o)

	_, ok = ParseOverflow("saturate")
	assert.False(t, ok)
}

func TestReduceHookOrder(t *testing.T) {
	var steps []string
	e := New(WithReduceHook(func(s Step) {
		steps = append(steps, s.String())
	}))

	got, err := e.Eval("8-3-2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
	assert.Equal(t, []string{"8 - 3 = 5", "5 - 2 = 3"}, steps)

	steps = nil
	_, err = e.Eval("1+2*3")
	require.NoError(t, err)
	assert.Equal(t, []string{"2 * 3 = 6", "1 + 6 = 7"}, steps)
}

func TestEvalDeterministic(t *testing.T) {
	input := "2(3+4)^2-(10/3)"
	first, err := New().Eval(input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := New().Eval(input)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestEvalReader(t *testing.T) {
	got, err := New().EvalReader(strings.NewReader("6*7\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestCustomTable(t *testing.T) {
	// Flat precedence: everything left to right.
	flat := token.NewTable(map[token.Token]int{
		token.PLUS: 1, token.MINUS: 1, token.STAR: 1, token.SLASH: 1, token.CARET: 1,
	})
	got, err := New(WithTable(flat)).Eval("2+3*4")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)
}

func TestDrainInvariantViolation(t *testing.T) {
	m := &machine{
		ev:        New(),
		operands:  stack.New[int64](2),
		operators: stack.New[token.Token](1),
	}
	m.operands.Push(1)
	m.operands.Push(2)

	assert.PanicsWithValue(t,
		calcerr.InvariantViolation{Msg: "operand stack holds 2 values after drain"},
		func() { m.drain() })
}

func TestReduceUnknownOperatorPanics(t *testing.T) {
	m := &machine{
		ev:        New(),
		operands:  stack.New[int64](2),
		operators: stack.New[token.Token](1),
	}
	m.operands.Push(1)
	m.operands.Push(2)
	m.operators.Push(token.LPAREN)

	assert.Panics(t, func() { m.reduce() })
}

func TestEvalTraceOverridesHook(t *testing.T) {
	var global, local int
	e := New(WithReduceHook(func(Step) { global++ }))

	_, err := e.EvalTrace("1+2+3", func(Step) { local++ })
	require.NoError(t, err)
	assert.Equal(t, 0, global)
	assert.Equal(t, 2, local)

	_, err = e.Eval("1+2")
	require.NoError(t, err)
	assert.Equal(t, 1, global)
}
