package equation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	op  = "\u2005"
	rel = "\u2004"
)

func TestNormalizeSpacing(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"binary and relation", "a+b=c", "a" + op + "+" + op + "b" + rel + "=" + rel + "c"},
		{"ascii spaces replaced", "a + b", "a" + op + "+" + op + "b"},
		{"leading unary minus", "-x", "-x"},
		{"unary after relation", "y=-x", "y" + rel + "=" + rel + "-x"},
		{"unary in group", "e^{-x}", "e^{-x}"},
		{"unary after caret", "x^-1", "x^-1"},
		{"unary after paren", "f(-x)", "f(-x)"},
		{"digraph", "a<=b", "a" + rel + "<=" + rel + "b"},
		{"not equal digraph", "a!=b", "a" + rel + "!=" + rel + "b"},
		{"unicode relation", "x≤y", "x" + rel + "≤" + rel + "y"},
		{"unicode operator", "2×3", "2" + op + "×" + op + "3"},
		{"command names untouched", `\frac{a}{b}+\alpha`, `\frac{a}{b}` + op + "+" + op + `\alpha`},
		{"escaped brace", `\{x\}`, `\{x\}`},
		{"text argument verbatim", `x=\text{a - b}`, "x" + rel + "=" + rel + `\text{a - b}`},
		{"delimiter after left", `\left< x \right>`, `\left< x \right>`},
		{"no operators", "xyz", "xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in, Inline)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"a+b=c",
		"a + b = c",
		"y = -x^2 + 3x - 1",
		`\sum_{i=1}^{n} i = \frac{n(n+1)}{2}`,
		"x ≤ y ± z",
	}
	for _, in := range inputs {
		once, err := Normalize(in, Inline)
		require.NoError(t, err)
		twice, err := Normalize(once, Inline)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestNormalizeInlineStripsDollars(t *testing.T) {
	got, err := Normalize("$x$", Inline)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	got, err = Normalize("$$x$$", Inline)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestNormalizeDisplay(t *testing.T) {
	got, err := Normalize(`\begin{equation}E=mc^2\label{eq:1}\end{equation}`, Display)
	require.NoError(t, err)
	assert.Equal(t, "E"+rel+"="+rel+"mc^2", got)

	got, err = Normalize(`\begin{align*}a&=b\end{align*}`, Display)
	require.NoError(t, err)
	assert.Equal(t, `\begin{aligned}a&`+rel+"="+rel+`b\end{aligned}`, got)

	got, err = Normalize(`see \eqref{x}`, Display)
	require.NoError(t, err)
	assert.Equal(t, `see \ref{x}`, got)
}

func TestNormalizeMalformed(t *testing.T) {
	for _, in := range []string{`\frac{a}{b`, `a}+b`, `a+b\`} {
		got, err := Normalize(in, Inline)
		assert.ErrorIs(t, err, ErrMalformedEquation, "input %q", in)
		assert.Equal(t, in, got)
	}
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		in       string
		wantExpr string
		wantNum  string
	}{
		{`x=1 \tag{3}`, `x=1 \tag{3}`, "3"},
		{`x=1 \label{eq:main}`, `x=1 \label{eq:main}`, "eq:main"},
		{`x=1 \qquad (2.1)`, `x=1`, "2.1"},
		{`x=1 (4)`, `x=1`, "4"},
		{`f(2)`, `f(2)`, ""},
		{`x=1`, `x=1`, ""},
	}
	for _, tt := range tests {
		expr, num := ExtractNumber(tt.in)
		assert.Equal(t, tt.wantExpr, expr, "input %q", tt.in)
		assert.Equal(t, tt.wantNum, num, "input %q", tt.in)
	}
}
