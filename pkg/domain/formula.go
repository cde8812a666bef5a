package domain

import "strings"

// FormatFormula renders a molecular formula as mathtext with subscripted
// digits, e.g. "H2O" becomes `$\mathregular{H_2O}$`.
func FormatFormula(formula string) string {
	var b strings.Builder
	b.WriteString(`$\mathregular{`)
	for _, r := range formula {
		if r >= '0' && r <= '9' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	b.WriteString(`}$`)
	return b.String()
}

// PlainFormula renders subscripts as Unicode digits, e.g. "CO₂", for
// renderers that cannot typeset mathtext.
func PlainFormula(formula string) string {
	const subscripts = "₀₁₂₃₄₅₆₇₈₉"
	sub := []rune(subscripts)
	var b strings.Builder
	for _, r := range formula {
		if r >= '0' && r <= '9' {
			b.WriteRune(sub[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
