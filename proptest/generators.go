package proptest

// Charsets for string generation
const (
	CharsetAlpha      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetAlphaLower = "abcdefghijklmnopqrstuvwxyz"
	CharsetDigits     = "0123456789"
	CharsetAlphaNum   = CharsetAlpha + CharsetDigits
	CharsetPrintable  = CharsetAlphaNum + " !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	CharsetIdentStart = CharsetAlphaLower + "_"
	CharsetIdentBody  = CharsetAlphaLower + CharsetDigits + "_"
)

// IntRange returns a random int in [min, max].
// Panics if min > max.
func (g *Generator) IntRange(min, max int) int {
	if min > max {
		panic("proptest: IntRange min > max")
	}
	if min == max {
		return min
	}
	return min + g.rng.Intn(max-min+1)
}

// String returns a random printable string of length [0, maxLen].
func (g *Generator) String(maxLen int) string {
	return g.stringFrom(CharsetPrintable, g.IntRange(0, maxLen))
}

// Identifier returns a lowercase SQL identifier of length [1, maxLen].
func (g *Generator) Identifier(maxLen int) string {
	if maxLen <= 0 {
		maxLen = 1
	}
	length := g.IntRange(1, maxLen)

	b := make([]byte, length)
	b[0] = CharsetIdentStart[g.Intn(len(CharsetIdentStart))]
	for i := 1; i < length; i++ {
		b[i] = CharsetIdentBody[g.Intn(len(CharsetIdentBody))]
	}
	return string(b)
}

func (g *Generator) stringFrom(charset string, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[g.Intn(len(charset))]
	}
	return string(b)
}

// Pick returns a random element from a non-empty slice.
// Panics if slice is empty.
func Pick[T any](g *Generator, slice []T) T {
	if len(slice) == 0 {
		panic("proptest: Pick called with empty slice")
	}
	return slice[g.Intn(len(slice))]
}

// =============================================================================
// SQL Fragment Generators
// =============================================================================

// ColumnExpr returns a SQL expression fragment: a bare column, a qualified
// column, or a column wrapped in a function call.
func (g *Generator) ColumnExpr() string {
	col := g.Identifier(12)
	switch g.Intn(4) {
	case 0:
		return col
	case 1:
		return g.Identifier(8) + "." + col
	case 2:
		return `"` + g.Identifier(8) + `"."` + col + `"`
	default:
		return "COALESCE(" + col + ", " + g.Identifier(12) + ")"
	}
}

// Timezone returns a timezone identifier, occasionally one containing a
// single quote to exercise literal escaping.
func (g *Generator) Timezone() string {
	zones := []string{
		"UTC",
		"Etc/UTC",
		"America/New_York",
		"America/Argentina/Buenos_Aires",
		"Europe/Berlin",
		"Asia/Kolkata",
		"Australia/Lord_Howe",
		"Pacific/Chatham",
		"+05:30",
		"Etc/GMT-14",
	}
	return Pick(g, zones)
}

// ParamValue returns a value of a type commonly bound as a query parameter.
func (g *Generator) ParamValue() any {
	switch g.Intn(5) {
	case 0:
		return g.IntRange(-1000, 1000)
	case 1:
		return g.String(20)
	case 2:
		return g.Bool()
	case 3:
		return g.Float64()
	default:
		return nil
	}
}

// EdgeCaseString returns a string that's likely to trigger edge cases.
func (g *Generator) EdgeCaseString() string {
	edgeCases := []string{
		"",
		" ",
		"'",
		"''",
		`"`,
		`\`,
		"it's",
		"$1",
		"$0$",
		"?",
		"NULL",
		"--",
		"/**/",
		"; DROP TABLE users;",
		"日本語",
		"{{ param_index }}",
	}
	if g.Float64() < 0.7 {
		return Pick(g, edgeCases)
	}
	return g.String(50)
}
