package ratemod

import "regexp"

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Built-in symbols that may appear in formulas without being model
// entities: common math functions and constants plus the simulation
// time symbol.
var builtinFormulaSymbols = map[string]bool{
	"abs": true, "exp": true, "log": true, "log10": true, "log2": true,
	"ln": true, "sqrt": true, "pow": true, "floor": true, "ceil": true,
	"sin": true, "cos": true, "tan": true, "min": true, "max": true,
	"pi": true, "exponentiale": true, "time": true,
}

// formulaIdentifiers returns the distinct identifiers referenced by a
// formula string, excluding built-in functions and constants, in order
// of first appearance. This is a lexical scan, not formula evaluation.
func formulaIdentifiers(formula string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, id := range identifierPattern.FindAllString(formula, -1) {
		if builtinFormulaSymbols[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
