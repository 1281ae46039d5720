package molecule

import "strings"

// Element numbers used by name in the matchers.
const (
	ElemH  = 1
	ElemB  = 5
	ElemC  = 6
	ElemN  = 7
	ElemO  = 8
	ElemF  = 9
	ElemSi = 14
	ElemP  = 15
	ElemS  = 16
	ElemCl = 17
	ElemAs = 33
	ElemSe = 34
	ElemBr = 35
	ElemTe = 52
	ElemI  = 53
)

var symbols = []string{
	"",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
}

var bySymbol = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for n, s := range symbols {
		if s != "" {
			m[s] = n
		}
	}
	return m
}()

// Symbol returns the element symbol of n, or "?" when unknown.
func Symbol(n int) string {
	if n > 0 && n < len(symbols) {
		return symbols[n]
	}
	return "?"
}

// ElementBySymbol looks up an element number; the lookup is case-sensitive
// except that an all-lowercase aromatic symbol ("c", "se") is accepted too.
func ElementBySymbol(s string) (int, bool) {
	if n, ok := bySymbol[s]; ok {
		return n, true
	}
	if s != "" && strings.ToLower(s) == s {
		n, ok := bySymbol[strings.ToUpper(s[:1])+s[1:]]
		return n, ok
	}
	return 0, false
}

var valences = map[int][]int{
	ElemH:  {1},
	ElemB:  {3},
	ElemC:  {4},
	ElemN:  {3, 5},
	ElemO:  {2},
	ElemF:  {1},
	ElemSi: {4},
	ElemP:  {3, 5},
	ElemS:  {2, 4, 6},
	ElemCl: {1, 3, 5, 7},
	ElemAs: {3, 5},
	ElemSe: {2, 4, 6},
	ElemBr: {1, 3, 5, 7},
	ElemTe: {2, 4, 6},
	ElemI:  {1, 3, 5, 7},
}

// StandardValences returns the allowed neutral valences of n, nil for
// elements without an organic-subset valence model.
func StandardValences(n int) []int {
	return valences[n]
}

// chargedValence shifts the valence model of charged atoms: N+ behaves like
// C, C- like N, O+ like N.
func chargedValence(n, charge int) []int {
	if charge == 0 {
		return valences[n]
	}
	switch {
	case n == ElemN || n == ElemP:
		if charge == 1 {
			return []int{4}
		}
		if charge == -1 {
			return []int{2}
		}
	case n == ElemC:
		if charge == 1 || charge == -1 {
			return []int{3}
		}
	case n == ElemO || n == ElemS || n == ElemSe:
		if charge == 1 {
			return []int{3}
		}
		if charge == -1 {
			return []int{1}
		}
	case n == ElemB:
		if charge == -1 {
			return []int{4}
		}
	}
	return nil
}

// IsHetero reports whether n is neither carbon nor hydrogen.
func IsHetero(n int) bool {
	return n != ElemC && n != ElemH && n > 0
}

// IsMetal is a coarse classification used for hydrogen-replacement counts.
func IsMetal(n int) bool {
	switch {
	case n == 3 || n == 4 || n == 11 || n == 12 || n == 13:
		return true
	case n >= 19 && n <= 31:
		return true
	case n >= 37 && n <= 50:
		return true
	case n >= 55 && n <= 84:
		return true
	}
	return false
}

//Personal.AI order the ending
