package tautomer

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/turtacn/molmatch/pkg/errors"
)

// Rule selects the endpoint classes a mobile-hydrogen chain may join.
type Rule uint8

const (
	// RuleHeteroHetero moves hydrogen between two heteroatoms (R1).
	RuleHeteroHetero Rule = 1 << iota
	// RuleCarbonHetero moves hydrogen between carbon and a heteroatom (R2).
	RuleCarbonHetero
	// RuleCarbonCarbon moves hydrogen between two carbons (R3).
	RuleCarbonCarbon

	// DefaultRules is what a bare "TAU" enables.
	DefaultRules = RuleHeteroHetero | RuleCarbonHetero

	ruleCount = 3
)

func (r Rule) String() string {
	var parts []string
	for i := 0; i < ruleCount; i++ {
		if r&(1<<i) != 0 {
			parts = append(parts, "R"+strconv.Itoa(i+1))
		}
	}
	return strings.Join(parts, " ")
}

// Conditions configures one tautomer search.
type Conditions struct {
	Rules Rule
	// ForceHydrogens compares hydrogen counts literally: hydrogens replaced
	// by coordination bonds are not credited back.
	ForceHydrogens bool
	// RingChain enables ring-chain tautomerism through super-structure bonds.
	RingChain bool
}

// DefaultConditions enables the default rules only.
func DefaultConditions() Conditions {
	return Conditions{Rules: DefaultRules}
}

// String renders the conditions in the form ParseConditions reads.
func (c Conditions) String() string {
	parts := []string{"TAU"}
	if c.Rules != DefaultRules {
		parts = append(parts, c.Rules.String())
	}
	if c.ForceHydrogens {
		parts = append(parts, "HYD")
	}
	if c.RingChain {
		parts = append(parts, "R-C")
	}
	return strings.Join(parts, " ")
}

// ─────────────────────────────────────────────────────────────────────────────
// Condition strings
// ─────────────────────────────────────────────────────────────────────────────

var conditionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "RingChain", Pattern: `R-C`},
	{Name: "Rule", Pattern: `R[0-9]+`},
	{Name: "Keyword", Pattern: `3D|[A-Z][A-Z0-9]*`},
	{Name: "Number", Pattern: `[0-9]*\.?[0-9]+`},
	{Name: "Whitespace", Pattern: `[\s,]+`},
})

type conditionList struct {
	Terms []*Term `parser:"@@*"`
}

// Term is one word of a condition string.
type Term struct {
	Pos       lexer.Position
	RingChain bool     `parser:"  @RingChain"`
	Rule      string   `parser:"| @Rule"`
	Keyword   string   `parser:"| @Keyword"`
	Number    *float64 `parser:"| @Number"`
}

func (t *Term) String() string {
	switch {
	case t.RingChain:
		return "R-C"
	case t.Rule != "":
		return t.Rule
	case t.Number != nil:
		return strconv.FormatFloat(*t.Number, 'g', -1, 64)
	}
	return t.Keyword
}

var conditionParser = participle.MustBuild[conditionList](
	participle.Lexer(conditionLexer),
	participle.Elide("Whitespace"),
)

// ParseTerms splits a condition string into terms.  Words are case
// insensitive.
func ParseTerms(s string) ([]*Term, error) {
	list, err := conditionParser.ParseString("", strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnknownCondition, "cannot read matching conditions").WithDetail(s)
	}
	return list.Terms, nil
}

// ParseConditions reads a string such as "TAU R1 R3 HYD R-C".  The leading
// TAU is optional; without any rule the default rules apply.
func ParseConditions(s string) (Conditions, error) {
	terms, err := ParseTerms(s)
	if err != nil {
		return Conditions{}, err
	}
	if len(terms) > 0 && terms[0].Keyword == "TAU" {
		terms = terms[1:]
	}
	return ConditionsFromTerms(terms)
}

// ConditionsFromTerms interprets the words following TAU.
func ConditionsFromTerms(terms []*Term) (Conditions, error) {
	var c Conditions
	for _, t := range terms {
		switch {
		case t.RingChain:
			c.RingChain = true
		case t.Rule != "":
			n, err := strconv.Atoi(t.Rule[1:])
			if err != nil || n < 1 || n > ruleCount {
				return Conditions{}, errors.Newf(errors.ErrCodeUnknownCondition, "unknown tautomer rule %s", t.Rule).
					WithDetailf("position %d", t.Pos.Column)
			}
			c.Rules |= 1 << (n - 1)
		case t.Keyword == "HYD":
			c.ForceHydrogens = true
		default:
			return Conditions{}, errors.Newf(errors.ErrCodeUnknownCondition, "unknown tautomer condition %q", t.String()).
				WithDetailf("position %d", t.Pos.Column)
		}
	}
	if c.Rules == 0 {
		c.Rules = DefaultRules
	}
	return c, nil
}

//Personal.AI order the ending
