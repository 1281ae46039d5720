package notation

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ─────────────────────────────────────────────────────────────────────────────
// Molecule grammar
// ─────────────────────────────────────────────────────────────────────────────

var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Bracket", Pattern: `\[[^\]]*\]`},
	{Name: "Organic", Pattern: `Cl|Br|[BCNOPSFI]|[bcnops]|\*`},
	{Name: "Ring", Pattern: `%[0-9]{2}|[0-9]`},
	{Name: "Bond", Pattern: `[-=#:~/\\]`},
	{Name: "Punct", Pattern: `[().]`},
})

type lineMixture struct {
	Components []*lineChain `parser:"@@ ( \".\" @@ )*"`
}

type lineChain struct {
	Head *lineAtom   `parser:"@@"`
	Tail []*lineItem `parser:"@@*"`
}

type lineItem struct {
	Branch *lineBranch `parser:"  \"(\" @@ \")\""`
	Bonded *lineBonded `parser:"| @@"`
}

type lineBranch struct {
	Bond  string     `parser:"@Bond?"`
	Chain *lineChain `parser:"@@"`
}

type lineBonded struct {
	Bond string    `parser:"@Bond?"`
	Ring string    `parser:"( @Ring"`
	Atom *lineAtom `parser:"| @@ )"`
}

type lineAtom struct {
	Pos     lexer.Position
	Bracket string `parser:"  @Bracket"`
	Organic string `parser:"| @Organic"`
}

var lineParser = participle.MustBuild[lineMixture](
	participle.Lexer(lineLexer),
	participle.UseLookahead(2),
)

// ─────────────────────────────────────────────────────────────────────────────
// Bracket atom grammar
// ─────────────────────────────────────────────────────────────────────────────

var bracketLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Symbol", Pattern: `[A-Z][a-z]?|[a-z][a-z]?|\*`},
	{Name: "Punct", Pattern: `[@#+\-:,$]`},
})

type bracketAtom struct {
	Isotope string      `parser:"@Int?"`
	Number  string      `parser:"( \"#\" @Int"`
	Pseudo  []string    `parser:"| \"$\" @( Symbol | Int )+"`
	Symbol  string      `parser:"| @Symbol )"`
	Groups  []string    `parser:"( @Int ( \",\" @Int )* )?"`
	Chiral  []string    `parser:"@\"@\"*"`
	H       *bracketH   `parser:"@@?"`
	Charge  []string    `parser:"@( \"+\" | \"-\" )*"`
	Amount  string      `parser:"@Int?"`
	Class   *bracketAAM `parser:"@@?"`
}

type bracketH struct {
	H     string `parser:"@\"H\""`
	Count string `parser:"@Int?"`
}

type bracketAAM struct {
	Label string `parser:"\":\" @Int"`
}

var bracketParser = participle.MustBuild[bracketAtom](
	participle.Lexer(bracketLexer),
	participle.UseLookahead(2),
)

//Personal.AI order the ending
