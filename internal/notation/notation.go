// Package notation reads the line notation used by the CLI, fixtures and
// tests: the organic subset, bracket atoms with isotope, element or "#n",
// "@"/"@@", hydrogen count, charge and ":n" mapping labels, R-sites "[R1]" or
// "[R1,2]", pseudo atoms "[$Name]", branches, ring closures "0-9" and "%nn",
// bonds "- = # : ~ / \", components "." and reactions "a.b>c>d".
//
// An optional trailing block "|(x,y,z;x,y,z;...)|" assigns 3D coordinates
// to the atoms in reading order.
package notation

import (
	"strconv"
	"strings"

	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/domain/reaction"
	"github.com/turtacn/molmatch/internal/geometry"
	"github.com/turtacn/molmatch/pkg/errors"
)

// ParseMolecule reads a target molecule.
func ParseMolecule(s string) (*molecule.Molecule, error) {
	return parse(s, false)
}

// ParseQuery reads a query molecule: bracket atoms turn into expressions
// constraining only what they spell out, and "~" is allowed.
func ParseQuery(s string) (*molecule.Molecule, error) {
	return parse(s, true)
}

// MustParseMolecule is ParseMolecule that panics on error.
func MustParseMolecule(s string) *molecule.Molecule {
	m, err := ParseMolecule(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MustParseQuery is ParseQuery that panics on error.
func MustParseQuery(s string) *molecule.Molecule {
	m, err := ParseQuery(s)
	if err != nil {
		panic(err)
	}
	return m
}

func parse(s string, query bool) (*molecule.Molecule, error) {
	body, coords, err := splitCoordinates(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if body == "" {
		return molecule.New(), nil
	}
	mix, err := lineParser.ParseString("", body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotationSyntax, "cannot read line notation").WithDetail(body)
	}
	m, err := newReader(query).read(mix)
	if err != nil {
		return nil, err
	}
	if coords != nil {
		if len(coords) != m.VertexCount() {
			return nil, errors.Newf(errors.ErrCodeNotationSyntax,
				"%d coordinates given for %d atoms", len(coords), m.VertexCount())
		}
		for i, v := range m.Vertices() {
			m.Atom(v).Pos = coords[i]
		}
		m.HasCoords = true
	}
	return m, nil
}

func splitCoordinates(s string) (string, []geometry.Vec3, error) {
	i := strings.Index(s, "|")
	if i < 0 {
		return s, nil, nil
	}
	block := strings.TrimSpace(s[i:])
	if !strings.HasPrefix(block, "|(") || !strings.HasSuffix(block, ")|") {
		return "", nil, errors.New(errors.ErrCodeNotationSyntax, "malformed coordinate block").WithDetail(block)
	}
	var out []geometry.Vec3
	for _, triple := range strings.Split(block[2:len(block)-2], ";") {
		parts := strings.Split(triple, ",")
		if len(parts) != 3 {
			return "", nil, errors.New(errors.ErrCodeNotationSyntax, "coordinate needs three components").WithDetail(triple)
		}
		var xyz [3]float64
		for k, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return "", nil, errors.Wrap(err, errors.ErrCodeNotationSyntax, "invalid coordinate").WithDetail(p)
			}
			xyz[k] = f
		}
		out = append(out, geometry.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	return strings.TrimSpace(s[:i]), out, nil
}

// ParseFragment reads an R-group fragment.  Attachment points are written as
// "[*:k]" atoms bonded to the attaching atom; they are removed and recorded
// in Fragment.Attach.
func ParseFragment(s string) (*molecule.Fragment, error) {
	m, err := ParseQuery(s)
	if err != nil {
		return nil, err
	}
	attach := make(map[int]int)
	var dummies []int
	for _, v := range m.Vertices() {
		a := m.Atom(v)
		if a.Kind != molecule.AtomAny || a.AAM == 0 {
			continue
		}
		nbrs := m.Neighbors(v)
		if len(nbrs) != 1 {
			return nil, errors.New(errors.ErrCodeAttachmentPoints, "attachment point must have one neighbour").
				WithDetailf("point %d", a.AAM)
		}
		if _, dup := attach[a.AAM]; dup {
			return nil, errors.New(errors.ErrCodeAttachmentPoints, "duplicate attachment point").
				WithDetailf("point %d", a.AAM)
		}
		attach[a.AAM] = nbrs[0].V
		dummies = append(dummies, v)
	}
	if len(attach) == 0 || len(attach) > 2 {
		return nil, errors.Newf(errors.ErrCodeAttachmentPoints, "fragment has %d attachment points", len(attach))
	}
	f := &molecule.Fragment{Mol: m, Attach: make([]int, len(attach))}
	for k := 1; k <= len(attach); k++ {
		v, ok := attach[k]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeAttachmentPoints, "attachment point %d is missing", k)
		}
		f.Attach[k-1] = v
	}
	for _, v := range dummies {
		if err := m.RemoveAtom(v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustParseFragment is ParseFragment that panics on error.
func MustParseFragment(s string) *molecule.Fragment {
	f, err := ParseFragment(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseReaction reads "reactants>catalysts>products" with "." separating
// molecules on each side.
func ParseReaction(s string) (*reaction.Reaction, error) {
	return parseReaction(s, false)
}

// ParseQueryReaction is ParseReaction with query semantics for every
// molecule.
func ParseQueryReaction(s string) (*reaction.Reaction, error) {
	return parseReaction(s, true)
}

func parseReaction(s string, query bool) (*reaction.Reaction, error) {
	parts := strings.Split(strings.TrimSpace(s), ">")
	if len(parts) != 3 {
		return nil, errors.New(errors.ErrCodeNotationSyntax, "reaction needs exactly two '>' separators").WithDetail(s)
	}
	rxn := reaction.New()
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		for _, piece := range strings.Split(part, ".") {
			m, err := parse(piece, query)
			if err != nil {
				return nil, err
			}
			rxn.Add(reaction.Side(i), m)
		}
	}
	return rxn, nil
}

//Personal.AI order the ending
