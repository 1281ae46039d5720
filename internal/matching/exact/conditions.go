package exact

import (
	"strconv"
	"strings"

	"github.com/turtacn/molmatch/internal/matching/tautomer"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Flags select which properties two molecules must share beyond their
// element-labelled topology.
type Flags uint8

const (
	// Electrons compares charges, radicals, hydrogen counts and bond orders.
	Electrons Flags = 1 << iota
	// Isotopes compares mass numbers.
	Isotopes
	// Stereo compares stereocenters and cis-trans bonds.
	Stereo
	// Fragments matches every component instead of the largest one.
	Fragments
	// Geometry superposes the coordinates of mapped atoms.
	Geometry

	None Flags = 0
	All        = Electrons | Isotopes | Stereo | Fragments
)

var flagWords = []struct {
	word string
	flag Flags
}{
	{"ELE", Electrons},
	{"MAS", Isotopes},
	{"STE", Stereo},
	{"FRA", Fragments},
	{"3D", Geometry},
}

func (f Flags) String() string {
	switch f {
	case None:
		return "NONE"
	case All:
		return "ALL"
	}
	var parts []string
	for _, w := range flagWords {
		if f&w.flag != 0 {
			parts = append(parts, w.word)
		}
	}
	return strings.Join(parts, " ")
}

// DefaultRMS is the coordinate tolerance used when "3D" carries no value.
const DefaultRMS = 0.01

// Conditions configures one exact search.  A non-nil Tautomer switches the
// search to tautomer equivalence and the flags no longer apply.
type Conditions struct {
	Flags    Flags
	RMS      float64
	Tautomer *tautomer.Conditions
}

// DefaultConditions compares everything except coordinates.
func DefaultConditions() Conditions {
	return Conditions{Flags: All, RMS: DefaultRMS}
}

func (c Conditions) String() string {
	if c.Tautomer != nil {
		return c.Tautomer.String()
	}
	s := c.Flags.String()
	if c.Flags&Geometry != 0 {
		s += " " + strconv.FormatFloat(c.RMS, 'g', -1, 64)
	}
	return s
}

// ParseConditions reads a string such as "ELE MAS 3D 0.1", "ALL", "NONE"
// or "TAU R1 R2".  Words following TAU belong to the tautomer conditions.
// An empty string yields DefaultConditions.
func ParseConditions(s string) (Conditions, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultConditions(), nil
	}
	terms, err := tautomer.ParseTerms(s)
	if err != nil {
		return Conditions{}, err
	}
	c := Conditions{RMS: DefaultRMS}
	for i := 0; i < len(terms); i++ {
		t := terms[i]
		switch t.Keyword {
		case "TAU":
			tc, err := tautomer.ConditionsFromTerms(terms[i+1:])
			if err != nil {
				return Conditions{}, err
			}
			c.Tautomer = &tc
			return c, nil
		case "ALL":
			c.Flags |= All
			continue
		case "NONE":
			continue
		case "3D":
			c.Flags |= Geometry
			if i+1 < len(terms) && terms[i+1].Number != nil {
				i++
				c.RMS = *terms[i].Number
			}
			continue
		}
		f, ok := lookupFlag(t.Keyword)
		if !ok {
			return Conditions{}, errors.Newf(errors.ErrCodeUnknownCondition, "unknown exact-match condition %q", t.String()).
				WithDetailf("position %d", t.Pos.Column)
		}
		c.Flags |= f
	}
	return c, nil
}

func lookupFlag(word string) (Flags, bool) {
	for _, w := range flagWords {
		if w.word == word {
			return w.flag, true
		}
	}
	return 0, false
}

//Personal.AI order the ending
