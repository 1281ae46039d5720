package embedding

import "strconv"

// Slot is the per-vertex mapping state kept by the enumerator.  A
// non-negative Slot is the index of the vertex on the other side of the
// mapping; the negative values are bookkeeping states.
type Slot int

const (
	// Unmapped marks a vertex not yet considered by the search.
	Unmapped Slot = -1
	// TermOut marks an unmapped vertex adjacent to the current partial mapping.
	TermOut Slot = -2
	// Ignored marks a vertex permanently excluded from matching.
	Ignored Slot = -3
)

// MappedTo returns the Slot of a vertex paired with index i.
func MappedTo(i int) Slot {
	return Slot(i)
}

// Mapped reports whether the slot holds a partner index.
func (s Slot) Mapped() bool {
	return s >= 0
}

// Free reports whether the vertex is still available for pairing.
func (s Slot) Free() bool {
	return s == Unmapped || s == TermOut
}

// Index returns the partner index, or -1 when the slot is not mapped.
func (s Slot) Index() int {
	if s < 0 {
		return -1
	}
	return int(s)
}

func (s Slot) String() string {
	switch s {
	case Unmapped:
		return "unmapped"
	case TermOut:
		return "term-out"
	case Ignored:
		return "ignored"
	}
	return "->" + strconv.Itoa(int(s))
}

// Indices converts a slot array into plain indices (-1 for unmapped states,
// -2 for ignored vertices), the representation callers keep after a search.
func Indices(core []Slot) []int {
	out := make([]int, len(core))
	for i, s := range core {
		switch {
		case s.Mapped():
			out[i] = int(s)
		case s == Ignored:
			out[i] = -2
		default:
			out[i] = -1
		}
	}
	return out
}

//Personal.AI order the ending
