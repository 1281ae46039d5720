package embedding

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Storage deduplicates and optionally records embeddings.  Two embeddings
// are the same when their target vertex sets (and, with UniqueByEdges, their
// target edge sets) coincide.
type Storage struct {
	CheckUniqueness bool
	UniqueByEdges   bool
	SaveEdges       bool
	SaveMapping     bool

	entries []stored
	index   map[uint64][]int
}

type stored struct {
	vertices []int
	edges    []int
	mapping  []int
}

// NewStorage returns a storage that rejects duplicates by vertex set.
func NewStorage() *Storage {
	return &Storage{CheckUniqueness: true, index: make(map[uint64][]int)}
}

// AddEmbedding records the mapping described by coreSub and reports whether
// it was new.  Non-unique embeddings are not stored.
func (s *Storage) AddEmbedding(super, sub Graph, coreSub []Slot) bool {
	if s.index == nil {
		s.index = make(map[uint64][]int)
	}
	var vertices []int
	for q, slot := range coreSub {
		if slot.Mapped() && sub.HasVertex(q) {
			vertices = append(vertices, slot.Index())
		}
	}
	sort.Ints(vertices)

	var edges []int
	if s.UniqueByEdges || s.SaveEdges {
		for q, slot := range coreSub {
			if !slot.Mapped() || !sub.HasVertex(q) {
				continue
			}
			for _, n := range sub.Neighbors(q) {
				if n.V <= q || !coreSub[n.V].Mapped() {
					continue
				}
				if te := super.FindEdge(slot.Index(), coreSub[n.V].Index()); te >= 0 {
					edges = append(edges, te)
				}
			}
		}
		sort.Ints(edges)
	}

	h := hashSets(vertices, edges, s.UniqueByEdges)
	if s.CheckUniqueness {
		for _, id := range s.index[h] {
			prev := s.entries[id]
			if equalInts(prev.vertices, vertices) && (!s.UniqueByEdges || equalInts(prev.edges, edges)) {
				return false
			}
		}
	}

	entry := stored{vertices: vertices}
	if s.SaveEdges || s.UniqueByEdges {
		entry.edges = edges
	}
	if s.SaveMapping {
		entry.mapping = Indices(coreSub)
	}
	s.index[h] = append(s.index[h], len(s.entries))
	s.entries = append(s.entries, entry)
	return true
}

// Count returns the number of stored embeddings.
func (s *Storage) Count() int {
	return len(s.entries)
}

// Vertices returns the sorted target vertex set of embedding i.
func (s *Storage) Vertices(i int) []int {
	return s.entries[i].vertices
}

// Edges returns the sorted target edge set of embedding i, if edges were saved.
func (s *Storage) Edges(i int) []int {
	return s.entries[i].edges
}

// Mapping returns the query-to-target mapping of embedding i, if saved.
func (s *Storage) Mapping(i int) []int {
	return s.entries[i].mapping
}

// Clear drops every stored embedding.
func (s *Storage) Clear() {
	s.entries = nil
	s.index = make(map[uint64][]int)
}

func hashSets(vertices, edges []int, withEdges bool) uint64 {
	buf := make([]byte, 0, 4*(len(vertices)+len(edges)+1))
	for _, v := range vertices {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
	}
	if withEdges {
		buf = binary.LittleEndian.AppendUint32(buf, ^uint32(0))
		for _, e := range edges {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(e))
		}
	}
	return xxhash.Sum64(buf)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
