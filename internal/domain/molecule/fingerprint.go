package molecule

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint defaults.
const (
	DefaultFingerprintBits = 1024
	DefaultMaxPathLength   = 5
)

// Fingerprint is a path-based structural key set packed into a bit vector:
// bit i is stored in byte i/8 at bit position i%8.
type Fingerprint struct {
	Bits      []byte `json:"bits"`
	Length    int    `json:"length"`
	NumOnBits int    `json:"num_on_bits"`
}

// NewFingerprint returns an all-zero fingerprint of length bits.
func NewFingerprint(length int) *Fingerprint {
	if length <= 0 {
		length = DefaultFingerprintBits
	}
	return &Fingerprint{Bits: make([]byte, (length+7)/8), Length: length}
}

// GetBit returns true if the bit at the given index is set.
func (fp *Fingerprint) GetBit(index int) bool {
	if index < 0 || index >= fp.Length {
		return false
	}
	return fp.Bits[index/8]&(1<<uint(index%8)) != 0
}

// SetBit sets the bit at the given index to 1.
func (fp *Fingerprint) SetBit(index int) {
	if index < 0 || index >= fp.Length {
		return
	}
	old := fp.Bits[index/8]
	fp.Bits[index/8] |= 1 << uint(index%8)
	if old != fp.Bits[index/8] {
		fp.NumOnBits++
	}
}

// Contains reports whether every bit of sub is also set in fp.  A query can
// only embed into a target whose fingerprint contains the query's.
func (fp *Fingerprint) Contains(sub *Fingerprint) bool {
	if sub.Length != fp.Length {
		return false
	}
	for i, b := range sub.Bits {
		if fp.Bits[i]&b != b {
			return false
		}
	}
	return true
}

// Common returns the number of bits set in both fingerprints.
func (fp *Fingerprint) Common(other *Fingerprint) int {
	n := 0
	for i := range fp.Bits {
		if i < len(other.Bits) {
			n += bits.OnesCount8(fp.Bits[i] & other.Bits[i])
		}
	}
	return n
}

// FingerprintOptions configures path enumeration.
type FingerprintOptions struct {
	Bits          int
	MaxPathLength int
}

func (o FingerprintOptions) withDefaults() FingerprintOptions {
	if o.Bits <= 0 {
		o.Bits = DefaultFingerprintBits
	}
	if o.MaxPathLength <= 0 {
		o.MaxPathLength = DefaultMaxPathLength
	}
	return o
}

// ComputeFingerprint hashes every simple path of heavy atoms up to
// MaxPathLength bonds, labelled by element only, so that bond-order
// ambiguity (aromatic versus Kekulé, tautomeric shifts) never removes a key.
func ComputeFingerprint(m *Molecule, opts FingerprintOptions) *Fingerprint {
	return pathFingerprint(m, opts.withDefaults(), func(v int) (int, bool) {
		a := m.Atom(v)
		if a.Kind != AtomRegular || a.Number == ElemH {
			return 0, false
		}
		return a.Number, true
	})
}

// ComputeQueryFingerprint keys only the atoms whose element the query pins,
// which keeps the result a subset of every matching target's keys.
func ComputeQueryFingerprint(m *Molecule, opts FingerprintOptions) *Fingerprint {
	return pathFingerprint(m, opts.withDefaults(), func(v int) (int, bool) {
		n, ok := m.QueryElement(v)
		if !ok || n == ElemH {
			return 0, false
		}
		return n, true
	})
}

func pathFingerprint(m *Molecule, opts FingerprintOptions, label func(v int) (int, bool)) *Fingerprint {
	fp := NewFingerprint(opts.Bits)
	labels := make(map[int]int)
	for _, v := range m.Vertices() {
		if l, ok := label(v); ok {
			labels[v] = l
		}
	}
	onPath := make(map[int]bool)
	path := make([]int, 0, opts.MaxPathLength+1)
	var walk func(v int)
	walk = func(v int) {
		path = append(path, labels[v])
		onPath[v] = true
		fp.SetBit(int(pathKey(path) % uint64(opts.Bits)))
		if len(path) <= opts.MaxPathLength {
			for _, nb := range m.Neighbors(v) {
				if _, ok := labels[nb.V]; ok && !onPath[nb.V] {
					walk(nb.V)
				}
			}
		}
		onPath[v] = false
		path = path[:len(path)-1]
	}
	for v := range labels {
		walk(v)
	}
	return fp
}

// pathKey hashes the lexicographically smaller direction of a label path.
func pathKey(path []int) uint64 {
	forward := true
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		if path[i] != path[j] {
			forward = path[i] < path[j]
			break
		}
	}
	var sb strings.Builder
	for i := range path {
		idx := i
		if !forward {
			idx = len(path) - 1 - i
		}
		sb.WriteString(strconv.Itoa(path[idx]))
		sb.WriteByte('-')
	}
	return xxhash.Sum64String(sb.String())
}

//Personal.AI order the ending
