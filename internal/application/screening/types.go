// Package screening runs one query against a batch of targets on a bounded
// worker pool, with fingerprint prefiltering and a verdict cache.
package screening

import (
	"time"

	"github.com/turtacn/molmatch/internal/domain/molecule"
)

// Mode selects the matcher applied to every target.
type Mode string

const (
	ModeSubstructure Mode = "substructure"
	ModeExact        Mode = "exact"
	ModeTautomer     Mode = "tautomer"
	ModeSimilarity   Mode = "similarity"
)

// IsValid reports whether m names a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSubstructure, ModeExact, ModeTautomer, ModeSimilarity:
		return true
	}
	return false
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	return m, m.IsValid()
}

// Target is one molecule to screen.  Molecule wins over Notation when both
// are set; ID keys the verdict cache and is derived from Notation when empty.
type Target struct {
	ID       string
	Notation string
	Molecule *molecule.Molecule
}

// ScreenInput describes one screening run.
type ScreenInput struct {
	Mode  Mode
	Query string
	// Conditions overrides the configured exact or tautomer conditions.
	Conditions string
	Targets    []Target
	// CountEmbeddings enumerates embeddings per hit instead of stopping at
	// the first; MaxEmbeddings caps the count (0 takes the configured cap).
	CountEmbeddings bool
	MaxEmbeddings   int
	// SimilarityBottom and SimilarityTop override the configured bounds when
	// either is non-zero.
	SimilarityBottom float64
	SimilarityTop    float64
}

// Verdict labels used in hits and metrics.
const (
	VerdictHit         = "hit"
	VerdictMiss        = "miss"
	VerdictPrefiltered = "prefiltered"
	VerdictError       = "error"
)

// Hit is the outcome for one target, in input order.
type Hit struct {
	Index      int     `json:"index" yaml:"index"`
	TargetID   string  `json:"target_id" yaml:"target_id"`
	Verdict    string  `json:"verdict" yaml:"verdict"`
	Embeddings int     `json:"embeddings,omitempty" yaml:"embeddings,omitempty"`
	Score      float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Mapping    []int   `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	Cached     bool    `json:"cached,omitempty" yaml:"cached,omitempty"`
	Error      string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Matched reports whether the target satisfied the query.
func (h Hit) Matched() bool { return h.Verdict == VerdictHit }

// ScreenResult summarises a run.  Hits has one entry per target; entries of
// targets never reached after cancellation have an empty Verdict.
type ScreenResult struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Mode        Mode          `json:"mode" yaml:"mode"`
	Hits        []Hit         `json:"hits" yaml:"hits"`
	Screened    int           `json:"screened" yaml:"screened"`
	Matched     int           `json:"matched" yaml:"matched"`
	Prefiltered int           `json:"prefiltered" yaml:"prefiltered"`
	CacheHits   int           `json:"cache_hits" yaml:"cache_hits"`
	Errors      int           `json:"errors" yaml:"errors"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

//Personal.AI order the ending
