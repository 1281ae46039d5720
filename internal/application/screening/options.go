package screening

import (
	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/internal/matching/substructure"
)

// SubstructureOptions translates the matching section of the configuration
// into matcher options.
func SubstructureOptions(cfg config.MatchingConfig) substructure.Options {
	o := substructure.DefaultOptions()
	o.UseAromaticityMatcher = !cfg.DisableAromaticityMatcher
	o.UsePiSystemsMatcher = cfg.UsePiSystemsMatcher
	o.DisableFoldingQueryH = cfg.DisableFoldingQueryH
	o.FindUniqueByEdges = cfg.FindUniqueByEdges
	o.UseEquivalenceHeuristic = cfg.UseEquivalenceHeuristic
	o.MaxEmbeddings = cfg.MaxEmbeddings
	if cfg.RMSThreshold > 0 {
		o.RMSThreshold = cfg.RMSThreshold
	}
	o.Match3D = ParseMatch3D(cfg.Match3D)
	return o
}

// ParseMatch3D maps "affine" and "conformation" to their modes; anything
// else disables 3D matching.
func ParseMatch3D(s string) substructure.Match3D {
	switch s {
	case "affine":
		return substructure.Match3DAffine
	case "conformation":
		return substructure.Match3DConformation
	}
	return substructure.Match3DNone
}

//Personal.AI order the ending
