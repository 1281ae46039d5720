package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/molmatch/internal/application/screening"
	"github.com/turtacn/molmatch/internal/matching/substructure"
	"github.com/turtacn/molmatch/internal/matching/tautomer"
)

// embeddingReport is one query-to-target atom mapping.
type embeddingReport struct {
	Index   int                `json:"index" yaml:"index"`
	Mapping []int              `json:"mapping" yaml:"mapping"`
	Chains  []chainReport      `json:"chains,omitempty" yaml:"chains,omitempty"`
	RGroups []rgroupAssignment `json:"rgroups,omitempty" yaml:"rgroups,omitempty"`
}

type chainReport struct {
	Rule        string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Atoms       []int  `json:"atoms" yaml:"atoms"`
	TargetAtoms []int  `json:"target_atoms" yaml:"target_atoms"`
}

type rgroupAssignment struct {
	Site     int   `json:"site" yaml:"site"`
	Group    int   `json:"group" yaml:"group"`
	Fragment int   `json:"fragment" yaml:"fragment"`
	Atoms    []int `json:"atoms,omitempty" yaml:"atoms,omitempty"`
}

// matchReport is the result of the match command.
type matchReport struct {
	Mode       string            `json:"mode" yaml:"mode"`
	Query      string            `json:"query" yaml:"query"`
	Target     string            `json:"target" yaml:"target"`
	Conditions string            `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Matched    bool              `json:"matched" yaml:"matched"`
	Embeddings []embeddingReport `json:"embeddings,omitempty" yaml:"embeddings,omitempty"`
	Duration   time.Duration     `json:"duration" yaml:"duration"`
}

func newChainReports(chains []tautomer.Chain) []chainReport {
	if len(chains) == 0 {
		return nil
	}
	out := make([]chainReport, len(chains))
	for i, ch := range chains {
		out[i] = chainReport{
			Rule:        ch.Rule.String(),
			Atoms:       append([]int(nil), ch.Atoms...),
			TargetAtoms: append([]int(nil), ch.TargetAtoms...),
		}
	}
	return out
}

func newRGroupReports(sites []substructure.SiteAssignment) []rgroupAssignment {
	if len(sites) == 0 {
		return nil
	}
	out := make([]rgroupAssignment, len(sites))
	for i, s := range sites {
		out[i] = rgroupAssignment{Site: s.Site, Group: s.Group, Fragment: s.Fragment, Atoms: append([]int(nil), s.Atoms...)}
	}
	return out
}

func (r *matchReport) String() string {
	var sb strings.Builder
	verdict := screening.VerdictMiss
	if r.Matched {
		verdict = screening.VerdictHit
	}
	fmt.Fprintf(&sb, "%s %s in %s: %s\n", r.Mode, r.Query, r.Target, colorVerdict(verdict))
	for _, e := range r.Embeddings {
		fmt.Fprintf(&sb, "  #%d %s\n", e.Index+1, formatMapping(e.Mapping))
		for _, ch := range e.Chains {
			fmt.Fprintf(&sb, "     chain %s -> %s %s\n", formatInts(ch.Atoms), formatInts(ch.TargetAtoms), ch.Rule)
		}
		for _, g := range e.RGroups {
			fmt.Fprintf(&sb, "     R%d = group %d fragment %d\n", g.Site, g.Group, g.Fragment)
		}
	}
	return sb.String()
}

func (r *matchReport) TableHeaders() []string {
	return []string{"#", "MAPPING", "CHAINS"}
}

func (r *matchReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Embeddings))
	for _, e := range r.Embeddings {
		rows = append(rows, []string{strconv.Itoa(e.Index + 1), formatMapping(e.Mapping), strconv.Itoa(len(e.Chains))})
	}
	return rows
}

// screenReport is the result of the screen command.
type screenReport struct {
	screening.ScreenResult `yaml:",inline"`
	Query                  string `json:"query" yaml:"query"`
}

func (r *screenReport) String() string {
	var sb strings.Builder
	for _, h := range r.Hits {
		if h.Verdict == "" {
			continue
		}
		fmt.Fprintf(&sb, "%-6d %-24s %s", h.Index+1, h.TargetID, colorVerdict(h.Verdict))
		switch {
		case h.Error != "":
			fmt.Fprintf(&sb, "  %s", h.Error)
		case r.Mode == screening.ModeSimilarity:
			fmt.Fprintf(&sb, "  %.4f", h.Score)
		case h.Embeddings > 1:
			fmt.Fprintf(&sb, "  %d embeddings", h.Embeddings)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%d screened, %d matched, %d prefiltered, %d cached, %d errors in %s\n",
		r.Screened, r.Matched, r.Prefiltered, r.CacheHits, r.Errors, r.Duration.Round(time.Millisecond))
	return sb.String()
}

func (r *screenReport) TableHeaders() []string {
	return []string{"#", "TARGET", "VERDICT", "EMBEDDINGS", "SCORE", "CACHED"}
}

func (r *screenReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		if h.Verdict == "" {
			continue
		}
		score := ""
		if r.Mode == screening.ModeSimilarity {
			score = strconv.FormatFloat(h.Score, 'f', 4, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(h.Index + 1),
			h.TargetID,
			h.Verdict,
			strconv.Itoa(h.Embeddings),
			score,
			strconv.FormatBool(h.Cached),
		})
	}
	return rows
}

// reactAssignment maps one query molecule onto a target molecule.
type reactAssignment struct {
	Side           string `json:"side" yaml:"side"`
	QueryMolecule  int    `json:"query_molecule" yaml:"query_molecule"`
	TargetMolecule int    `json:"target_molecule" yaml:"target_molecule"`
	Mapping        []int  `json:"mapping" yaml:"mapping"`
}

type reactEmbedding struct {
	Index       int               `json:"index" yaml:"index"`
	Assignments []reactAssignment `json:"assignments" yaml:"assignments"`
}

// reactReport is the result of the react command.
type reactReport struct {
	Query      string           `json:"query" yaml:"query"`
	Target     string           `json:"target" yaml:"target"`
	Matched    bool             `json:"matched" yaml:"matched"`
	Embeddings []reactEmbedding `json:"embeddings,omitempty" yaml:"embeddings,omitempty"`
	Duration   time.Duration    `json:"duration" yaml:"duration"`
}

func (r *reactReport) String() string {
	var sb strings.Builder
	verdict := screening.VerdictMiss
	if r.Matched {
		verdict = screening.VerdictHit
	}
	fmt.Fprintf(&sb, "reaction %s in %s: %s\n", r.Query, r.Target, colorVerdict(verdict))
	for _, e := range r.Embeddings {
		fmt.Fprintf(&sb, "  #%d\n", e.Index+1)
		for _, a := range e.Assignments {
			fmt.Fprintf(&sb, "     %s %d -> %d %s\n", a.Side, a.QueryMolecule, a.TargetMolecule, formatMapping(a.Mapping))
		}
	}
	return sb.String()
}

func (r *reactReport) TableHeaders() []string {
	return []string{"#", "SIDE", "QUERY", "TARGET", "MAPPING"}
}

func (r *reactReport) TableRows() [][]string {
	var rows [][]string
	for _, e := range r.Embeddings {
		for _, a := range e.Assignments {
			rows = append(rows, []string{
				strconv.Itoa(e.Index + 1),
				a.Side,
				strconv.Itoa(a.QueryMolecule),
				strconv.Itoa(a.TargetMolecule),
				formatMapping(a.Mapping),
			})
		}
	}
	return rows
}

// formatMapping renders a query-to-target mapping as "0:3 1:4"; negative
// entries are left out.
func formatMapping(m []int) string {
	parts := make([]string, 0, len(m))
	for q, t := range m {
		if t < 0 {
			continue
		}
		parts = append(parts, strconv.Itoa(q)+":"+strconv.Itoa(t))
	}
	return strings.Join(parts, " ")
}

func formatInts(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

//Personal.AI order the ending
