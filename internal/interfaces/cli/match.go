package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/molmatch/internal/application/screening"
	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/internal/domain/molecule"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molmatch/internal/matching/exact"
	"github.com/turtacn/molmatch/internal/matching/substructure"
	"github.com/turtacn/molmatch/internal/matching/tautomer"
	"github.com/turtacn/molmatch/internal/notation"
	"github.com/turtacn/molmatch/pkg/errors"
)

var (
	matchMode       string
	matchConditions string
	matchAll        bool
	matchMax        int
	matchWhole      bool
)

// NewMatchCmd creates the match command.
func NewMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match QUERY TARGET",
		Short: "Match one query against one target molecule",
		Long: "Search a query structure in a target molecule.\n\n" +
			"Modes:\n" +
			"  substructure  query features, R-groups and 3D constraints\n" +
			"  exact         whole-molecule comparison under --conditions (e.g. \"ALL -CHG\", \"TAU\")\n" +
			"  tautomer      substructure search up to hydrogen shifts under --conditions (e.g. \"TAU R1 R2\")",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			report, err := runMatch(ctx, cliCtx, args[0], args[1])
			if err != nil {
				return err
			}
			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().StringVarP(&matchMode, "mode", "m", "substructure", "Match mode: substructure|exact|tautomer")
	cmd.Flags().StringVar(&matchConditions, "conditions", "", "Exact or tautomer condition string (default from config)")
	cmd.Flags().BoolVarP(&matchAll, "all", "a", false, "Enumerate every embedding instead of stopping at the first")
	cmd.Flags().IntVar(&matchMax, "max", 0, "Cap on enumerated embeddings (0 takes matching.max_embeddings)")
	cmd.Flags().BoolVar(&matchWhole, "whole", false, "Tautomer mode: require the query to cover the whole target")

	return cmd
}

// embeddingSource is the part of a matcher the enumeration loop needs.
type embeddingSource interface {
	Find() (bool, error)
	FindNext() (bool, error)
	QueryMapping() []int
}

func runMatch(ctx context.Context, cliCtx *CLIContext, query, target string) (*matchReport, error) {
	mode, ok := screening.ParseMode(matchMode)
	if !ok || mode == screening.ModeSimilarity {
		return nil, errors.Newf(errors.ErrCodeValidation, "invalid match mode %q (must be substructure|exact|tautomer)", matchMode)
	}
	if matchMax < 0 {
		return nil, errors.Newf(errors.ErrCodeValidation, "max must not be negative, got %d", matchMax)
	}

	cfg := cliCtx.Config
	logger := cliCtx.Logger.Named("match").With(logging.String("mode", string(mode)))
	report := &matchReport{Mode: string(mode), Query: query, Target: target}

	t, err := notation.ParseMolecule(target)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotationSyntax, "invalid target").WithDetail(target)
	}

	start := time.Now()
	var (
		found bool
		stats prometheus.SearchStats
	)

	switch mode {
	case screening.ModeSubstructure:
		q, err := notation.ParseQuery(query)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeNotationSyntax, "invalid query").WithDetail(query)
		}
		m := substructure.New(t, substructure.WithOptions(screening.SubstructureOptions(cfg.Matching)), substructure.WithLogger(logger))
		if err := m.SetQuery(q); err != nil {
			return nil, err
		}
		found, err = enumerate(ctx, m, maxEmbeddings(cfg), report, func(e *embeddingReport) {
			e.RGroups = newRGroupReports(m.RGroupAssignment())
		})
		st := m.Stats()
		stats = prometheus.SearchStats{
			Embeddings:        st.Embeddings,
			AromaticityChecks: st.AromaticityChecks,
			FragmentChecks:    st.FragmentChecks,
			FragmentCacheHits: st.FragmentCacheHits,
			MarkushSplices:    st.MarkushSplices,
		}
		if err != nil {
			prometheus.RecordSearch(cliCtx.Metrics, report.Mode, false, err, time.Since(start), stats)
			return nil, err
		}

	case screening.ModeExact:
		q, err := parseConcrete(query)
		if err != nil {
			return nil, err
		}
		conds, err := exactConditions(cfg)
		if err != nil {
			return nil, err
		}
		report.Conditions = conds.String()
		m := exact.New(t, exact.WithConditions(conds), exact.WithLogger(logger))
		if err := m.SetQuery(q); err != nil {
			return nil, err
		}
		found, err = m.Find()
		if err != nil {
			prometheus.RecordSearch(cliCtx.Metrics, report.Mode, false, err, time.Since(start), stats)
			return nil, err
		}
		if found {
			report.Embeddings = []embeddingReport{{
				Mapping: append([]int(nil), m.QueryMapping()...),
				Chains:  newChainReports(m.Chains()),
			}}
		}

	case screening.ModeTautomer:
		q, err := parseConcrete(query)
		if err != nil {
			return nil, err
		}
		conds, err := tautomerConditions(cfg)
		if err != nil {
			return nil, err
		}
		report.Conditions = conds.String()
		m := tautomer.New(t,
			tautomer.WithConditions(conds),
			tautomer.WithSubstructure(!matchWhole),
			tautomer.WithLogger(logger))
		if err := m.SetQuery(q); err != nil {
			return nil, err
		}
		found, err = enumerate(ctx, m, maxEmbeddings(cfg), report, func(e *embeddingReport) {
			e.Chains = newChainReports(m.Chains())
		})
		if err != nil {
			prometheus.RecordSearch(cliCtx.Metrics, report.Mode, false, err, time.Since(start), stats)
			return nil, err
		}
	}

	report.Matched = found
	report.Duration = time.Since(start)
	prometheus.RecordSearch(cliCtx.Metrics, report.Mode, found, nil, report.Duration, stats)

	logger.Debug("match finished",
		logging.Bool("matched", found),
		logging.Int("embeddings", len(report.Embeddings)),
		logging.Duration("duration", report.Duration))

	return report, nil
}

// enumerate runs Find and, with --all, FindNext until the cap, recording
// every embedding into report.  decorate adds matcher-specific details of
// the current embedding.
func enumerate(ctx context.Context, m embeddingSource, limit int, report *matchReport, decorate func(*embeddingReport)) (bool, error) {
	found, err := m.Find()
	if err != nil || !found {
		return false, err
	}
	for found {
		e := embeddingReport{Index: len(report.Embeddings), Mapping: append([]int(nil), m.QueryMapping()...)}
		decorate(&e)
		report.Embeddings = append(report.Embeddings, e)

		if !matchAll || (limit > 0 && len(report.Embeddings) >= limit) {
			break
		}
		if ctx.Err() != nil {
			return true, errors.Wrap(ctx.Err(), errors.ErrCodeSearchAborted, "enumeration interrupted")
		}
		if found, err = m.FindNext(); err != nil {
			return true, err
		}
	}
	return true, nil
}

func maxEmbeddings(cfg *config.Config) int {
	if matchMax > 0 {
		return matchMax
	}
	return cfg.Matching.MaxEmbeddings
}

func parseConcrete(s string) (*molecule.Molecule, error) {
	q, err := notation.ParseMolecule(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotationSyntax, "invalid query").WithDetail(s)
	}
	return q, nil
}

func exactConditions(cfg *config.Config) (exact.Conditions, error) {
	s := matchConditions
	if s == "" {
		s = cfg.Tautomer.ExactConditions
	}
	return exact.ParseConditions(s)
}

func tautomerConditions(cfg *config.Config) (tautomer.Conditions, error) {
	s := matchConditions
	if s == "" {
		s = cfg.Tautomer.Conditions
	}
	return tautomer.ParseConditions(s)
}

//Personal.AI order the ending
