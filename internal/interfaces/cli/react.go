package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/molmatch/internal/application/screening"
	rxn "github.com/turtacn/molmatch/internal/domain/reaction"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molmatch/internal/matching/reaction"
	"github.com/turtacn/molmatch/internal/notation"
	"github.com/turtacn/molmatch/pkg/errors"
)

var (
	reactAll bool
	reactMax int
)

// NewReactCmd creates the react command.
func NewReactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "react QUERY TARGET",
		Short: "Match a query reaction against a target reaction",
		Long: "Search every query molecule in a distinct target molecule of the same\n" +
			"side (reactants, catalysts, products).  Atom-to-atom map labels shared\n" +
			"by both sides of the query must map consistently.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			report, err := runReact(ctx, cliCtx, args[0], args[1])
			if err != nil {
				return err
			}
			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().BoolVarP(&reactAll, "all", "a", false, "Enumerate every assignment instead of stopping at the first")
	cmd.Flags().IntVar(&reactMax, "max", 0, "Cap on enumerated assignments (0 takes matching.max_embeddings)")

	return cmd
}

var reactionSides = []rxn.Side{rxn.Reactants, rxn.Catalysts, rxn.Products}

func runReact(ctx context.Context, cliCtx *CLIContext, query, target string) (*reactReport, error) {
	if reactMax < 0 {
		return nil, errors.Newf(errors.ErrCodeValidation, "max must not be negative, got %d", reactMax)
	}
	limit := reactMax
	if limit == 0 {
		limit = cliCtx.Config.Matching.MaxEmbeddings
	}

	q, err := notation.ParseQueryReaction(query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotationSyntax, "invalid query reaction").WithDetail(query)
	}
	t, err := notation.ParseReaction(target)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotationSyntax, "invalid target reaction").WithDetail(target)
	}

	logger := cliCtx.Logger.Named("react")
	m := reaction.NewSubstructure(t,
		reaction.WithMoleculeOptions(screening.SubstructureOptions(cliCtx.Config.Matching)),
		reaction.WithLogger(logger))
	if err := m.SetQuery(q); err != nil {
		return nil, err
	}

	report := &reactReport{Query: query, Target: target}
	start := time.Now()

	found, err := m.Find()
	for err == nil && found {
		e := reactEmbedding{Index: len(report.Embeddings)}
		for _, side := range reactionSides {
			for i := 0; i < q.Count(side); i++ {
				e.Assignments = append(e.Assignments, reactAssignment{
					Side:           side.String(),
					QueryMolecule:  i,
					TargetMolecule: m.MoleculeMapping(side, i),
					Mapping:        append([]int(nil), m.AtomMapping(side, i)...),
				})
			}
		}
		report.Embeddings = append(report.Embeddings, e)

		if !reactAll || (limit > 0 && len(report.Embeddings) >= limit) {
			break
		}
		if ctx.Err() != nil {
			err = errors.Wrap(ctx.Err(), errors.ErrCodeSearchAborted, "enumeration interrupted")
			break
		}
		found, err = m.FindNext()
	}

	report.Matched = len(report.Embeddings) > 0
	report.Duration = time.Since(start)
	prometheus.RecordSearch(cliCtx.Metrics, "reaction", report.Matched, err, report.Duration, prometheus.SearchStats{})
	if err != nil {
		return nil, err
	}

	logger.Debug("reaction match finished",
		logging.Bool("matched", report.Matched),
		logging.Int("assignments", len(report.Embeddings)),
		logging.Duration("duration", report.Duration))

	return report, nil
}

//Personal.AI order the ending
