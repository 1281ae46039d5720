package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molmatch/internal/application/screening"
	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/pkg/errors"
)

var (
	screenTargets    string
	screenMode       string
	screenConditions string
	screenCount      bool
	screenMax        int
	screenBottom     float64
	screenTop        float64
	screenWatch      bool
	screenHitsOnly   bool
)

// NewScreenCmd creates the screen command.
func NewScreenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen QUERY",
		Short: "Screen a list of targets against one query",
		Long: "Run one query against every target of a file on a worker pool.\n\n" +
			"The targets file holds one molecule per line: the notation, then an\n" +
			"optional identifier separated by whitespace.  Blank lines and lines\n" +
			"starting with '#' are skipped.  Use '-' to read standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			defer cliCtx.Close()

			report, err := runScreen(cmd, cliCtx, args[0])
			if report != nil {
				if perr := PrintResult(cmd, report); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&screenTargets, "targets", "t", "", "Targets file, or '-' for stdin (required)")
	cmd.Flags().StringVarP(&screenMode, "mode", "m", "substructure", "Screening mode: substructure|exact|tautomer|similarity")
	cmd.Flags().StringVar(&screenConditions, "conditions", "", "Exact or tautomer condition string (default from config)")
	cmd.Flags().BoolVar(&screenCount, "count", false, "Count embeddings per hit")
	cmd.Flags().IntVar(&screenMax, "max", 0, "Cap on counted embeddings (0 takes screening.max_embeddings_per_pair)")
	cmd.Flags().Float64Var(&screenBottom, "bottom", 0, "Similarity lower bound (0 with --top 0 takes the configured bounds)")
	cmd.Flags().Float64Var(&screenTop, "top", 0, "Similarity upper bound")
	cmd.Flags().BoolVar(&screenWatch, "watch", false, "Reload the config file while the run is in progress")
	cmd.Flags().BoolVar(&screenHitsOnly, "hits-only", false, "Only print targets that matched")
	_ = cmd.MarkFlagRequired("targets")

	return cmd
}

func runScreen(cmd *cobra.Command, cliCtx *CLIContext, query string) (*screenReport, error) {
	mode, ok := screening.ParseMode(screenMode)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeValidation, "invalid screening mode %q (must be substructure|exact|tautomer|similarity)", screenMode)
	}

	targets, err := loadTargets(cmd, screenTargets)
	if err != nil {
		return nil, err
	}

	svc, err := cliCtx.ScreeningService()
	if err != nil {
		return nil, err
	}
	logger := cliCtx.Logger.Named("screen")

	if screenWatch {
		if cliCtx.ConfigPath == "" {
			return nil, errors.New(errors.ErrCodeValidation, "--watch needs --config")
		}
		err := config.Watch(cliCtx.ConfigPath, func(cfg *config.Config) {
			svc.UpdateConfig(cfg)
			logger.Info("configuration reloaded", logging.String("path", cliCtx.ConfigPath))
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info("starting screening run",
		logging.String("mode", string(mode)),
		logging.String("query", query),
		logging.Int("targets", len(targets)))

	result, err := svc.Screen(cmd.Context(), &screening.ScreenInput{
		Mode:             mode,
		Query:            query,
		Conditions:       screenConditions,
		Targets:          targets,
		CountEmbeddings:  screenCount,
		MaxEmbeddings:    screenMax,
		SimilarityBottom: screenBottom,
		SimilarityTop:    screenTop,
	})
	if result == nil {
		return nil, err
	}

	logger.Info("screening run finished",
		logging.String("run_id", result.RunID),
		logging.Int("screened", result.Screened),
		logging.Int("matched", result.Matched),
		logging.Duration("duration", result.Duration))

	report := &screenReport{ScreenResult: *result, Query: query}
	if screenHitsOnly {
		hits := make([]screening.Hit, 0, result.Matched)
		for _, h := range result.Hits {
			if h.Matched() {
				hits = append(hits, h)
			}
		}
		report.Hits = hits
	}
	return report, err
}

func loadTargets(cmd *cobra.Command, path string) ([]screening.Target, error) {
	if path == "-" {
		return readTargets(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "cannot open targets file").WithDetail(path)
	}
	defer f.Close()
	return readTargets(f)
}

// readTargets parses "notation [id]" lines.
func readTargets(r io.Reader) ([]screening.Target, error) {
	var targets []screening.Target
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		t := screening.Target{Notation: fields[0]}
		if len(fields) > 1 {
			t.ID = strings.Join(fields[1:], " ")
		}
		targets = append(targets, t)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "cannot read targets").WithDetailf("line %d", line)
	}
	if len(targets) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "no targets to screen")
	}
	return targets, nil
}

//Personal.AI order the ending
