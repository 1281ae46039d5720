package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/molmatch/internal/application/screening"
	"github.com/turtacn/molmatch/internal/config"
	"github.com/turtacn/molmatch/internal/infrastructure/cache"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molmatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molmatch/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
// The verdict cache and the screening service are built on first use so
// that commands which never screen do not need a reachable cache backend.
type CLIContext struct {
	Config       *config.Config
	ConfigPath   string
	Logger       logging.Logger
	Collector    prometheus.MetricsCollector
	Metrics      *prometheus.MatchingMetrics
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration

	mu        sync.Mutex
	cache     cache.VerdictCache
	screening screening.Service
	server    *http.Server
	closed    bool
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "molmatch",
		Short: "molmatch: substructure, exact, tautomer and reaction matching",
		Long: "molmatch matches chemical structures written in line notation.\n" +
			"It finds substructure embeddings with Markush and 3D constraints,\n" +
			"compares molecules exactly or up to tautomerism, matches reactions\n" +
			"and screens target lists on a worker pool.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment and built-in defaults)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, yaml, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout of single match commands")

	cmd.AddCommand(
		NewMatchCmd(),
		NewScreenCmd(),
		NewReactCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// persistentPreRun initializes config, logger and metrics, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "yaml", "table":
	default:
		return errors.Newf(errors.ErrCodeValidation, "unknown output format %q", opts.OutputFormat)
	}
	if opts.NoColor {
		color.NoColor = true
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	collector, metrics := initMetrics(cfg, logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		ConfigPath:   opts.ConfigPath,
		Logger:       logger,
		Collector:    collector,
		Metrics:      metrics,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		Timeout:      opts.Timeout,
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	cmd.SetContext(ctx)

	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(opts.LogLevel)
	}
	if opts.Verbose {
		cfg.Log.Level = logging.LevelDebug
	}
	return cfg, cfg.Validate()
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(cfg *config.Config) (logging.Logger, error) {
	format := cfg.Log.Format
	if len(cfg.Log.Output) == 0 {
		format = "console"
	}
	output := cfg.Log.Output
	if len(output) == 0 {
		output = []string{"stderr"}
	}

	return logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           format,
		OutputPaths:      output,
		ErrorOutputPaths: []string{"stderr"},
		Sampling:         cfg.Log.Sampling,
	})
}

// initMetrics registers the matching metrics when enabled.  A failing
// collector degrades to no-op metrics.
func initMetrics(cfg *config.Config, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.MatchingMetrics) {
	if !cfg.Metrics.Enabled {
		return nil, prometheus.NewNoopMatchingMetrics()
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:       cfg.Metrics.Namespace,
		EnableGoMetrics: true,
	}, logger.Named("metrics"))
	if err != nil {
		logger.Warn("metrics disabled", logging.Err(err))
		return nil, prometheus.NewNoopMatchingMetrics()
	}
	return collector, prometheus.NewMatchingMetrics(collector)
}

// ScreeningService returns the screening service, building the verdict
// cache and starting the metrics endpoint on first call.
func (c *CLIContext) ScreeningService() (screening.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New(errors.ErrCodeInternal, "cli context is closed")
	}
	if c.screening != nil {
		return c.screening, nil
	}

	vc, err := cache.New(c.Config.Cache, c.Config.Redis, c.Logger.Named("cache"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheUnavailable, "verdict cache initialization failed")
	}
	c.cache = vc

	if c.Collector != nil && c.Config.Metrics.Addr != "" {
		c.serveMetrics(c.Config.Metrics.Addr)
	}

	c.screening = screening.NewService(c.Config,
		screening.WithCache(vc),
		screening.WithMetrics(c.Metrics),
		screening.WithLogger(c.Logger.Named("screening")),
	)
	return c.screening, nil
}

func (c *CLIContext) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Collector.Handler())
	c.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.Logger.Warn("metrics endpoint stopped", logging.String("addr", addr), logging.Err(err))
		}
	}(c.server)
	c.Logger.Info("serving metrics", logging.String("addr", addr))
}

// Close releases the cache and stops the metrics endpoint.  It is safe to
// call more than once.
func (c *CLIContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.server.Shutdown(ctx)
	}
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "command context is nil")
	}

	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "CLIContext not found in command context")
	}

	return cliCtx, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	return NewRootCommand().Execute()
}

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		// Fallback to JSON if context unavailable.
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case "json":
		return printJSON(cmd, data)
	case "yaml":
		return printYAML(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printYAML(cmd *cobra.Command, data interface{}) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// printText outputs data as a simple string representation to stdout.
func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprint(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// printTable outputs data as a table if it implements tableProvider,
// otherwise falls back to text.
func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// FormatTable renders headers and rows as an aligned table.  Short rows are
// padded with empty cells.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetHeaderLine(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range rows {
		padded := make([]string, len(headers))
		copy(padded, row)
		table.Append(padded)
	}
	table.Render()

	return sb.String()
}

// colorVerdict highlights screening verdicts in text output.
func colorVerdict(v string) string {
	switch v {
	case screening.VerdictHit:
		return color.GreenString(v)
	case screening.VerdictError:
		return color.RedString(v)
	case screening.VerdictPrefiltered:
		return color.YellowString(v)
	}
	return v
}

//Personal.AI order the ending
