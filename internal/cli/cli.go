package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/hltv-stats/internal/config"
	"github.com/pfrederiksen/hltv-stats/internal/discovery"
	"github.com/pfrederiksen/hltv-stats/internal/identity"
	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/match"
	"github.com/pfrederiksen/hltv-stats/internal/pipeline"
	"github.com/pfrederiksen/hltv-stats/internal/scraper"
	"github.com/pfrederiksen/hltv-stats/internal/storage"
	"github.com/pfrederiksen/hltv-stats/internal/team"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig    string
	flagMonths    []string
	flagWithTeams bool
	flagNoLive    bool
	flagFormat    string
	flagVerbose   bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hltv-stats",
		Short: "Scrape HLTV statistics for upcoming matches",
		Long: `A CLI tool that scrapes analytics for upcoming and live HLTV matches and,
optionally, the stats of both teams over trailing month windows.
Matches already processed in a previous run are skipped.`,
		SilenceUsage: true,
		RunE:         runScrape,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file (or env: "+config.EnvConfig+")")
	cmd.Flags().StringSliceVar(&flagMonths, "months", []string{"3"}, "Team stat windows in months, e.g. 1,3 (0 = all time)")
	cmd.Flags().BoolVar(&flagWithTeams, "with-teams", false, "Also scrape team statistics")
	cmd.Flags().BoolVar(&flagNoLive, "no-live", false, "Skip matches that are already live")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Summary format: text or json")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	return cmd
}

// parseMonths converts the --months values into windows.
func parseMonths(values []string) ([]team.Window, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("--months needs at least one value")
	}
	windows := make([]team.Window, 0, len(values))
	for _, v := range values {
		w, err := team.ParseWindow(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// runScrape is the main command logic
func runScrape(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	months, err := parseMonths(flagMonths)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagNoLive {
		cfg.IncludeLive = false
	}

	level := cfg.Level()
	if flagVerbose {
		level = logger.LevelDebug
	}
	log := logger.New(level, cmd.ErrOrStderr())
	logger.SetDefault(log)
	metrics := logger.NewMetrics()

	p, err := newPipeline(cfg, log, metrics)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now().UTC()
	summary, err := p.Run(ctx, months, flagWithTeams)
	if err != nil {
		return fmt.Errorf("running scrape: %w", err)
	}

	snapshot := metrics.Snapshot()
	log.Debug("Run metrics", snapshot.Fields())

	result := &OutputResult{
		StartedAt: startedAt,
		Months:    months,
		WithTeams: flagWithTeams,
		OutputDir: cfg.OutputDir,
		Summary:   summary,
		Metrics:   snapshot,
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// newPipeline builds the run's components from cfg.
func newPipeline(cfg *config.Config, log *logger.Logger, metrics *logger.Metrics) (*pipeline.Pipeline, error) {
	configs, err := storage.New(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("initializing config storage: %w", err)
	}
	output, err := storage.New(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("initializing output storage: %w", err)
	}
	loc, err := cfg.TimeLocation()
	if err != nil {
		return nil, err
	}

	ids := identity.New(configs, log)
	fetcher := scraper.New(cfg.FetcherOptions(log, metrics))

	return pipeline.New(pipeline.Options{
		Lister:      discovery.NewLister(fetcher, cfg.BaseURL, log),
		Matches:     match.NewExtractor(fetcher, ids, cfg.BaseURL, loc, log),
		Teams:       team.NewExtractor(fetcher, ids, cfg.BaseURL, log),
		Output:      output,
		IncludeLive: cfg.IncludeLive,
		Logger:      log,
		Metrics:     metrics,
	}), nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
