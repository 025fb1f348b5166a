package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/pipeline"
	"github.com/pfrederiksen/hltv-stats/internal/team"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	StartedAt time.Time              `json:"started_at"`
	Months    []team.Window          `json:"months"`
	WithTeams bool                   `json:"with_teams"`
	OutputDir string                 `json:"output_dir"`
	Summary   *pipeline.Summary      `json:"summary"`
	Metrics   logger.MetricsSnapshot `json:"metrics"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	s := result.Summary
	if s.Discovered == 0 {
		fmt.Fprintln(w, "No upcoming matches found.")
		return nil
	}

	fmt.Fprintf(w, "Discovered: %d matches", s.Discovered)
	if s.Duplicates > 0 {
		fmt.Fprintf(w, " (%d listed twice)", s.Duplicates)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Processed:  %d\n", s.Processed)
	fmt.Fprintf(w, "Skipped:    %d (already parsed)\n", s.Skipped)
	fmt.Fprintf(w, "Failed:     %d\n", s.Failed)

	if result.WithTeams {
		windows := make([]string, len(result.Months))
		for i, m := range result.Months {
			windows[i] = m.String()
		}
		fmt.Fprintf(w, "Team windows: %s months\n", strings.Join(windows, ", "))
	}
	fmt.Fprintf(w, "\nTotal: %d files written to %s in %s\n", s.Files, result.OutputDir, s.Duration.Round(time.Millisecond))

	if verbose && len(result.Metrics.Counters) > 0 {
		names := make([]string, 0, len(result.Metrics.Counters))
		for name := range result.Metrics.Counters {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "\nCounters:")
		for _, name := range names {
			fmt.Fprintf(w, "  %-20s %d\n", name, result.Metrics.Counters[name])
		}
	}
	return nil
}
