package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/match"
	"github.com/pfrederiksen/hltv-stats/internal/record"
	"github.com/pfrederiksen/hltv-stats/internal/team"
)

// Lister discovers candidate match links.
type Lister interface {
	UpcomingAndLive(ctx context.Context, includeLive bool) ([]string, error)
}

// Matches loads and parses match pages.
type Matches interface {
	Load(ctx context.Context, url string) (*match.Match, error)
	IsSeen(m *match.Match) (bool, error)
	IsParsed(m *match.Match) (bool, error)
	ParseAnalyticsCenter(ctx context.Context, m *match.Match) (record.Results, error)
}

// Teams resolves teams and parses their stats pages.
type Teams interface {
	Team(link string) (*team.Team, error)
	ParseAllStats(ctx context.Context, t *team.Team, w team.Window) record.Results
}

// Output persists extracted records under a relative name.
type Output interface {
	Save(name string, v any) error
}

// Options wires a Pipeline.
type Options struct {
	Lister      Lister
	Matches     Matches
	Teams       Teams
	Output      Output
	IncludeLive bool
	Logger      *logger.Logger
	Metrics     *logger.Metrics
}

// Summary counts what a run did.
type Summary struct {
	Discovered int           `json:"discovered"`
	Duplicates int           `json:"duplicates"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Processed  int           `json:"processed"`
	Files      int           `json:"files"`
	Duration   time.Duration `json:"duration"`
}

// Pipeline runs the discovery-to-output flow sequentially.
type Pipeline struct {
	opts    Options
	log     *logger.Logger
	metrics *logger.Metrics
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = logger.DefaultMetrics()
	}
	return &Pipeline{
		opts:    opts,
		log:     log.WithFields(logger.Fields{"component": "pipeline"}),
		metrics: metrics,
	}
}

// Run processes every discovered match. months lists the team stat windows; they
// are only used when withTeams is set. Only a discovery failure or a canceled
// context ends the run early; per-match failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context, months []team.Window, withTeams bool) (*Summary, error) {
	start := time.Now()

	links, err := p.opts.Lister.UpcomingAndLive(ctx, p.opts.IncludeLive)
	if err != nil {
		return nil, fmt.Errorf("discovering matches: %w", err)
	}

	summary := &Summary{Discovered: len(links)}
	p.metrics.AddCounter("matches.discovered", int64(len(links)))

	visited := newVisitedSet(len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		if !visited.visit(link) {
			p.log.Debug("Match already visited in this run", logger.Fields{"url": link})
			summary.Duplicates++
			continue
		}

		matchStart := time.Now()
		p.processMatch(ctx, link, months, withTeams, summary)
		p.metrics.RecordTiming("match", time.Since(matchStart))
	}

	summary.Duration = time.Since(start)
	p.metrics.RecordTiming("run", summary.Duration)
	p.log.Info("Run complete", logger.Fields{
		"discovered": summary.Discovered,
		"duplicates": summary.Duplicates,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"processed":  summary.Processed,
		"files":      summary.Files,
		"duration":   summary.Duration.String(),
	})
	return summary, nil
}

func (p *Pipeline) processMatch(ctx context.Context, link string, months []team.Window, withTeams bool, s *Summary) {
	p.log.Info("Parsing match", logger.Fields{"url": link})

	m, err := p.opts.Matches.Load(ctx, link)
	if err != nil {
		p.fail(s, "Skipping match", logger.Fields{"url": link}, err)
		return
	}

	seen, err := p.opts.Matches.IsSeen(m)
	if err != nil {
		p.fail(s, "Reading match map failed", logger.Fields{"match_id": m.ID}, err)
		return
	}
	if seen {
		p.skip(s, m)
		return
	}

	// The match is recorded only once its analytics page has been fetched, so a
	// transport failure leaves it to be retried by the next run.
	results, err := p.opts.Matches.ParseAnalyticsCenter(ctx, m)
	if err != nil {
		p.fail(s, "Analytics center failed", logger.Fields{"match_id": m.ID}, err)
		return
	}

	parsed, err := p.opts.Matches.IsParsed(m)
	if err != nil {
		p.fail(s, "Recording match failed", logger.Fields{"match_id": m.ID}, err)
		return
	}
	if parsed {
		// Another run recorded it since the check above.
		p.skip(s, m)
		return
	}

	written := results.Succeeded()
	for _, res := range written {
		p.save(s, matchFile(m.ID, res.Section), res.Records)
	}
	p.metrics.AddCounter("sections.failed", int64(len(results.Failed())))
	p.log.Info("Match parsed", logger.Fields{"match_id": m.ID, "sections": written.Sections()})

	if withTeams {
		p.processTeams(ctx, m, months, s)
	}

	s.Processed++
	p.metrics.IncrCounter("matches.processed")
}

// processTeams scrapes both teams for every window and writes one file per team
// and section, holding the records of all windows.
func (p *Pipeline) processTeams(ctx context.Context, m *match.Match, months []team.Window, s *Summary) {
	var teams []*team.Team
	for _, link := range m.TeamLinks {
		t, err := p.opts.Teams.Team(link)
		if err != nil {
			p.log.Error("Resolving team failed", logger.Fields{"match_id": m.ID, "team": link}, err)
			continue
		}
		t.MatchID = m.ID
		teams = append(teams, t)
	}

	for _, t := range teams {
		merged := make(map[string][]record.Record)
		var order []string
		for _, w := range months {
			for _, res := range p.opts.Teams.ParseAllStats(ctx, t, w).Succeeded() {
				if _, ok := merged[res.Section]; !ok {
					merged[res.Section] = []record.Record{}
					order = append(order, res.Section)
				}
				merged[res.Section] = append(merged[res.Section], res.Records...)
			}
		}
		for _, section := range order {
			p.save(s, teamFile(m.ID, t, section), merged[section])
		}
	}
}

func (p *Pipeline) save(s *Summary, name string, records []record.Record) {
	if err := p.opts.Output.Save(name, records); err != nil {
		p.log.Error("Writing output failed", logger.Fields{"file": name}, err)
		p.metrics.IncrCounter("files.error")
		return
	}
	s.Files++
	p.metrics.IncrCounter("files.written")
}

func (p *Pipeline) skip(s *Summary, m *match.Match) {
	p.log.Info("Match already parsed, skipping", logger.Fields{"match_id": m.ID})
	s.Skipped++
	p.metrics.IncrCounter("matches.skipped")
}

func (p *Pipeline) fail(s *Summary, message string, fields logger.Fields, err error) {
	fields["error_type"] = fmt.Sprintf("%T", err)
	fields["error"] = err.Error()
	p.log.Warn(message, fields)
	s.Failed++
	p.metrics.IncrCounter("matches.failed")
}

var matchSuffixes = map[string]string{
	match.SectionInsights: "insights",
	match.SectionMaps:     "maps_stats",
	match.SectionPlayers:  "players_stats",
}

func matchFile(matchID, section string) string {
	return fmt.Sprintf("matches/%s_%s.json", matchID, matchSuffixes[section])
}

func teamFile(matchID string, t *team.Team, section string) string {
	return fmt.Sprintf("teams/%s_%s_%s_stats.json", matchID, t.FileSlug(), section)
}
