package team

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/record"
	"github.com/pfrederiksen/hltv-stats/internal/scraper"
)

// Section names, in the order ParseAllStats runs them.
const (
	SectionMatches = "matches"
	SectionMaps    = "maps"
	SectionPlayers = "players"
	SectionEvents  = "events"
)

const (
	statsPrefix   = "/stats/teams"
	maxPlayerRows = 9
	mapStatCount  = 5
)

// Fetcher loads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// IDs resolves team surrogate ids.
type IDs interface {
	TeamID(slug string) (string, error)
}

// Team is a resolved team profile.
type Team struct {
	Link    string // "/<id>/<slug>"
	Slug    string
	ID      string
	MatchID string // set when the team is scraped on behalf of a match

	segments []string // "/stats/teams/<id>/<slug>" split on "/"
}

// StatsPath builds the stats sub-page path for kind ("matches", "maps", ...).
func (t *Team) StatsPath(kind string) string {
	return strings.Join(t.segments[0:3], "/") + "/" + kind + "/" + strings.Join(t.segments[3:5], "/")
}

// FileSlug is the slug as used in output file names.
func (t *Team) FileSlug() string {
	return strings.ReplaceAll(t.Slug, "-", "_")
}

func (t *Team) tag(r record.Record, w Window) record.Record {
	r["team"] = t.Slug
	r["team_cuid"] = t.ID
	r["time_filter"] = w.String()
	if t.MatchID != "" {
		r["match_cuid"] = t.MatchID
	}
	return r
}

// Extractor fetches and parses team stats pages.
type Extractor struct {
	fetcher Fetcher
	ids     IDs
	baseURL string
	now     func() time.Time
	log     *logger.Logger
}

// NewExtractor creates an Extractor. baseURL is the site root, without a trailing slash.
func NewExtractor(f Fetcher, ids IDs, baseURL string, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Default()
	}
	return &Extractor{
		fetcher: f,
		ids:     ids,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     log.WithFields(logger.Fields{"component": "team"}),
	}
}

// Team resolves a profile link of the form "/<id>/<slug>".
func (e *Extractor) Team(link string) (*Team, error) {
	parts := strings.Split(link, "/")
	if len(parts) < 3 || parts[2] == "" {
		return nil, fmt.Errorf("malformed team link %q", link)
	}
	slug := strings.ToLower(parts[2])

	segments := strings.Split(statsPrefix+link, "/")
	if len(segments) < 5 {
		return nil, fmt.Errorf("malformed team link %q", link)
	}

	id, err := e.ids.TeamID(slug)
	if err != nil {
		return nil, err
	}

	return &Team{
		Link:     link,
		Slug:     slug,
		ID:       id,
		segments: segments,
	}, nil
}

func (e *Extractor) page(ctx context.Context, t *Team, kind string, w Window) (*scraper.Page, error) {
	return e.fetcher.Fetch(ctx, e.baseURL+t.StatsPath(kind)+w.Query(e.now()))
}

// ParseMatches scrapes the team's played matches.
func (e *Extractor) ParseMatches(ctx context.Context, t *Team, w Window) ([]record.Record, error) {
	page, err := e.page(ctx, t, SectionMatches, w)
	if err != nil {
		return nil, err
	}
	return parseMatches(page, t, w)
}

// ParseMaps scrapes the team's per-map statistics.
func (e *Extractor) ParseMaps(ctx context.Context, t *Team, w Window) ([]record.Record, error) {
	page, err := e.page(ctx, t, SectionMaps, w)
	if err != nil {
		return nil, err
	}
	return parseMaps(page, t, w)
}

// ParsePlayers scrapes the team's player table.
func (e *Extractor) ParsePlayers(ctx context.Context, t *Team, w Window) ([]record.Record, error) {
	page, err := e.page(ctx, t, SectionPlayers, w)
	if err != nil {
		return nil, err
	}
	return parsePlayers(page, t, w), nil
}

// ParseEvents scrapes the team's event placements.
func (e *Extractor) ParseEvents(ctx context.Context, t *Team, w Window) ([]record.Record, error) {
	page, err := e.page(ctx, t, SectionEvents, w)
	if err != nil {
		return nil, err
	}
	return parseEvents(page, t, w)
}

// ParseAllStats runs all four sections. A failing section, whether the fetch or
// the parse failed, is logged and reported in its Result; the others still run.
func (e *Extractor) ParseAllStats(ctx context.Context, t *Team, w Window) record.Results {
	sections := []struct {
		name  string
		parse func(context.Context, *Team, Window) ([]record.Record, error)
	}{
		{SectionMatches, e.ParseMatches},
		{SectionMaps, e.ParseMaps},
		{SectionPlayers, e.ParsePlayers},
		{SectionEvents, e.ParseEvents},
	}

	results := make(record.Results, 0, len(sections))
	for _, s := range sections {
		res := record.Run(s.name, func() ([]record.Record, error) {
			return s.parse(ctx, t, w)
		})
		if !res.OK() {
			e.log.Error("Team section failed", logger.Fields{
				"team":        t.Slug,
				"section":     s.name,
				"time_filter": w.String(),
				"match_id":    t.MatchID,
			}, res.Err)
		}
		results = append(results, res)
	}
	return results
}

// matchCells locates date, event, opponent, map, result and flag in a matches row.
var matchCells = []struct {
	index    int
	selector string
}{
	{0, "a"},
	{1, "span"},
	{3, "a"},
	{4, "span"},
	{5, "span"},
	{6, ""},
}

func parseMatches(page *scraper.Page, t *Team, w Window) ([]record.Record, error) {
	rows := page.All("tr.group-1.first").
		Concat(page.All("tr.group-2.first")).
		Concat(page.All("tr.group-1:not(.first)")).
		Concat(page.All("tr.group-2:not(.first)"))

	out := make([]record.Record, 0, rows.Len())
	for i, row := range rows.List() {
		cells := row.All("td")
		values := make([]string, len(matchCells))
		for j, c := range matchCells {
			td, err := cells.Nth(c.index)
			if err != nil {
				return nil, fmt.Errorf("matches row %d: %w", i, err)
			}
			if c.selector == "" {
				values[j] = td.Text()
				continue
			}
			if values[j], err = td.OneText(c.selector); err != nil {
				return nil, fmt.Errorf("matches row %d: %w", i, err)
			}
		}

		out = append(out, t.tag(record.Record{
			"date":     strings.ToLower(values[0]),
			"event":    strings.ToLower(values[1]),
			"opponent": record.Slug(values[2]),
			"map":      strings.ToLower(values[3]),
			"result":   strings.ToLower(values[4]),
			"flag":     values[5],
		}, w))
	}
	return out, nil
}

func parseMaps(page *scraper.Page, t *Team, w Window) ([]record.Record, error) {
	pairs, err := record.Zip("map pool",
		page.All("div.map-pool-map-name").List(),
		page.All("div.stats-rows.standard-box").List())
	if err != nil {
		return nil, err
	}

	out := make([]record.Record, 0, len(pairs))
	for _, p := range pairs {
		name := strings.ToLower(strings.TrimSpace(strings.SplitN(p.First.Text(), "-", 2)[0]))

		rows := p.Second.All("div")
		if rows.Len() < mapStatCount {
			return nil, fmt.Errorf("map %q: %d stat rows, want %d", name, rows.Len(), mapStatCount)
		}
		var stats [mapStatCount]string
		for i := range stats {
			row, _ := rows.Nth(i)
			value, err := row.All("span").Nth(1)
			if err != nil {
				return nil, fmt.Errorf("map %q stat %d: %w", name, i, err)
			}
			stats[i] = value.Text()
		}

		out = append(out, t.tag(record.Record{
			"map":                              name,
			"wins_draws_losses":                stats[0],
			"win_rate":                         stats[1],
			"total_rounds":                     stats[2],
			"round_win_perc_after_first_kill":  stats[3],
			"round_win_perc_after_first_death": stats[4],
		}, w))
	}
	return out, nil
}

// parsePlayers reads up to nine rows after the header. Rows without all six cells
// are skipped.
func parsePlayers(page *scraper.Page, t *Team, w Window) []record.Record {
	out := make([]record.Record, 0, maxPlayerRows)
	for _, row := range page.All("tr").Slice(1, 1+maxPlayerRows) {
		cells := row.All("td").Texts()
		if len(cells) < 6 {
			continue
		}
		out = append(out, t.tag(record.Record{
			"player":  cells[0],
			"maps":    cells[1],
			"rounds":  cells[2],
			"kd_diff": cells[3],
			"kd":      cells[4],
			"rating":  cells[5],
		}, w))
	}
	return out
}

func parseEvents(page *scraper.Page, t *Team, w Window) ([]record.Record, error) {
	rows := page.All("tr")
	out := make([]record.Record, 0, rows.Len())
	for i, row := range rows.Slice(1, rows.Len()) {
		cells := row.All("td").Texts()
		if len(cells) < 2 {
			return nil, fmt.Errorf("events row %d: %d cells, want 2", i+1, len(cells))
		}
		out = append(out, t.tag(record.Record{
			"placement": strings.ToLower(cells[0]),
			"event":     strings.ToLower(cells[1]),
		}, w))
	}
	return out, nil
}
