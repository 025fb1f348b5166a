package match

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/hltv-stats/internal/identity"
	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/record"
	"github.com/pfrederiksen/hltv-stats/internal/scraper"
)

// Section names, in the order ParseAnalyticsCenter runs them.
const (
	SectionInsights = "insights"
	SectionMaps     = "maps"
	SectionPlayers  = "players"
)

const (
	// HLTV renders times in its own zone; scheduled times are shifted back by this much.
	serverOffset = 8 * time.Hour
	timeLayout   = "2006-01-02 15:04:05"
)

// Fetcher loads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// Tracker remembers processed matches.
type Tracker interface {
	IsMatchSeen(matchID string) (bool, error)
	RecordMatch(entry identity.MatchEntry) (created bool, err error)
}

// Match holds the attributes resolved from a match page.
type Match struct {
	ID           string
	URL          string
	TeamLinks    [2]string // "/<id>/<slug>"
	TeamSlugs    [2]string
	AnalyticsURL string
	Scheduled    string
}

// Extractor loads matches and parses their analytics pages.
type Extractor struct {
	fetcher  Fetcher
	tracker  Tracker
	baseURL  string
	location *time.Location
	log      *logger.Logger
}

// NewExtractor creates an Extractor. Scheduled times are rendered in loc
// (time.Local when nil).
func NewExtractor(f Fetcher, tracker Tracker, baseURL string, loc *time.Location, log *logger.Logger) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Default()
	}
	return &Extractor{
		fetcher:  f,
		tracker:  tracker,
		baseURL:  strings.TrimRight(baseURL, "/"),
		location: loc,
		log:      log.WithFields(logger.Fields{"component": "match"}),
	}
}

// ID extracts the match id from a match URL or path ("/matches/<id>/<slug>").
func ID(matchURL string) (string, error) {
	u, err := url.Parse(matchURL)
	if err != nil {
		return "", fmt.Errorf("parsing match url: %w", err)
	}
	parts := strings.Split(u.Path, "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("no match id in %q", matchURL)
	}
	return parts[2], nil
}

// Load fetches a match page and resolves its attributes. Any missing element
// fails the whole load: the page is not a standard match page.
func (e *Extractor) Load(ctx context.Context, matchURL string) (*Match, error) {
	id, err := ID(matchURL)
	if err != nil {
		return nil, err
	}

	abs := e.absolute(matchURL)
	page, err := e.fetcher.Fetch(ctx, abs)
	if err != nil {
		return nil, err
	}

	m := &Match{ID: id, URL: abs}
	if err := e.resolve(page, m); err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}
	return m, nil
}

func (e *Extractor) resolve(page *scraper.Page, m *Match) error {
	for i, sel := range []string{"div.team1-gradient a", "div.team2-gradient a"} {
		a, err := page.One(sel)
		if err != nil {
			return err
		}
		href, err := a.Attr("href")
		if err != nil {
			return err
		}
		parts := strings.Split(href, "/")
		if len(parts) < 4 {
			return fmt.Errorf("malformed team link %q", href)
		}
		m.TeamLinks[i] = "/" + strings.Join(parts[2:4], "/")
		m.TeamSlugs[i] = parts[3]
	}

	a, err := page.One("a.matchpage-analytics-center-container")
	if err != nil {
		return err
	}
	href, err := a.Attr("href")
	if err != nil {
		return err
	}
	m.AnalyticsURL = e.absolute(href)

	t, err := page.One("div.timeAndEvent .time")
	if err != nil {
		return err
	}
	unix, err := t.Attr("data-unix")
	if err != nil {
		return err
	}
	scheduled, err := scheduledTime(unix, e.location)
	if err != nil {
		return err
	}
	m.Scheduled = scheduled
	return nil
}

// scheduledTime converts a millisecond unix timestamp to display time.
func scheduledTime(dataUnix string, loc *time.Location) (string, error) {
	if len(dataUnix) <= 3 {
		return "", fmt.Errorf("invalid data-unix %q", dataUnix)
	}
	secs, err := strconv.ParseInt(dataUnix[:len(dataUnix)-3], 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid data-unix %q: %w", dataUnix, err)
	}
	return time.Unix(secs, 0).In(loc).Add(-serverOffset).Format(timeLayout), nil
}

func (e *Extractor) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return e.baseURL + href
}

// ParseAnalyticsCenter fetches the analytics page once and runs the three section
// parsers on it. A transport failure is returned; section failures are logged and
// reported in the Results.
func (e *Extractor) ParseAnalyticsCenter(ctx context.Context, m *Match) (record.Results, error) {
	page, err := e.fetcher.Fetch(ctx, m.AnalyticsURL)
	if err != nil {
		return nil, err
	}

	sections := []struct {
		name  string
		parse func(*scraper.Page) ([]record.Record, error)
	}{
		{SectionInsights, m.ParseAnalyticsSummary},
		{SectionMaps, m.ParsePickBanStats},
		{SectionPlayers, m.ParseHeadToHead},
	}

	results := make(record.Results, 0, len(sections))
	for _, s := range sections {
		res := record.Run(s.name, func() ([]record.Record, error) { return s.parse(page) })
		if !res.OK() {
			e.log.Warn("Analytics section has non-regular data", logger.Fields{
				"match_id": m.ID,
				"section":  s.name,
				"error":    res.Err.Error(),
			})
		}
		results = append(results, res)
	}
	return results, nil
}

// IsSeen reports whether m has been recorded, without recording it.
func (e *Extractor) IsSeen(m *Match) (bool, error) {
	return e.tracker.IsMatchSeen(m.ID)
}

// IsParsed records m as processed and reports whether it already had been.
func (e *Extractor) IsParsed(m *Match) (bool, error) {
	created, err := e.tracker.RecordMatch(m.Entry())
	if err != nil {
		return false, err
	}
	return !created, nil
}

// Entry is the identity record for m. Team slugs are stored with spaces.
func (m *Match) Entry() identity.MatchEntry {
	return identity.MatchEntry{
		ID:  m.ID,
		URL: m.URL,
		Teams: [2]string{
			strings.ReplaceAll(m.TeamSlugs[0], "-", " "),
			strings.ReplaceAll(m.TeamSlugs[1], "-", " "),
		},
		Scheduled: m.Scheduled,
	}
}
