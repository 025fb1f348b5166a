package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/scraper"
)

const (
	matchesPath     = "/matches"
	upcomingSection = "div.upcomingMatchesSection"
	upcomingAnchor  = "a.match.a-reset[href]"
	teamName        = "div.matchTeamName.text-ellipsis"
	liveBlock       = "div.liveMatch"
)

// Fetcher loads a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// Lister scans the matches listing.
type Lister struct {
	fetcher Fetcher
	baseURL string
	log     *logger.Logger
}

// NewLister creates a Lister for the site rooted at baseURL.
func NewLister(f Fetcher, baseURL string, log *logger.Logger) *Lister {
	if log == nil {
		log = logger.Default()
	}
	return &Lister{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.WithFields(logger.Fields{"component": "discovery"}),
	}
}

// UpcomingAndLive returns match paths in page order: upcoming matches with both
// teams announced, then live matches when includeLive is set. Each call rescans
// the page.
func (l *Lister) UpcomingAndLive(ctx context.Context, includeLive bool) ([]string, error) {
	page, err := l.fetcher.Fetch(ctx, l.baseURL+matchesPath)
	if err != nil {
		return nil, fmt.Errorf("fetching matches listing: %w", err)
	}

	links, err := l.upcoming(page)
	if err != nil {
		return nil, err
	}
	if includeLive {
		links = append(links, l.live(page)...)
	}

	l.log.Info("Discovered matches", logger.Fields{"count": len(links), "include_live": includeLive})
	return links, nil
}

func (l *Lister) upcoming(page *scraper.Page) ([]string, error) {
	section, err := page.One(upcomingSection)
	if err != nil {
		return nil, fmt.Errorf("matches listing: %w", err)
	}

	var links []string
	for _, a := range section.All(upcomingAnchor).List() {
		href, _ := a.Attr("href")
		if n := a.Parent().All(teamName).Len(); n < 2 {
			l.log.Warn("Invalid match, waiting for teams", logger.Fields{"url": href, "teams": n})
			continue
		}
		links = append(links, href)
	}
	return links, nil
}

func (l *Lister) live(page *scraper.Page) []string {
	var links []string
	for _, block := range page.All(liveBlock).List() {
		a, err := block.One("a[href]")
		if err != nil {
			l.log.Warn("Live match without link", nil)
			continue
		}
		href, _ := a.Attr("href")
		links = append(links, href)
	}
	return links
}
