package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/hltv-stats/internal/discovery"
	"github.com/pfrederiksen/hltv-stats/internal/identity"
	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/match"
	"github.com/pfrederiksen/hltv-stats/internal/record"
	"github.com/pfrederiksen/hltv-stats/internal/scraper"
	"github.com/pfrederiksen/hltv-stats/internal/storage"
	"github.com/pfrederiksen/hltv-stats/internal/team"
)

const matchPath = "/matches/2370001/natus-vincere-vs-vitality-iem-cologne-2026"

// fakeHLTV serves the testdata pages and counts hits per path.
type fakeHLTV struct {
	mu   sync.Mutex
	hits map[string]int

	analyticsStatus int // when set, the analytics page answers with this status
}

func (f *fakeHLTV) setAnalyticsStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyticsStatus = code
}

func (f *fakeHLTV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	analyticsStatus := f.analyticsStatus
	f.mu.Unlock()

	var file string
	switch path := r.URL.Path; {
	case path == "/matches":
		file = "listing.html"
	case path == matchPath:
		file = "match.html"
	case strings.HasPrefix(path, "/matches/2370009/"):
		file = "showmatch.html"
	case strings.HasPrefix(path, "/betting/analytics/2370001/"):
		if analyticsStatus != 0 {
			http.Error(w, "unavailable", analyticsStatus)
			return
		}
		file = "analytics.html"
	case strings.HasPrefix(path, "/stats/teams/"):
		kind := strings.Split(path, "/")[3]
		file = "team_" + kind + ".html"
	default:
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(filepath.Join("testdata", file))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}

func (f *fakeHLTV) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

type env struct {
	outDir    string
	configDir string
	serverURL string
}

func newEnv(t *testing.T, handler http.Handler) env {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return env{
		outDir:    filepath.Join(t.TempDir(), "output"),
		configDir: filepath.Join(t.TempDir(), "configs"),
		serverURL: server.URL,
	}
}

// newPipeline wires the real components against e, the way the CLI does.
func newPipeline(t *testing.T, e env) *Pipeline {
	t.Helper()
	log := logger.New(logger.LevelError, io.Discard)
	metrics := logger.NewMetrics()

	configs, err := storage.New(e.configDir)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	output, err := storage.New(e.outDir)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	ids := identity.New(configs, log)
	fetcher := scraper.New(scraper.Options{Logger: log, Metrics: metrics})

	return New(Options{
		Lister:      discovery.NewLister(fetcher, e.serverURL, log),
		Matches:     match.NewExtractor(fetcher, ids, e.serverURL, time.UTC, log),
		Teams:       team.NewExtractor(fetcher, ids, e.serverURL, log),
		Output:      output,
		IncludeLive: true,
		Logger:      log,
		Metrics:     metrics,
	})
}

func readRecords(t *testing.T, path string) []record.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", path, err)
	}
	return records
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) error = %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPipeline_Run(t *testing.T) {
	site := &fakeHLTV{hits: make(map[string]int)}
	e := newEnv(t, site)

	summary, err := newPipeline(t, e).Run(context.Background(), []team.Window{1, 3}, true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := Summary{Discovered: 3, Duplicates: 1, Failed: 1, Processed: 1, Files: 9}
	summary.Duration = 0
	if *summary != want {
		t.Errorf("Summary = %+v, want %+v", *summary, want)
	}
	if n := site.count(matchPath); n != 1 {
		t.Errorf("match page fetched %d times, want 1", n)
	}

	matchFiles := listDir(t, filepath.Join(e.outDir, "matches"))
	wantMatches := []string{"2370001_insights.json", "2370001_maps_stats.json", "2370001_players_stats.json"}
	if strings.Join(matchFiles, ",") != strings.Join(wantMatches, ",") {
		t.Errorf("matches/ = %v, want %v", matchFiles, wantMatches)
	}

	if got := len(readRecords(t, filepath.Join(e.outDir, "matches", "2370001_players_stats.json"))); got != 10 {
		t.Errorf("players_stats has %d records, want 10", got)
	}

	teamFiles := listDir(t, filepath.Join(e.outDir, "teams"))
	if len(teamFiles) != 6 {
		t.Errorf("teams/ = %v, want 6 files", teamFiles)
	}
	for _, name := range teamFiles {
		if strings.Contains(name, "_maps_stats") {
			t.Errorf("unexpected file for failed section: %s", name)
		}
	}

	records := readRecords(t, filepath.Join(e.outDir, "teams", "2370001_natus_vincere_matches_stats.json"))
	if len(records) != 4 {
		t.Fatalf("matches_stats has %d records, want 4 (2 rows x 2 windows)", len(records))
	}
	windows := map[string]int{}
	for _, r := range records {
		windows[r["time_filter"]]++
		if r["match_cuid"] != "2370001" || r["team"] != "natus-vincere" {
			t.Errorf("record not tagged with its owners: %v", r)
		}
	}
	if windows["1"] != 2 || windows["3"] != 2 {
		t.Errorf("time_filter counts = %v, want 2 each for 1 and 3", windows)
	}
}

func TestPipeline_RunIsIdempotent(t *testing.T) {
	site := &fakeHLTV{hits: make(map[string]int)}
	e := newEnv(t, site)

	if _, err := newPipeline(t, e).Run(context.Background(), []team.Window{3}, true); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	before := listDir(t, filepath.Join(e.outDir, "matches"))

	summary, err := newPipeline(t, e).Run(context.Background(), []team.Window{3}, true)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if summary.Files != 0 || summary.Processed != 0 {
		t.Errorf("second run wrote %d files for %d matches, want none", summary.Files, summary.Processed)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}

	after := listDir(t, filepath.Join(e.outDir, "matches"))
	if strings.Join(before, ",") != strings.Join(after, ",") {
		t.Errorf("matches/ changed: %v -> %v", before, after)
	}
	if n := site.count("/betting/analytics/2370001/natus-vincere-vs-vitality-iem-cologne-2026"); n != 1 {
		t.Errorf("analytics page fetched %d times across runs, want 1", n)
	}
}

func TestPipeline_AnalyticsOutageIsRetriedNextRun(t *testing.T) {
	site := &fakeHLTV{hits: make(map[string]int)}
	e := newEnv(t, site)

	site.setAnalyticsStatus(http.StatusServiceUnavailable)
	first, err := newPipeline(t, e).Run(context.Background(), []team.Window{3}, false)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Processed != 0 || first.Failed != 2 || first.Files != 0 {
		t.Errorf("first run = %+v, want 2 failed and nothing written", *first)
	}

	configs, err := storage.New(e.configDir)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	seen, err := identity.New(configs, logger.New(logger.LevelError, io.Discard)).IsMatchSeen("2370001")
	if err != nil {
		t.Fatalf("IsMatchSeen() error = %v", err)
	}
	if seen {
		t.Fatal("match recorded as seen although its analytics page was unavailable")
	}

	site.setAnalyticsStatus(0)
	second, err := newPipeline(t, e).Run(context.Background(), []team.Window{3}, false)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.Processed != 1 || second.Skipped != 0 || second.Files != 3 {
		t.Errorf("second run = %+v, want the match processed with 3 files", *second)
	}
}

func TestPipeline_RunWithoutTeams(t *testing.T) {
	site := &fakeHLTV{hits: make(map[string]int)}
	e := newEnv(t, site)

	summary, err := newPipeline(t, e).Run(context.Background(), []team.Window{3}, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Files != 3 {
		t.Errorf("Files = %d, want 3", summary.Files)
	}
	if _, err := os.Stat(filepath.Join(e.outDir, "teams")); !os.IsNotExist(err) {
		t.Errorf("teams/ should not exist, stat error = %v", err)
	}
}

func TestPipeline_DiscoveryFailure(t *testing.T) {
	e := newEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))

	_, err := newPipeline(t, e).Run(context.Background(), []team.Window{3}, true)
	var te *scraper.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Run() error = %v, want TransportError", err)
	}
}

func TestPipeline_Canceled(t *testing.T) {
	site := &fakeHLTV{hits: make(map[string]int)}
	e := newEnv(t, site)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(t, e).Run(ctx, []team.Window{3}, true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestFileNames(t *testing.T) {
	tm := &team.Team{Slug: "natus-vincere"}
	tests := []struct {
		got, want string
	}{
		{matchFile("2370001", match.SectionInsights), "matches/2370001_insights.json"},
		{matchFile("2370001", match.SectionMaps), "matches/2370001_maps_stats.json"},
		{matchFile("2370001", match.SectionPlayers), "matches/2370001_players_stats.json"},
		{teamFile("2370001", tm, team.SectionEvents), "teams/2370001_natus_vincere_events_stats.json"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
