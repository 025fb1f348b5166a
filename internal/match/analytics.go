package match

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/hltv-stats/internal/record"
	"github.com/pfrederiksen/hltv-stats/internal/scraper"
)

// headToHeadPlayers is the roster size shown per team in the head-to-head table.
const headToHeadPlayers = 5

// indicators expands icon counts into one label per insight. A category without
// icons still occupies one slot, labelled "none".
func indicators(plus, minus int) []string {
	return append(repeat("plus", plus), repeat("minus", minus)...)
}

func repeat(label string, n int) []string {
	if n == 0 {
		return []string{"none"}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = label
	}
	return out
}

// ParseAnalyticsSummary emits one record per insight for both teams.
func (m *Match) ParseAnalyticsSummary(page *scraper.Page) ([]record.Record, error) {
	var out []record.Record
	for i, slug := range m.TeamSlugs {
		container, err := page.One(fmt.Sprintf(".analytics-insights-container.team%d", i+1))
		if err != nil {
			return nil, err
		}

		labels := indicators(container.All(".fa.fa-plus").Len(), container.All(".fa.fa-minus").Len())
		insights := container.All(".analytics-insights-insight").Texts()
		for j := range insights {
			insights[j] = strings.ToLower(strings.TrimSpace(insights[j]))
		}

		// An empty category renders a placeholder insight, so there may be more
		// labels than insights but never fewer.
		if len(insights) > len(labels) {
			return nil, &record.MisalignedError{What: fmt.Sprintf("team%d insights", i+1), Left: len(labels), Right: len(insights)}
		}
		for j, insight := range insights {
			out = append(out, record.Record{
				"team":      slug,
				"indicator": labels[j],
				"insight":   insight,
				"match_id":  m.ID,
			})
		}
	}
	return out, nil
}

var pickBanCells = []struct {
	field    string
	selector string
}{
	{"analytics_map_stats_pick_percentage", "td.analytics-map-stats-pick-percentage"},
	{"analytics_map_stats_ban_percentage", "td.analytics-map-stats-ban-percentage"},
	{"analytics_map_stats_win_percentage", "td.analytics-map-stats-win-percentage"},
	{"analytics_map_stats_played", "td.analytics-map-stats-played"},
	{"analytics_map_stats_comment", ".analytics-map-stats-comment"},
}

// ParsePickBanStats reads the map table. Rows come in pairs: the even row names the
// map and belongs to team 1, the odd row that follows belongs to team 2.
func (m *Match) ParsePickBanStats(page *scraper.Page) ([]record.Record, error) {
	table, err := page.One(".table-container.gtSmartphone-only")
	if err != nil {
		return nil, err
	}
	body, err := table.One("tbody")
	if err != nil {
		return nil, err
	}

	rows := body.All("tr").List()
	out := make([]record.Record, 0, len(rows))
	var mapName string
	for i, row := range rows {
		if i%2 == 0 {
			name, err := row.OneText("div.analytics-map-name")
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			mapName = strings.ToLower(name)
		}

		r := record.Record{
			"analytics_map_name": mapName,
			"team":               m.TeamSlugs[i%2],
			"match_id":           m.ID,
		}
		for _, c := range pickBanCells {
			v, err := row.OneText(c.selector)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			r[c.field] = v
		}
		out = append(out, r)
	}
	return out, nil
}

// ParseHeadToHead emits one record per player for the five-man rosters. The stat
// columns start with a header cell, which is skipped.
func (m *Match) ParseHeadToHead(page *scraper.Page) ([]record.Record, error) {
	containers := page.All(".table-container:has(.player-nickname)")
	if containers.Len() < 2 {
		return nil, &scraper.MissingElementError{Selector: ".table-container:has(.player-nickname)", Index: 1, Found: containers.Len()}
	}

	out := make([]record.Record, 0, 2*headToHeadPlayers)
	for i, slug := range m.TeamSlugs {
		c, _ := containers.Nth(i)
		nicknames := c.All(".player-nickname").Slice(0, headToHeadPlayers)
		threeMonths := c.All(".table-3-months").Slice(1, 1+headToHeadPlayers)
		event := c.All(".table-event").Slice(1, 1+headToHeadPlayers)

		if len(nicknames) != headToHeadPlayers {
			return nil, fmt.Errorf("team%d head to head: %d players, want %d", i+1, len(nicknames), headToHeadPlayers)
		}
		withForm, err := record.Zip(fmt.Sprintf("team%d 3 month stats", i+1), nicknames, threeMonths)
		if err != nil {
			return nil, err
		}
		withEvent, err := record.Zip(fmt.Sprintf("team%d event stats", i+1), withForm, event)
		if err != nil {
			return nil, err
		}

		for _, p := range withEvent {
			out = append(out, record.Record{
				"player_team":     slug,
				"player_nickname": p.First.First.Text(),
				"table_3_months":  p.First.Second.Text(),
				"table_event":     p.Second.Text(),
				"match_id":        m.ID,
			})
		}
	}
	return out, nil
}
