// Package pipeline drives a scrape run: it discovers upcoming matches, skips the
// ones already processed, and writes analytics and team statistics as JSON files.
//
// Output layout, relative to the output store:
//
//	matches/<match_id>_insights.json
//	matches/<match_id>_maps_stats.json
//	matches/<match_id>_players_stats.json
//	teams/<match_id>_<team>_<section>_stats.json
//
// Only successfully parsed sections are written. Team files hold the records of
// every requested time window; each record carries its time_filter.
package pipeline
