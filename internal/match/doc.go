// Package match scrapes a single HLTV match: the match page for team identities and
// the scheduled time, then the analytics center for insight summaries, pick/ban map
// statistics and head-to-head player form.
//
// Each analytics section is parsed independently. When the markup of one section
// drifts, that section fails with an error while the others still produce records.
package match
