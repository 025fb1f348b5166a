// Package team scrapes a team's stats pages: played matches, map pool, players and
// event placements, each optionally restricted to a trailing window of months.
package team
