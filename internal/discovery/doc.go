// Package discovery lists the upcoming and live matches shown on the HLTV
// matches page.
package discovery
