// Package cli implements the command-line interface for hltv-stats.
//
// The cli package provides the Cobra-based root command. It loads configuration,
// sets up logging, wires the fetcher, identity store, extractors and pipeline
// together, runs one scrape and reports the run summary as text or JSON.
package cli
