// Package config loads run settings from an optional YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. The file path comes from the caller or HLTV_STATS_CONFIG; when
// neither is set only defaults and the environment apply. ${VAR} references in
// the file are expanded before parsing.
package config
