// Package identity assigns stable surrogate ids to teams and remembers which matches
// have already been processed.
//
// Both maps live in JSON files and are re-read on every call, so another process
// editing them between calls is always observed. Each lookup-or-create runs as one
// locked read-modify-write on the backing store.
package identity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pfrederiksen/hltv-stats/internal/logger"
)

const (
	TeamsFile   = "team_config.json"
	MatchesFile = "matches_config.json"
)

// Store is the subset of storage.Store the service needs.
type Store interface {
	Load(name string, v any) (bool, error)
	Update(name string, v any, fn func(found bool) (bool, error)) error
}

// MatchEntry is what gets remembered about a processed match. It is stored as the
// array [team1, team2, scheduled, id, url].
type MatchEntry struct {
	ID        string
	URL       string
	Teams     [2]string
	Scheduled string
}

func (e MatchEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{e.Teams[0], e.Teams[1], e.Scheduled, e.ID, e.URL})
}

func (e *MatchEntry) UnmarshalJSON(data []byte) error {
	var fields []string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 5 {
		return fmt.Errorf("match entry: want 5 fields, got %d", len(fields))
	}
	*e = MatchEntry{
		Teams:     [2]string{fields[0], fields[1]},
		Scheduled: fields[2],
		ID:        fields[3],
		URL:       fields[4],
	}
	return nil
}

// Service hands out team ids and tracks seen matches.
type Service struct {
	store Store
	newID func() string
	log   *logger.Logger
}

// New creates a Service backed by store.
func New(store Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store: store,
		newID: uuid.NewString,
		log:   log.WithFields(logger.Fields{"component": "identity"}),
	}
}

// TeamID returns the surrogate id for slug, creating and persisting one the first
// time slug is seen. Ids are never reassigned.
func (s *Service) TeamID(slug string) (string, error) {
	var id string
	teams := map[string]string{}
	err := s.store.Update(TeamsFile, &teams, func(found bool) (bool, error) {
		if !found {
			s.log.Info("Creating team id map", logger.Fields{"file": TeamsFile})
		}
		if existing, ok := teams[slug]; ok {
			id = existing
			return false, nil
		}
		id = s.newID()
		teams[slug] = id
		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("resolving team id for %q: %w", slug, err)
	}
	return id, nil
}

// IsMatchSeen reports whether matchID has been recorded.
func (s *Service) IsMatchSeen(matchID string) (bool, error) {
	matches := map[string]MatchEntry{}
	if _, err := s.store.Load(MatchesFile, &matches); err != nil {
		return false, fmt.Errorf("loading match map: %w", err)
	}
	_, ok := matches[matchID]
	return ok, nil
}

// RecordMatch stores entry unless its id is already known. created is false when
// the match had been recorded before, in which case the stored entry is kept.
func (s *Service) RecordMatch(entry MatchEntry) (created bool, err error) {
	matches := map[string]MatchEntry{}
	err = s.store.Update(MatchesFile, &matches, func(found bool) (bool, error) {
		if !found {
			s.log.Info("Creating match map", logger.Fields{"file": MatchesFile})
		}
		if _, ok := matches[entry.ID]; ok {
			return false, nil
		}
		matches[entry.ID] = entry
		created = true
		return true, nil
	})
	if err != nil {
		return false, fmt.Errorf("recording match %s: %w", entry.ID, err)
	}
	return created, nil
}
