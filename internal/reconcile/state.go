package reconcile

import (
	"statusloop/internal/config"
	"statusloop/internal/schedule"
)

// State is the small process-lifetime memory of the reconciler. It is an
// explicit value passed into every cycle rather than package state, so
// several independent schedules can run in one process without
// cross-contamination. Nothing here survives a restart.
type State struct {
	// lastSet is the id of the window this process believes it successfully
	// published. nil means unknown (must re-check the remote); a pointer to
	// "" means known empty.
	lastSet *string

	// assertiveCounter counts cycles since the last forced re-assertion.
	assertiveCounter int

	// Raw-text cache: byte-identical schedule text skips re-parsing;
	// any difference invalidates it and resets lastSet to unknown.
	rawText []byte
	parsed  *config.File
	entries []schedule.Entry
}

// NewState returns the initial "knows nothing" state.
func NewState() *State {
	return &State{}
}

// LastSet returns the cached publish id and whether it is known at all.
func (s *State) LastSet() (id string, known bool) {
	if s.lastSet == nil {
		return "", false
	}
	return *s.lastSet, true
}

func (s *State) setLastSet(id string) {
	s.lastSet = &id
}

func (s *State) knowsSynced(id string) bool {
	return s.lastSet != nil && *s.lastSet == id
}
