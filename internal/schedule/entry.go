// Package schedule turns declarative recurring entries into concrete time
// windows and resolves which window is active at a given instant.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"statusloop/internal/config"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	var c Clock
	var err error
	switch strings.Count(s, ":") {
	case 1:
		_, err = fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute)
	case 2:
		_, err = fmt.Sscanf(s, "%d:%d:%d", &c.Hour, &c.Minute, &c.Second)
	default:
		return Clock{}, fmt.Errorf("invalid clock value %q", s)
	}
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock value %q", s)
	}
	if c.Hour < 0 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return Clock{}, fmt.Errorf("clock value %q out of range", s)
	}
	return c, nil
}

// Duration interprets the clock as a span of time.
func (c Clock) Duration() time.Duration {
	return time.Duration(c.Hour)*time.Hour +
		time.Duration(c.Minute)*time.Minute +
		time.Duration(c.Second)*time.Second
}

// On anchors the clock on the calendar day of t. The hour is allowed to
// exceed 23; time.Date normalizes it into following days.
func (c Clock) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, c.Second, 0, t.Location())
}

// Entry is a validated recurring schedule entry. Exactly one of End or
// Duration is set.
type Entry struct {
	ID           string
	Start        Clock
	End          *Clock
	Duration     *Clock
	Icon         string
	Messages     []string
	Weekdays     map[string]bool
	DoNotDisturb bool
	Assertive    bool
}

// BuildEntries validates the raw entries of a parsed schedule file against a
// locale weekday table. Invalid entries are dropped with a warning; the rest
// of the schedule stays usable. The result is sorted by id so downstream
// tie-breaks are reproducible.
func BuildEntries(f *config.File, table config.WeekdayTable, logger zerolog.Logger) []Entry {
	ids := make([]string, 0, len(f.Entries))
	for id := range f.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		raw := f.Entries[id]
		entry, err := buildEntry(id, raw, table)
		if err != nil {
			logger.Warn().Str("entry", id).Err(err).Msg("dropping invalid schedule entry")
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func buildEntry(id string, raw config.Entry, table config.WeekdayTable) (Entry, error) {
	if raw.Icon == "" {
		return Entry{}, fmt.Errorf("icon is required")
	}
	if len(raw.Messages) == 0 {
		return Entry{}, fmt.Errorf("at least one message is required")
	}
	if (raw.End == "") == (raw.Duration == "") {
		return Entry{}, fmt.Errorf("exactly one of end or duration is required")
	}

	start, err := ParseClock(raw.Start)
	if err != nil {
		return Entry{}, fmt.Errorf("start: %v", err)
	}

	entry := Entry{
		ID:           id,
		Start:        start,
		Icon:         raw.Icon,
		Messages:     raw.Messages,
		DoNotDisturb: raw.DoNotDisturb,
		Assertive:    raw.Assertive,
	}

	if raw.End != "" {
		end, err := ParseClock(raw.End)
		if err != nil {
			return Entry{}, fmt.Errorf("end: %v", err)
		}
		if end.Duration() <= start.Duration() {
			return Entry{}, fmt.Errorf("end %q is not after start %q", raw.End, raw.Start)
		}
		entry.End = &end
	} else {
		dur, err := ParseClock(raw.Duration)
		if err != nil {
			return Entry{}, fmt.Errorf("duration: %v", err)
		}
		if dur.Duration() <= 0 {
			return Entry{}, fmt.Errorf("duration must be positive")
		}
		entry.Duration = &dur
	}

	entry.Weekdays = resolveWeekdays(raw.Days, table)
	if len(entry.Weekdays) == 0 {
		return Entry{}, fmt.Errorf("no resolvable weekday in %v", raw.Days)
	}

	return entry, nil
}

// resolveWeekdays expands the day aliases "everyday" and "weekdays" and
// filters literal names to ones the locale table knows. Unrecognized names
// are silently dropped.
func resolveWeekdays(days []string, table config.WeekdayTable) map[string]bool {
	set := make(map[string]bool)
	for _, day := range days {
		switch strings.ToLower(day) {
		case "everyday":
			for _, name := range table.All() {
				set[name] = true
			}
		case "weekdays":
			for _, name := range table.Workdays() {
				set[name] = true
			}
		default:
			name := strings.ToLower(day)
			if table.Contains(name) {
				set[name] = true
			}
		}
	}
	return set
}
