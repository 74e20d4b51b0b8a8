package config

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Schedule file errors. Both abort the reload that hit them; the previous
// schedule stays in effect for that cycle.
var (
	ErrUnreadable = errors.New("schedule file is unreadable")
	ErrMalformed  = errors.New("schedule file is malformed")
)

// Settings is the [settings] table of the schedule file.
type Settings struct {
	// IgnoredIcons are icon tags that never count as a manual override,
	// even though no entry declares them.
	IgnoredIcons []string `toml:"ignored_icons"`
	// AssertiveInterval is the number of cycles between forced re-assertions
	// of assertive entries. Zero disables assertive mode.
	AssertiveInterval int `toml:"assertive_interval"`
}

// Entry is one [entries.<id>] table, exactly as written in the file.
// Validation and weekday resolution happen later, against a locale table.
type Entry struct {
	Start        string   `toml:"start"`
	End          string   `toml:"end"`
	Duration     string   `toml:"duration"`
	Icon         string   `toml:"icon"`
	Messages     []string `toml:"messages"`
	Days         []string `toml:"days"`
	DoNotDisturb bool     `toml:"do_not_disturb"`
	Assertive    bool     `toml:"assertive"`
}

// File is the parsed schedule document.
type File struct {
	Settings Settings         `toml:"settings"`
	Entries  map[string]Entry `toml:"entries"`
}

// Parse decodes raw schedule text. A syntax error fails the whole document;
// no partial entry set is ever returned.
func Parse(text []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(text, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Entries == nil {
		f.Entries = map[string]Entry{}
	}
	return &f, nil
}
