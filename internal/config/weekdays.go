package config

import (
	"fmt"
	"strings"
	"time"
)

// WeekdayTable holds a locale's seven lowercase short weekday names, indexed
// by time.Weekday (Sunday first). Injecting the table keeps resolution
// independent of host locale data.
type WeekdayTable [7]string

var weekdayTables = map[string]WeekdayTable{
	"en": {"sun", "mon", "tue", "wed", "thu", "fri", "sat"},
	"de": {"so", "mo", "di", "mi", "do", "fr", "sa"},
	"fr": {"dim", "lun", "mar", "mer", "jeu", "ven", "sam"},
}

// Weekdays returns the table for a locale tag.
func Weekdays(locale string) (WeekdayTable, error) {
	table, ok := weekdayTables[strings.ToLower(locale)]
	if !ok {
		return WeekdayTable{}, fmt.Errorf("no weekday table for locale %q", locale)
	}
	return table, nil
}

// Name returns the short name for t's weekday.
func (w WeekdayTable) Name(t time.Time) string {
	return w[int(t.Weekday())]
}

// All returns every name in the table.
func (w WeekdayTable) All() []string {
	return append([]string(nil), w[:]...)
}

// Workdays returns the five names between the weekend pair, i.e. everything
// except index 0 and 6.
func (w WeekdayTable) Workdays() []string {
	return append([]string(nil), w[1:6]...)
}

// Contains reports whether name is a member of the table.
func (w WeekdayTable) Contains(name string) bool {
	for _, n := range w {
		if n == name {
			return true
		}
	}
	return false
}
