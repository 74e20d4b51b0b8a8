package schedule

import (
	"time"

	"github.com/rs/zerolog"

	"statusloop/internal/config"
)

// Window is one concrete occurrence of an entry, anchored to a calendar day.
// End is always after Start. Windows are rebuilt from scratch every cycle.
type Window struct {
	ID            string
	Start         time.Time
	End           time.Time
	AnchorWeekday string
	Weekdays      map[string]bool
	Icon          string
	Messages      []string
	DoNotDisturb  bool
	Assertive     bool
}

// Span returns the window's length.
func (w Window) Span() time.Duration {
	return w.End.Sub(w.Start)
}

// Expand produces every occurrence of every entry across the look-back
// window ending at now's day. Anchoring back lookbackDays-1 days keeps
// entries whose duration crosses midnight visible "today". Weekday filtering
// is deferred to resolution, against each occurrence's anchor day, because a
// window anchored on a prior day is that prior day's schedule slot.
//
// The returned icon set contains every accepted entry's icon plus the
// settings' ignored icons; it is what the reconciler uses to detect manual
// overrides.
func Expand(entries []Entry, settings config.Settings, lookbackDays int, now time.Time, table config.WeekdayTable, logger zerolog.Logger) ([]Window, map[string]bool) {
	windows := make([]Window, 0, len(entries)*lookbackDays)
	icons := make(map[string]bool)
	for _, icon := range settings.IgnoredIcons {
		icons[icon] = true
	}

	maxSpan := time.Duration(lookbackDays-1) * 24 * time.Hour
	for _, entry := range entries {
		if entry.Duration != nil && entry.Duration.Duration() > maxSpan {
			logger.Warn().
				Str("entry", entry.ID).
				Dur("duration", entry.Duration.Duration()).
				Int("lookback_days", lookbackDays).
				Msg("entry duration exceeds look-back window, skipping")
			continue
		}
		icons[entry.Icon] = true

		for dayOffset := lookbackDays - 1; dayOffset >= 0; dayOffset-- {
			anchor := now.AddDate(0, 0, -dayOffset)
			start := entry.Start.On(anchor)

			var end time.Time
			if entry.Duration != nil {
				// Add hour/minute/second components arithmetically so the
				// end may roll into following calendar days.
				d := *entry.Duration
				end = Clock{
					Hour:   entry.Start.Hour + d.Hour,
					Minute: entry.Start.Minute + d.Minute,
					Second: entry.Start.Second + d.Second,
				}.On(anchor)
			} else {
				end = entry.End.On(anchor)
			}
			if !end.After(start) {
				continue
			}

			windows = append(windows, Window{
				ID:            entry.ID,
				Start:         start,
				End:           end,
				AnchorWeekday: table.Name(anchor),
				Weekdays:      entry.Weekdays,
				Icon:          entry.Icon,
				Messages:      entry.Messages,
				DoNotDisturb:  entry.DoNotDisturb,
				Assertive:     entry.Assertive,
			})
		}
	}

	return windows, icons
}
