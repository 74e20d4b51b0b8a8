package schedule

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusloop/internal/config"
)

// Wednesday.
var wednesday = time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

func durationEntry(id string, start, dur string, days ...string) Entry {
	startClock, err := ParseClock(start)
	if err != nil {
		panic(err)
	}
	durClock, err := ParseClock(dur)
	if err != nil {
		panic(err)
	}
	set := map[string]bool{}
	for _, d := range days {
		set[d] = true
	}
	return Entry{
		ID: id, Start: startClock, Duration: &durClock,
		Icon: ":" + id + ":", Messages: []string{id}, Weekdays: set,
	}
}

func TestExpand_OneOccurrencePerLookbackDay(t *testing.T) {
	table := mustTable(t)
	entry := durationEntry("standup", "09:00", "00:15", "mon", "tue", "wed", "thu", "fri")

	for _, lookback := range []int{2, 3, 7} {
		windows, _ := Expand([]Entry{entry}, config.Settings{}, lookback, wednesday, table, zerolog.Nop())
		require.Len(t, windows, lookback, "lookback %d", lookback)
		for _, w := range windows {
			assert.True(t, w.End.After(w.Start))
			assert.Equal(t, 15*time.Minute, w.Span())
		}
	}
}

func TestExpand_MidnightSpanVisibleFromPriorDay(t *testing.T) {
	table := mustTable(t)
	entry := durationEntry("night", "23:00", "02:00", "tue")

	// 00:30 Wednesday: the Tuesday-anchored occurrence covers it.
	now := time.Date(2026, 1, 7, 0, 30, 0, 0, time.UTC)
	windows, _ := Expand([]Entry{entry}, config.Settings{}, 2, now, table, zerolog.Nop())
	require.Len(t, windows, 2)

	tueWindow := windows[0]
	assert.Equal(t, "tue", tueWindow.AnchorWeekday)
	assert.Equal(t, time.Date(2026, 1, 6, 23, 0, 0, 0, time.UTC), tueWindow.Start)
	assert.Equal(t, time.Date(2026, 1, 7, 1, 0, 0, 0, time.UTC), tueWindow.End)
	assert.True(t, !tueWindow.Start.After(now) && now.Before(tueWindow.End))
}

func TestExpand_DurationExceedingLookbackSkipsEntry(t *testing.T) {
	table := mustTable(t)
	tooLong := durationEntry("marathon", "08:00", "25:00", "mon")

	windows, icons := Expand([]Entry{tooLong}, config.Settings{}, 2, wednesday, table, zerolog.Nop())
	assert.Empty(t, windows)
	assert.False(t, icons[":marathon:"], "a skipped entry's icon must not be recognized")

	// Three lookback days give the 25h span room, so it expands.
	windows, icons = Expand([]Entry{tooLong}, config.Settings{}, 3, wednesday, table, zerolog.Nop())
	assert.Len(t, windows, 3)
	assert.True(t, icons[":marathon:"])
}

func TestExpand_RecognizedIcons(t *testing.T) {
	table := mustTable(t)
	a := durationEntry("focus", "09:00", "01:00", "wed")
	b := durationEntry("lunch", "12:00", "01:00", "wed")

	settings := config.Settings{IgnoredIcons: []string{":palm_tree:"}}
	_, icons := Expand([]Entry{a, b}, settings, 2, wednesday, table, zerolog.Nop())

	assert.True(t, icons[":focus:"])
	assert.True(t, icons[":lunch:"])
	assert.True(t, icons[":palm_tree:"])
	assert.False(t, icons[":rocket:"])
}

func TestExpand_EndClockSameDayOnly(t *testing.T) {
	table := mustTable(t)
	start, _ := ParseClock("16:00")
	end, _ := ParseClock("17:00")
	entry := Entry{
		ID: "focus", Start: start, End: &end,
		Icon: ":focus:", Messages: []string{"Focus"},
		Weekdays: map[string]bool{"tue": true, "wed": true},
	}

	windows, _ := Expand([]Entry{entry}, config.Settings{}, 2, wednesday, table, zerolog.Nop())
	require.Len(t, windows, 2)
	for _, w := range windows {
		assert.Equal(t, w.Start.Day(), w.End.Day())
		assert.Equal(t, time.Hour, w.Span())
	}
}

func mustTable(t *testing.T) config.WeekdayTable {
	t.Helper()
	table, err := config.Weekdays("en")
	require.NoError(t, err)
	return table
}
