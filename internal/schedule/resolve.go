package schedule

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Resolved is the outcome of a resolution pass. The zero value (empty ID)
// means no window is active.
type Resolved struct {
	ID           string
	Icon         string
	Message      string
	DoNotDisturb bool
	Assertive    bool
	Start        time.Time
	End          time.Time
}

// Active reports whether a window matched.
func (r Resolved) Active() bool {
	return r.ID != ""
}

// ResolveActive finds the window covering now whose anchor-day weekday is in
// its weekday set. When several overlap, the shortest span wins, so a narrow
// nested slot overrides a broad umbrella one; the sort is stable, making ties
// reproducible for a given input order.
//
// The winner's message is picked with round(r*(len-1)), both endpoints
// inclusive. The rounding makes first and last message slightly less likely
// than the middle ones; that distribution is kept as the established
// behavior. rng is injected so tests can pin the choice.
func ResolveActive(windows []Window, now time.Time, rng *rand.Rand) Resolved {
	var active []Window
	for _, w := range windows {
		if !w.Start.After(now) && now.Before(w.End) && w.Weekdays[w.AnchorWeekday] {
			active = append(active, w)
		}
	}
	if len(active) == 0 {
		return Resolved{}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Span() < active[j].Span()
	})
	winner := active[0]

	idx := 0
	if len(winner.Messages) > 1 {
		idx = int(math.Round(rng.Float64() * float64(len(winner.Messages)-1)))
	}

	return Resolved{
		ID:           winner.ID,
		Icon:         winner.Icon,
		Message:      winner.Messages[idx],
		DoNotDisturb: winner.DoNotDisturb,
		Assertive:    winner.Assertive,
		Start:        winner.Start,
		End:          winner.End,
	}
}

// FindNext returns the upcoming window with the nearest start after now and
// a weekday match, or nil when none is scheduled.
func FindNext(windows []Window, now time.Time) (*Window, time.Duration) {
	var next *Window
	for i := range windows {
		w := windows[i]
		if !w.Start.After(now) || !w.Weekdays[w.AnchorWeekday] {
			continue
		}
		if next == nil || w.Start.Before(next.Start) {
			next = &windows[i]
		}
	}
	if next == nil {
		return nil, 0
	}
	return next, next.Start.Sub(now)
}
