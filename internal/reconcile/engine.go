// Package reconcile decides, once per tick, whether the remote status needs
// to change, and applies the change when it does.
package reconcile

import (
	"bytes"
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"statusloop/internal/config"
	"statusloop/internal/schedule"
	"statusloop/internal/slack"
)

// Remote is the external status collaborator.
type Remote interface {
	FetchCurrent(ctx context.Context) (slack.RemoteStatus, error)
	Publish(ctx context.Context, icon, message string, expiration int64) error
	SetDoNotDisturb(ctx context.Context, minutes int) error
	ClearDoNotDisturb(ctx context.Context) error
}

// Action names the exit a cycle took.
type Action string

const (
	// ActionSynced means the local cache already matched; no remote call.
	ActionSynced Action = "synced"
	// ActionIdle means both sides are known empty; no remote call.
	ActionIdle Action = "idle"
	// ActionAdopted means an unrecognized remote icon was treated as a
	// manual override and adopted instead of overwritten.
	ActionAdopted Action = "adopted"
	// ActionRemoteEmpty means nothing is scheduled and the remote status
	// was already empty.
	ActionRemoteEmpty Action = "remote-empty"
	// ActionPublished means the remote status was written this cycle.
	ActionPublished Action = "published"
)

// Outcome describes what a cycle resolved and did.
type Outcome struct {
	Action   Action
	Resolved schedule.Resolved
	Next     *schedule.Window
	Until    time.Duration
}

// Engine runs the per-cycle pipeline: reload schedule, expand, resolve,
// reconcile. It holds no mutable cycle state itself; that lives in State.
type Engine struct {
	source config.Source
	remote Remote
	opts   *config.Options
	table  config.WeekdayTable
	rng    *rand.Rand
	logger zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// New wires an engine. The weekday table for the configured locale is
// computed once here, per the configured locale, never from host locale data.
func New(source config.Source, remote Remote, opts *config.Options, rng *rand.Rand, logger zerolog.Logger) (*Engine, error) {
	table, err := config.Weekdays(opts.Locale)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		source: source,
		remote: remote,
		opts:   opts,
		table:  table,
		rng:    rng,
		logger: logger.With().Str("component", "reconcile").Logger(),
		now:    time.Now,
	}, nil
}

// RunCycle executes one evaluation cycle against st. A returned error means
// the cycle aborted with st untouched by the failing step; the caller simply
// retries next tick.
func (e *Engine) RunCycle(ctx context.Context, st *State) (Outcome, error) {
	now := e.now().In(e.opts.Timezone)

	file, entries, err := e.loadSchedule(st)
	if err != nil {
		return Outcome{}, err
	}

	windows, icons := schedule.Expand(entries, file.Settings, e.opts.LookbackDays, now, e.table, e.logger)
	resolved := schedule.ResolveActive(windows, now, e.rng)

	return e.reconcile(ctx, st, file.Settings, resolved, windows, icons, now)
}

// Preview resolves the schedule for now without touching the remote side.
// Used by the status command and the snapshot server.
func (e *Engine) Preview(st *State) (Outcome, error) {
	now := e.now().In(e.opts.Timezone)

	file, entries, err := e.loadSchedule(st)
	if err != nil {
		return Outcome{}, err
	}

	windows, _ := schedule.Expand(entries, file.Settings, e.opts.LookbackDays, now, e.table, e.logger)
	resolved := schedule.ResolveActive(windows, now, e.rng)
	next, until := schedule.FindNext(windows, now)
	return Outcome{Resolved: resolved, Next: next, Until: until}, nil
}

// loadSchedule reads the schedule text and re-parses it only when the raw
// bytes changed. A change also resets lastSet to unknown, forcing the next
// reconcile pass to re-check the remote side.
func (e *Engine) loadSchedule(st *State) (*config.File, []schedule.Entry, error) {
	raw, err := e.source.ReadScheduleText()
	if err != nil {
		return nil, nil, err
	}
	if st.parsed != nil && bytes.Equal(raw, st.rawText) {
		return st.parsed, st.entries, nil
	}

	file, err := config.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	entries := schedule.BuildEntries(file, e.table, e.logger)

	if st.parsed != nil {
		e.logger.Info().Int("entries", len(entries)).Msg("schedule changed, state reset")
	}
	st.rawText = raw
	st.parsed = file
	st.entries = entries
	st.lastSet = nil
	return file, entries, nil
}

// reconcile is the fixed-order decision procedure. The first matching exit
// wins. lastSet only ever moves after the corresponding remote call
// succeeded, so a failed call is retried on the next cycle.
func (e *Engine) reconcile(ctx context.Context, st *State, settings config.Settings, resolved schedule.Resolved, windows []schedule.Window, icons map[string]bool, now time.Time) (Outcome, error) {
	// 1. Assertive check: every assertiveInterval-th cycle of an assertive
	// window bypasses the synced short-circuit and manual-override guard.
	force := false
	if settings.AssertiveInterval > 0 && resolved.Assertive {
		st.assertiveCounter++
		if st.assertiveCounter >= settings.AssertiveInterval {
			st.assertiveCounter = 0
			force = true
		}
	}

	// 2. Already synchronized.
	if !force && resolved.Active() && st.knowsSynced(resolved.ID) {
		e.logger.Debug().Str("entry", resolved.ID).Msg("already synchronized")
		return Outcome{Action: ActionSynced, Resolved: resolved}, nil
	}

	// 3. Locally known empty. The upcoming window is looked up purely for
	// the log line; nothing mutates.
	if !resolved.Active() && st.knowsSynced("") {
		next, until := schedule.FindNext(windows, now)
		if next != nil {
			e.logger.Debug().Str("entry", next.ID).Dur("in", until).Msg("idle, next window upcoming")
		}
		return Outcome{Action: ActionIdle, Resolved: resolved, Next: next, Until: until}, nil
	}

	// 4. The one read round-trip of the cycle.
	remote, err := e.remote.FetchCurrent(ctx)
	if err != nil {
		return Outcome{}, err
	}

	// 5. Unrecognized icon: somebody set a status by hand. Adopt it instead
	// of fighting it, unless this is a forced re-assertion. Caching the
	// resolved id here trades "assume human intent persists" for not
	// re-checking every cycle until the next schedule transition.
	if remote.Icon != "" && !icons[remote.Icon] && !force {
		e.logger.Info().Str("icon", remote.Icon).Msg("unrecognized status icon, assuming manual override")
		st.setLastSet(resolved.ID)
		return Outcome{Action: ActionAdopted, Resolved: resolved}, nil
	}

	// 6. Nothing scheduled and the remote side is already empty.
	if !resolved.Active() && remote.Message == "" {
		st.setLastSet("")
		return Outcome{Action: ActionRemoteEmpty, Resolved: resolved}, nil
	}

	// 7. Publish.
	if resolved.Active() {
		if err := e.remote.Publish(ctx, resolved.Icon, resolved.Message, resolved.End.Unix()); err != nil {
			return Outcome{}, err
		}
	} else {
		if err := e.remote.Publish(ctx, "", "", 0); err != nil {
			return Outcome{}, err
		}
	}

	if resolved.DoNotDisturb != remote.DoNotDisturb {
		if resolved.DoNotDisturb {
			minutes := int(resolved.End.Sub(now).Minutes())
			if err := e.remote.SetDoNotDisturb(ctx, minutes); err != nil {
				return Outcome{}, err
			}
		} else {
			if err := e.remote.ClearDoNotDisturb(ctx); err != nil {
				return Outcome{}, err
			}
		}
	}

	st.setLastSet(resolved.ID)
	e.logger.Info().
		Str("entry", resolved.ID).
		Str("icon", resolved.Icon).
		Bool("dnd", resolved.DoNotDisturb).
		Msg("published status")
	return Outcome{Action: ActionPublished, Resolved: resolved}, nil
}
