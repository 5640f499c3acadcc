package scheduler

import (
	"fmt"
	"time"

	"github.com/rmcwhorter/lambdalabs-cli/internal/crontab"
	"github.com/rmcwhorter/lambdalabs-cli/internal/logger"
)

// Job is the reconstructed view of one scheduled job owned by this tool.
// It is not stored as such; every field is recovered from the crontab entry
// and its annotation on each enumeration.
type Job struct {
	ID          string
	Action      Action
	Schedule    string
	Command     string
	Description string
	Enabled     bool
}

// Registry implements the job operations over a crontab store. It keeps no
// state between calls: every operation starts from a fresh enumeration, so
// concurrent external edits are picked up. Edits landing between an
// enumeration and the following commit can still be lost; the table offers
// no transactional isolation.
type Registry struct {
	store      crontab.Store
	entrypoint string
	now        func() time.Time
	logger     *logger.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger attaches a logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Registry) { r.logger = log }
}

// New creates a Registry writing commands that invoke the binary at
// entrypoint. The entrypoint must be an absolute path.
func New(store crontab.Store, entrypoint string, opts ...Option) *Registry {
	r := &Registry{
		store:      store,
		entrypoint: entrypoint,
		now:        time.Now,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add schedules params on the given cron expression and returns the new
// job's ID. The store is either left with the fully-formed entry (command,
// annotation, schedule) or untouched; there is no partial state.
func (r *Registry) Add(params ActionParams, schedule, description string) (string, error) {
	if err := crontab.ValidateSchedule(schedule); err != nil {
		return "", err
	}

	command, err := CommandLine(r.entrypoint, params)
	if err != nil {
		return "", err
	}

	id, annotation := Tag(params.Action(), description)
	if _, err := r.store.Add(command, schedule, annotation); err != nil {
		return "", err
	}
	if err := r.store.Commit(); err != nil {
		return "", err
	}

	r.logger.Info("scheduled job added",
		logger.Field{Key: "job_id", Value: id},
		logger.Field{Key: "action", Value: params.Action()},
		logger.Field{Key: "schedule", Value: schedule})
	return id, nil
}

// AddTimeBasedTermination schedules a one-shot termination. Exactly one of
// durationMinutes (> 0) and endTime ("HH:MM") must be given. An empty
// instanceID terminates all instances. Returns the job ID and the resolved
// firing time.
func (r *Registry) AddTimeBasedTermination(instanceID string, durationMinutes int, endTime, description string) (string, time.Time, error) {
	now := r.now()

	var target time.Time
	switch {
	case durationMinutes > 0 && endTime != "":
		return "", time.Time{}, ErrMissingParameter
	case durationMinutes > 0:
		target = now.Add(time.Duration(durationMinutes) * time.Minute)
	case endTime != "":
		var err error
		target, err = ResolveEndTime(now, endTime)
		if err != nil {
			return "", time.Time{}, err
		}
	default:
		return "", time.Time{}, ErrMissingParameter
	}

	var params ActionParams
	var what string
	if instanceID != "" {
		params = TerminateInstanceParams{InstanceID: instanceID}
		what = fmt.Sprintf("instance %s", instanceID)
	} else {
		params = TerminateAllParams{}
		what = "all instances"
	}
	if description == "" {
		description = fmt.Sprintf("Terminate %s at %s", what, target.Format("2006-01-02 15:04"))
	}

	id, err := r.Add(params, OneShotExpr(target), description)
	if err != nil {
		return "", time.Time{}, err
	}
	return id, target, nil
}

// List returns all jobs owned by this tool, in the table's native order.
// Foreign entries are filtered out by the annotation, nothing else.
func (r *Registry) List() ([]Job, error) {
	entries, err := r.store.Entries()
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, entry := range entries {
		id, action, description, ok := Untag(entry.Comment)
		if !ok {
			continue
		}
		jobs = append(jobs, Job{
			ID:          id,
			Action:      action,
			Schedule:    entry.Schedule,
			Command:     entry.Command,
			Description: description,
			Enabled:     entry.Enabled,
		})
	}
	return jobs, nil
}

// Remove deletes the job with the given ID. Returns false, with no store
// mutation and no commit, when no owned entry matches.
func (r *Registry) Remove(id string) (bool, error) {
	entry, err := r.find(id)
	if err != nil || entry == nil {
		return false, err
	}
	if err := r.store.Remove(entry); err != nil {
		return false, err
	}
	if err := r.store.Commit(); err != nil {
		return false, err
	}
	r.logger.Info("scheduled job removed", logger.Field{Key: "job_id", Value: id})
	return true, nil
}

// Enable marks the job's entry active. Returns false when the ID is absent.
func (r *Registry) Enable(id string) (bool, error) {
	return r.setEnabled(id, true)
}

// Disable comments the job's entry out without removing it. Returns false
// when the ID is absent.
func (r *Registry) Disable(id string) (bool, error) {
	return r.setEnabled(id, false)
}

func (r *Registry) setEnabled(id string, enabled bool) (bool, error) {
	entry, err := r.find(id)
	if err != nil || entry == nil {
		return false, err
	}
	if err := r.store.SetEnabled(entry, enabled); err != nil {
		return false, err
	}
	if err := r.store.Commit(); err != nil {
		return false, err
	}
	r.logger.Info("scheduled job toggled",
		logger.Field{Key: "job_id", Value: id},
		logger.Field{Key: "enabled", Value: enabled})
	return true, nil
}

// ClearAll removes every owned job and returns how many were removed. Zero
// matches is not an error and performs no commit.
func (r *Registry) ClearAll() (int, error) {
	entries, err := r.store.Entries()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if _, _, _, ok := Untag(entry.Comment); !ok {
			continue
		}
		if err := r.store.Remove(entry); err != nil {
			return removed, err
		}
		removed++
	}

	if removed == 0 {
		return 0, nil
	}
	if err := r.store.Commit(); err != nil {
		return removed, err
	}
	r.logger.Info("scheduled jobs cleared", logger.Field{Key: "count", Value: removed})
	return removed, nil
}

// find locates the owned entry whose annotation carries id. At most one
// entry can match, IDs being assigned once at creation.
func (r *Registry) find(id string) (*crontab.Entry, error) {
	entries, err := r.store.Entries()
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		entryID, _, _, ok := Untag(entry.Comment)
		if ok && entryID == id {
			return entry, nil
		}
	}
	return nil, nil
}
