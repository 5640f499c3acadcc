// Package crontab is the adapter over the user's crontab, the shared
// periodic-task table this tool stores scheduled jobs in.
//
// The table is shared: other tools and manual edits own lines in it too.
// Foreign lines (comments, environment assignments, jobs without our
// annotation) are preserved byte-for-byte and in their original order across
// every mutation. Mutations operate on *Entry references obtained from
// enumeration, never on recomputed positions.
//
// A disabled entry is serialized as its line commented out with "# ", the
// same convention the common crontab manipulation libraries use, so the
// system cron daemon ignores it while the entry remains recoverable.
package crontab

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/rmcwhorter/lambdalabs-cli/internal/logger"
)

// Store is the interface Job Registry Operations consume.
type Store interface {
	// Entries re-reads the table and returns all job entries, owned or
	// foreign, in table order. Each call reflects the current persisted
	// state; uncommitted mutations from a previous enumeration are
	// discarded.
	Entries() ([]*Entry, error)
	// Add appends a new enabled entry. The schedule must be a valid
	// five-field cron expression or an InvalidScheduleError is returned.
	Add(command, schedule, comment string) (*Entry, error)
	// SetEnabled toggles an entry in place.
	SetEnabled(e *Entry, enabled bool) error
	// Remove deletes an entry from the table.
	Remove(e *Entry) error
	// Commit flushes all pending mutations. Nothing is persisted until
	// Commit returns.
	Commit() error
}

// Entry is one job line of the table.
type Entry struct {
	Schedule string // five-field cron expression
	Command  string // command text executed by the cron daemon
	Comment  string // trailing marker comment, without the leading "# "
	Enabled  bool

	// line is the backing table line; nil after removal.
	line *line
}

// line is one physical line of the crontab. Foreign lines keep only raw;
// job lines additionally carry the parsed entry. raw is written back
// verbatim unless dirty is set.
type line struct {
	raw     string
	entry   *Entry
	dirty   bool
	removed bool
}

// InvalidScheduleError reports a schedule that does not parse as a
// five-field cron expression.
type InvalidScheduleError struct {
	Expr string
	Err  error
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid cron schedule %q: %v", e.Expr, e.Err)
}

func (e *InvalidScheduleError) Unwrap() error { return e.Err }

// fiveFieldParser accepts exactly minute hour dom month dow, no descriptors.
var fiveFieldParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks expr against the five-field cron grammar.
func ValidateSchedule(expr string) error {
	if _, err := fiveFieldParser.Parse(expr); err != nil {
		return &InvalidScheduleError{Expr: expr, Err: err}
	}
	return nil
}

// Crontab implements Store over a Source.
type Crontab struct {
	source Source
	logger *logger.Logger
	lines  []*line
	loaded bool
}

// New creates a Crontab over the given source.
func New(source Source, log *logger.Logger) *Crontab {
	if log == nil {
		log = logger.Discard()
	}
	return &Crontab{source: source, logger: log}
}

// Entries implements Store. It always re-reads the table.
func (c *Crontab) Entries() ([]*Entry, error) {
	if err := c.reload(); err != nil {
		return nil, err
	}
	var entries []*Entry
	for _, ln := range c.lines {
		if ln.entry != nil {
			entries = append(entries, ln.entry)
		}
	}
	return entries, nil
}

// Add implements Store. The entry is appended after the last existing line.
func (c *Crontab) Add(command, schedule, comment string) (*Entry, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	if strings.ContainsAny(command, "\n\r") || strings.ContainsAny(comment, "\n\r") {
		return nil, fmt.Errorf("command and comment must be single-line")
	}

	if !c.loaded {
		if err := c.reload(); err != nil {
			return nil, err
		}
	}

	entry := &Entry{
		Schedule: schedule,
		Command:  command,
		Comment:  comment,
		Enabled:  true,
	}
	ln := &line{entry: entry, dirty: true}
	entry.line = ln
	c.lines = append(c.lines, ln)

	c.logger.Debug("entry staged",
		logger.Field{Key: "schedule", Value: schedule},
		logger.Field{Key: "comment", Value: comment})
	return entry, nil
}

// SetEnabled implements Store.
func (c *Crontab) SetEnabled(e *Entry, enabled bool) error {
	if e.line == nil || e.line.removed {
		return fmt.Errorf("entry is no longer part of the table")
	}
	e.Enabled = enabled
	e.line.dirty = true
	return nil
}

// Remove implements Store.
func (c *Crontab) Remove(e *Entry) error {
	if e.line == nil || e.line.removed {
		return fmt.Errorf("entry is no longer part of the table")
	}
	e.line.removed = true
	e.line = nil
	return nil
}

// Commit implements Store. The whole table is rewritten through the source,
// which replaces it atomically from this process's point of view.
func (c *Crontab) Commit() error {
	if !c.loaded {
		return nil
	}
	if err := c.source.Write(c.render()); err != nil {
		return err
	}
	c.logger.Debug("crontab committed")
	// Force a fresh read on the next enumeration.
	c.loaded = false
	c.lines = nil
	return nil
}

func (c *Crontab) reload() error {
	content, err := c.source.Read()
	if err != nil {
		return err
	}
	c.lines = parse(content)
	c.loaded = true
	return nil
}

func (c *Crontab) render() string {
	var sb strings.Builder
	for _, ln := range c.lines {
		if ln.removed {
			continue
		}
		if ln.dirty && ln.entry != nil {
			sb.WriteString(serialize(ln.entry))
		} else {
			sb.WriteString(ln.raw)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// parse splits the table into lines, recognizing active and disabled job
// lines. Anything else stays a raw foreign line.
func parse(content string) []*line {
	var lines []*line
	if content == "" {
		return lines
	}
	for _, raw := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		ln := &line{raw: raw}
		if entry, ok := parseEntry(raw); ok {
			entry.line = ln
			ln.entry = entry
		}
		lines = append(lines, ln)
	}
	return lines
}

// parseEntry attempts to read a line as a job entry. Commented lines are
// only treated as disabled entries when the remainder still parses as a
// valid job line; ordinary comments fall through as foreign lines.
func parseEntry(raw string) (*Entry, bool) {
	enabled := true
	text := raw
	if strings.HasPrefix(strings.TrimLeft(text, " \t"), "#") {
		trimmed := strings.TrimLeft(text, " \t")
		text = strings.TrimPrefix(strings.TrimPrefix(trimmed, "#"), " ")
		enabled = false
	}

	fields := strings.Fields(text)
	if len(fields) < 6 {
		return nil, false
	}
	schedule := strings.Join(fields[:5], " ")
	if ValidateSchedule(schedule) != nil {
		return nil, false
	}

	rest := strings.TrimSpace(text[scheduleEnd(text, 5):])
	command, comment := splitComment(rest)
	if command == "" {
		return nil, false
	}

	return &Entry{
		Schedule: schedule,
		Command:  command,
		Comment:  comment,
		Enabled:  enabled,
	}, true
}

// scheduleEnd returns the byte offset just past the n-th whitespace-separated
// field of text.
func scheduleEnd(text string, n int) int {
	inField := false
	count := 0
	for i, r := range text {
		isSpace := r == ' ' || r == '\t'
		if !isSpace && !inField {
			inField = true
			count++
		} else if isSpace && inField {
			inField = false
			if count == n {
				return i
			}
		}
	}
	return len(text)
}

// splitComment separates the command from a trailing " # comment" marker.
// The first occurrence wins: commands written by this tool never contain a
// bare '#' (every parameter is allow-list validated), while the marker
// comment is free text that may.
func splitComment(rest string) (command, comment string) {
	idx := strings.Index(rest, " # ")
	if idx < 0 {
		return rest, ""
	}
	return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+3:])
}

// serialize renders an entry back into a table line.
func serialize(e *Entry) string {
	var sb strings.Builder
	if !e.Enabled {
		sb.WriteString("# ")
	}
	sb.WriteString(e.Schedule)
	sb.WriteByte(' ')
	sb.WriteString(e.Command)
	if e.Comment != "" {
		sb.WriteString(" # ")
		sb.WriteString(e.Comment)
	}
	return sb.String()
}
