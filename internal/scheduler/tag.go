package scheduler

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wasilibs/go-re2"
)

// OwnershipPrefix marks crontab comments written by this tool. Entries whose
// comment does not carry it belong to other tools and are never touched.
const OwnershipPrefix = "lambdalabs-cli"

// fieldSeparator joins the annotation fields. Parsing splits on its first
// two occurrences only, so the trailing description may itself contain it.
const fieldSeparator = " - "

// jobIDPattern matches the tokens NewJobID produces.
var jobIDPattern = re2.MustCompile(`^[0-9a-f]{8}$`)

// NewJobID returns a fresh 8-hex-character job identifier (32 bits of
// randomness, drawn from a v4 UUID). Generated per call, never reused.
func NewJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Tag produces a new job ID and the annotation persisted as the entry's
// comment. The annotation is the only linkage between a job's metadata and
// its crontab line.
func Tag(action Action, description string) (id, annotation string) {
	id = NewJobID()
	annotation = fmt.Sprintf("%s: %s%s%s%s%s", OwnershipPrefix, id, fieldSeparator, action, fieldSeparator, description)
	return id, annotation
}

// Untag recovers (id, action, description) from an annotation produced by
// Tag. ok is false for anything this tool did not write: foreign comments,
// prefix look-alikes ("lambdalabs-cli-backup: ..."), unknown actions, and
// malformed IDs. It never panics on arbitrary input.
func Untag(annotation string) (id string, action Action, description string, ok bool) {
	rest, found := strings.CutPrefix(annotation, OwnershipPrefix+": ")
	if !found {
		return "", "", "", false
	}

	parts := strings.SplitN(rest, fieldSeparator, 3)
	if len(parts) == 2 {
		// An empty description serializes as a trailing separator whose
		// final space may have been trimmed by the store.
		if trimmed, had := strings.CutSuffix(parts[1], " -"); had {
			parts = []string{parts[0], trimmed, ""}
		}
	}
	if len(parts) != 3 {
		return "", "", "", false
	}

	id, action, description = parts[0], Action(parts[1]), parts[2]
	if !jobIDPattern.MatchString(id) || !knownAction(action) {
		return "", "", "", false
	}
	return id, action, description, true
}
