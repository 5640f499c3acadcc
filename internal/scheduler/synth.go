package scheduler

import (
	"github.com/kballard/go-shellquote"
	"github.com/wasilibs/go-re2"
)

// Allow-list patterns for every value that ends up inside a persisted
// command line. The command text is re-parsed by a shell long after this
// process exits, and names can originate from provider-side data, so
// validation is reject-by-default: anything outside the pattern fails,
// nothing is sanitized and passed through.
var (
	instanceIDPattern   = re2.MustCompile(`^[a-zA-Z0-9-]+$`)
	namePattern         = re2.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	instanceTypePattern = re2.MustCompile(`^[a-zA-Z0-9_]{1,32}$`)
	regionPattern       = re2.MustCompile(`^[a-z]+-[a-z]+-[0-9]+$`)
)

// matchField validates a single required field against its pattern.
func matchField(field, value string, pattern *re2.Regexp) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "required"}
	}
	if !pattern.MatchString(value) {
		return &ValidationError{Field: field, Reason: "must match " + pattern.String()}
	}
	return nil
}

// Synthesize builds the argument vector for params, entrypoint first. The
// entrypoint must be an absolute path to this tool's binary: the cron
// daemon's PATH is not the interactive shell's. Pure; no side effects.
func Synthesize(entrypoint string, params ActionParams) ([]string, error) {
	if !knownAction(params.Action()) {
		return nil, &UnknownActionError{Action: string(params.Action())}
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return append([]string{entrypoint}, params.args()...), nil
}

// CommandLine renders the argument vector as a single shell-safe command
// string, quoting each field so the shell re-parses exactly the vector that
// was synthesized.
func CommandLine(entrypoint string, params ActionParams) (string, error) {
	argv, err := Synthesize(entrypoint, params)
	if err != nil {
		return "", err
	}
	return shellquote.Join(argv...), nil
}
