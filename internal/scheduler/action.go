// Package scheduler builds, tags, and manages the scheduled lifecycle jobs
// this tool installs in the periodic-task table.
package scheduler

// Action identifies a schedulable lifecycle action.
type Action string

const (
	ActionTerminateInstance       Action = "terminate_instance"
	ActionTerminateInstanceByName Action = "terminate_instance_by_name"
	ActionTerminateAll            Action = "terminate_all"
	ActionCreateInstance          Action = "create_instance"
)

// knownAction reports whether a is one of the supported actions.
func knownAction(a Action) bool {
	switch a {
	case ActionTerminateInstance, ActionTerminateInstanceByName, ActionTerminateAll, ActionCreateInstance:
		return true
	}
	return false
}

// ActionParams is the closed set of per-action parameter structs. One
// variant exists per action so a missing field is a zero value caught by
// validation rather than a map lookup at synthesis time.
type ActionParams interface {
	// Action returns the variant's action.
	Action() Action
	// validate checks every field against its allow-list pattern.
	validate() error
	// args returns the action's argument sequence after the entrypoint.
	args() []string
}

// TerminateInstanceParams terminates one instance by ID.
type TerminateInstanceParams struct {
	InstanceID string
}

func (TerminateInstanceParams) Action() Action { return ActionTerminateInstance }

func (p TerminateInstanceParams) validate() error {
	return matchField("instance_id", p.InstanceID, instanceIDPattern)
}

func (p TerminateInstanceParams) args() []string {
	return []string{"instances", "terminate", p.InstanceID}
}

// TerminateByNameParams terminates one instance by its unique name.
type TerminateByNameParams struct {
	InstanceName string
}

func (TerminateByNameParams) Action() Action { return ActionTerminateInstanceByName }

func (p TerminateByNameParams) validate() error {
	return matchField("instance_name", p.InstanceName, namePattern)
}

func (p TerminateByNameParams) args() []string {
	return []string{"instances", "terminate-by-name", p.InstanceName}
}

// TerminateAllParams terminates every instance on the account. The
// synthesized command always carries --yes: the scheduler's runner has no
// terminal to answer the confirmation prompt.
type TerminateAllParams struct{}

func (TerminateAllParams) Action() Action { return ActionTerminateAll }

func (TerminateAllParams) validate() error { return nil }

func (TerminateAllParams) args() []string {
	return []string{"instances", "terminate-all", "--yes"}
}

// CreateInstanceParams creates an instance if one with the given name does
// not already exist. Scheduled creation is always the ensure variant so a
// recurring entry never piles up duplicates.
type CreateInstanceParams struct {
	InstanceType string
	Region       string
	Name         string
	Filesystem   string // optional
}

func (CreateInstanceParams) Action() Action { return ActionCreateInstance }

func (p CreateInstanceParams) validate() error {
	if err := matchField("instance_type", p.InstanceType, instanceTypePattern); err != nil {
		return err
	}
	if err := matchField("region", p.Region, regionPattern); err != nil {
		return err
	}
	if err := matchField("name", p.Name, namePattern); err != nil {
		return err
	}
	if p.Filesystem != "" {
		if err := matchField("filesystem", p.Filesystem, namePattern); err != nil {
			return err
		}
	}
	return nil
}

func (p CreateInstanceParams) args() []string {
	args := []string{"instances", "ensure",
		"--type", p.InstanceType,
		"--region", p.Region,
		"--name", p.Name,
	}
	if p.Filesystem != "" {
		args = append(args, "--filesystem", p.Filesystem)
	}
	return args
}

// ParamsFor converts a string action and flat argument map into the typed
// variant. It is the front door for callers that receive the action as
// text; unknown actions fail with UnknownActionError, never a panic.
func ParamsFor(action string, args map[string]string) (ActionParams, error) {
	switch Action(action) {
	case ActionTerminateInstance:
		return TerminateInstanceParams{InstanceID: args["instance_id"]}, nil
	case ActionTerminateInstanceByName:
		return TerminateByNameParams{InstanceName: args["instance_name"]}, nil
	case ActionTerminateAll:
		return TerminateAllParams{}, nil
	case ActionCreateInstance:
		return CreateInstanceParams{
			InstanceType: args["instance_type"],
			Region:       args["region"],
			Name:         args["name"],
			Filesystem:   args["filesystem"],
		}, nil
	default:
		return nil, &UnknownActionError{Action: action}
	}
}
