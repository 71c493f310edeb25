package model

// MaskToken replaces every secured value in diffs, results and messages.
const MaskToken = "**********"

// Kind identifies which remote collection a resource lives in.
type Kind string

const (
	// KindVariable is a repository pipeline variable, matched on its key.
	KindVariable Kind = "variable"
	// KindEnvironment is a deployment environment, matched on its name.
	KindEnvironment Kind = "environment"
)

// IsValid reports whether the kind is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindVariable, KindEnvironment:
		return true
	default:
		return false
	}
}

// State is the lifecycle state an operator asks for.
type State string

const (
	// StatePresent asks for the resource to exist with the desired value.
	StatePresent State = "present"
	// StateAbsent asks for the resource to be removed.
	StateAbsent State = "absent"
)

// DesiredResource captures operator intent for a single resource.
type DesiredResource struct {
	Kind       Kind
	NaturalKey string

	// Value is the variable value, or the environment type name for
	// environments.
	Value   string
	Secured bool
	State   State
}

// RemoteResource is a server-side record as returned by the listing API.
// Value is empty for secured variables since the API never returns it.
type RemoteResource struct {
	UUID       string
	NaturalKey string
	Value      string
	Secured    bool
}
