package model

// Action is the mutation a verdict calls for.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Verdict is the output of the decision engine.
type Verdict struct {
	Action  Action
	Changed bool

	// Existing is set iff a remote resource matched the natural key.
	Existing *RemoteResource
}

// Mutates reports whether applying the verdict issues a write request.
func (v Verdict) Mutates() bool {
	return v.Changed && v.Action != ActionNone
}
