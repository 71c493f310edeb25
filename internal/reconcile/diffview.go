package reconcile

import "github.com/alexisbeaulieu97/bucketsync/internal/model"

const (
	variableKeyField    = "variable_name"
	environmentKeyField = "name"
)

// BuildVariableDiff renders the pre-mutation remote record against the
// desired one. A missing side renders as an empty, unsecured value.
func BuildVariableDiff(desired model.DesiredResource, existing *model.RemoteResource) model.DiffView {
	view := model.DiffView{
		KeyField: variableKeyField,
		Before:   model.NewSide(desired.NaturalKey, "", false),
		After:    model.NewSide(desired.NaturalKey, "", false),
	}

	if existing != nil {
		view.Before = model.NewSide(existing.NaturalKey, existing.Value, existing.Secured)
	}
	if desired.State != model.StateAbsent {
		view.After = model.NewSide(desired.NaturalKey, desired.Value, desired.Secured)
	}

	return view
}

// BuildEnvironmentDiff renders environments with their type as the value.
// Existing environments are never modified, so both sides show the remote
// record when there is a match.
func BuildEnvironmentDiff(desired model.DesiredResource, existing *model.RemoteResource) model.DiffView {
	view := model.DiffView{
		KeyField: environmentKeyField,
		Before:   model.NewSide(desired.NaturalKey, "", false),
		After:    model.NewSide(desired.NaturalKey, "", false),
	}

	switch {
	case existing != nil:
		view.Before = model.NewSide(existing.NaturalKey, existing.Value, false)
		view.After = view.Before
	case desired.State != model.StateAbsent:
		view.After = model.NewSide(desired.NaturalKey, desired.Value, false)
	}

	return view
}
