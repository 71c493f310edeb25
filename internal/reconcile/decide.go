package reconcile

import "github.com/alexisbeaulieu97/bucketsync/internal/model"

// DecideVariable applies the variable rules in order:
//  1. no match, present: create
//  2. no match, absent: nothing
//  3. match, absent: delete
//  4. match, secured: update, always; the API never returns the value so it
//     cannot be compared
//  5. match, plain: update iff the value or the secured flag differ
func DecideVariable(desired model.DesiredResource, existing *model.RemoteResource) model.Verdict {
	if existing == nil {
		if desired.State == model.StateAbsent {
			return model.Verdict{Action: model.ActionNone}
		}
		return model.Verdict{Action: model.ActionCreate, Changed: true}
	}

	if desired.State == model.StateAbsent {
		return model.Verdict{Action: model.ActionDelete, Changed: true, Existing: existing}
	}

	if desired.Secured {
		return model.Verdict{Action: model.ActionUpdate, Changed: true, Existing: existing}
	}

	if existing.Value != desired.Value || existing.Secured != desired.Secured {
		return model.Verdict{Action: model.ActionUpdate, Changed: true, Existing: existing}
	}
	return model.Verdict{Action: model.ActionNone, Existing: existing}
}

// DecideEnvironment only ever creates. An existing environment is left
// alone whatever its type, and absent never deletes.
func DecideEnvironment(desired model.DesiredResource, existing *model.RemoteResource) model.Verdict {
	if existing == nil && desired.State != model.StateAbsent {
		return model.Verdict{Action: model.ActionCreate, Changed: true}
	}
	return model.Verdict{Action: model.ActionNone, Existing: existing}
}
