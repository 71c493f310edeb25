package reconcile

import (
	"fmt"

	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

const (
	securedPlaceholder    = "[secured value]"
	newSecuredPlaceholder = "[new secured value]"
	checkModePrefix       = "Check mode: "
)

type phase int

const (
	phaseNone phase = iota
	phasePlanned
	phaseApplied
)

func phaseFor(verdict model.Verdict, checkMode bool) phase {
	switch {
	case !verdict.Mutates():
		return phaseNone
	case checkMode:
		return phasePlanned
	default:
		return phaseApplied
	}
}

func masked(value string, secured bool) string {
	if secured {
		return model.MaskToken
	}
	return value
}

// verb renders "would be created" or "created successfully".
func verb(p phase, past string) string {
	if p == phaseApplied {
		return past + " successfully"
	}
	return "would be " + past
}

func withPrefix(msg string, checkMode bool) string {
	if checkMode {
		return checkModePrefix + msg
	}
	return msg
}

func variableMessage(desired model.DesiredResource, verdict model.Verdict, checkMode bool) string {
	p := phaseFor(verdict, checkMode)
	key := desired.NaturalKey

	newValue := desired.Value
	if desired.Secured {
		newValue = newSecuredPlaceholder
	}

	var msg string
	switch verdict.Action {
	case model.ActionCreate:
		msg = fmt.Sprintf("Variable '%s' %s: %s", key, verb(p, "created"), newValue)
	case model.ActionUpdate:
		oldValue := securedPlaceholder
		if verdict.Existing != nil && !verdict.Existing.Secured && !desired.Secured {
			oldValue = verdict.Existing.Value
		}
		msg = fmt.Sprintf("Variable '%s' %s: %s -> %s", key, verb(p, "updated"), oldValue, newValue)
	case model.ActionDelete:
		msg = fmt.Sprintf("Variable '%s' %s", key, verb(p, "deleted"))
	default:
		msg = fmt.Sprintf("No changes required for variable '%s'", key)
	}
	return withPrefix(msg, checkMode)
}

func environmentMessage(desired model.DesiredResource, verdict model.Verdict, checkMode bool) string {
	p := phaseFor(verdict, checkMode)
	key := desired.NaturalKey

	var msg string
	switch {
	case verdict.Action == model.ActionCreate:
		msg = fmt.Sprintf("Environment '%s' %s (type %s)", key, verb(p, "created"), desired.Value)
	case verdict.Existing != nil:
		msg = fmt.Sprintf("Environment '%s' already exists", key)
	default:
		msg = fmt.Sprintf("No changes required for environment '%s'", key)
	}
	return withPrefix(msg, checkMode)
}
