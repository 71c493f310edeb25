package reconcile

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/bucketsync/internal/logger"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

// Options control a single Run.
type Options struct {
	CheckMode bool
	Logger    *logger.Logger
}

// Run drives r through list, match, decide, diff and, outside check mode,
// apply. The diff is always built from the pre-mutation listing.
//
// On failure the returned outcome is marked Failed and keeps whatever was
// computed before the failing step; the error is an ExecutionError.
func Run(ctx context.Context, r Reconciler, opts Options) (model.Outcome, error) {
	desired := r.Desired()
	kind := r.Kind()
	log := opts.Logger

	partial := model.Outcome{Kind: kind, Key: desired.NaturalKey, CheckMode: opts.CheckMode}

	resources, err := r.List(ctx)
	if err != nil {
		return fail(partial, fmt.Sprintf("Error fetching %ss", kind), err, log)
	}

	existing, err := r.Match(resources)
	if err != nil {
		return fail(partial, fmt.Sprintf("Error matching %s '%s'", kind, desired.NaturalKey), err, log)
	}

	verdict := r.Decide(existing)
	diff := r.Diff(existing)

	log.WithFields(map[string]any{
		"remote_count": len(resources),
		"matched":      existing != nil,
		"action":       verdict.Action,
		"changed":      verdict.Changed,
	}).Debug("computed verdict")

	if opts.CheckMode || !verdict.Mutates() {
		return r.Report(verdict, diff, nil, opts.CheckMode), nil
	}

	applied, err := r.Apply(ctx, verdict)
	if err != nil {
		return fail(r.Report(verdict, diff, nil, false), fmt.Sprintf("Error applying %s '%s'", kind, desired.NaturalKey), err, log)
	}

	outcome := r.Report(verdict, diff, applied, false)
	log.WithFields(map[string]any{"action": verdict.Action}).Info("applied change")
	return outcome, nil
}

func fail(partial model.Outcome, prefix string, err error, log *logger.Logger) (model.Outcome, error) {
	log.Error(err, prefix)

	partial.Changed = false
	partial.Failed = true
	partial.ErrorKind = syncerrors.Kind(err)
	partial.Msg = fmt.Sprintf("%s: %v", prefix, err)

	return partial, syncerrors.NewExecutionError(fmt.Sprintf("%s %s", partial.Kind, partial.Key), err)
}
