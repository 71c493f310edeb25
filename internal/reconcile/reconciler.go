// Package reconcile drives one desired resource to its declared state:
// list the remote collection, match on the natural key, decide, build the
// masked diff, apply at most one mutation, and report the outcome.
package reconcile

import (
	"context"
	"encoding/json"

	"github.com/alexisbeaulieu97/bucketsync/internal/bitbucket"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

// Transport is the HTTP collaborator the reconcilers consume.
// *bitbucket.Client satisfies it.
type Transport interface {
	ListAll(ctx context.Context, endpoint string) ([]json.RawMessage, error)
	Do(ctx context.Context, method, target string, body any) (*bitbucket.Response, error)
}

// Reconciler is implemented once per resource kind.
//
// Implementations must:
//   - keep List, Match, Decide and Diff free of side effects
//   - build the diff from pre-mutation state
//   - issue at most one mutating request per Apply call
//   - never place a secured value in a diff, result or message
type Reconciler interface {
	Kind() model.Kind
	Desired() model.DesiredResource

	// List returns every remote resource of the kind, in listing order.
	List(ctx context.Context) ([]model.RemoteResource, error)

	// Match locates the remote resource carrying the desired natural key.
	Match(resources []model.RemoteResource) (*model.RemoteResource, error)

	// Decide computes the verdict for the desired resource.
	Decide(existing *model.RemoteResource) model.Verdict

	// Diff builds the masked before/after view.
	Diff(existing *model.RemoteResource) model.DiffView

	// Apply performs the mutation the verdict calls for and returns the
	// resulting remote record, or nil after a delete.
	Apply(ctx context.Context, verdict model.Verdict) (*model.RemoteResource, error)

	// Report assembles the outcome. applied is the record returned by Apply,
	// nil when nothing was applied.
	Report(verdict model.Verdict, diff model.DiffView, applied *model.RemoteResource, checkMode bool) model.Outcome
}
