package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alexisbeaulieu97/bucketsync/internal/bitbucket"
	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	"github.com/alexisbeaulieu97/bucketsync/internal/logger"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

func init() {
	mustRegister(model.KindEnvironment, NewEnvironmentReconciler)
}

type environmentType struct {
	Name string `json:"name"`
}

type remoteEnvironment struct {
	UUID            string          `json:"uuid,omitempty"`
	Name            string          `json:"name"`
	EnvironmentType environmentType `json:"environment_type"`
}

func (e remoteEnvironment) resource() model.RemoteResource {
	return model.RemoteResource{UUID: e.UUID, NaturalKey: e.Name, Value: e.EnvironmentType.Name}
}

// EnvironmentReconciler ensures a deployment environment exists. It never
// updates or deletes.
type EnvironmentReconciler struct {
	desired   model.DesiredResource
	endpoint  string
	policy    string
	transport Transport
	log       *logger.Logger
}

// NewEnvironmentReconciler builds a reconciler for an environment run.
func NewEnvironmentReconciler(run config.Run, deps Deps) (Reconciler, error) {
	if run.Resource.Environment == nil {
		return nil, syncerrors.NewValidationError("environment", "environment configuration is required", nil)
	}

	conn := run.Connection
	return &EnvironmentReconciler{
		desired:   run.Resource.Desired(),
		endpoint:  bitbucket.Endpoint(conn.APIBaseURL(), conn.Workspace, conn.RepoSlug, model.KindEnvironment),
		policy:    run.Settings.DuplicatePolicy(),
		transport: deps.Transport,
		log:       deps.Logger.WithFields(map[string]any{"kind": model.KindEnvironment, "key": run.Resource.NaturalKey()}),
	}, nil
}

func (r *EnvironmentReconciler) Kind() model.Kind { return model.KindEnvironment }

func (r *EnvironmentReconciler) Desired() model.DesiredResource { return r.desired }

func (r *EnvironmentReconciler) List(ctx context.Context) ([]model.RemoteResource, error) {
	raw, err := r.transport.ListAll(ctx, r.endpoint)
	if err != nil {
		return nil, err
	}

	resources := make([]model.RemoteResource, 0, len(raw))
	for _, item := range raw {
		var e remoteEnvironment
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, syncerrors.NewTransportError(http.MethodGet, r.endpoint, fmt.Errorf("decode environment: %w", err))
		}
		resources = append(resources, e.resource())
	}

	r.log.WithFields(map[string]any{"count": len(resources)}).Debug("listed environments")
	return resources, nil
}

func (r *EnvironmentReconciler) Match(resources []model.RemoteResource) (*model.RemoteResource, error) {
	return match(r.log, resources, r.desired.NaturalKey, r.policy)
}

func (r *EnvironmentReconciler) Decide(existing *model.RemoteResource) model.Verdict {
	return DecideEnvironment(r.desired, existing)
}

func (r *EnvironmentReconciler) Diff(existing *model.RemoteResource) model.DiffView {
	return BuildEnvironmentDiff(r.desired, existing)
}

// Apply creates the environment. Any other action is a no-op.
func (r *EnvironmentReconciler) Apply(ctx context.Context, verdict model.Verdict) (*model.RemoteResource, error) {
	if verdict.Action != model.ActionCreate {
		return nil, nil
	}

	payload := remoteEnvironment{
		Name:            r.desired.NaturalKey,
		EnvironmentType: environmentType{Name: r.desired.Value},
	}
	resp, err := r.transport.Do(ctx, http.MethodPost, r.endpoint, payload)
	if err != nil {
		return nil, err
	}
	if err := bitbucket.Expect(resp, http.MethodPost, r.endpoint, http.StatusCreated); err != nil {
		return nil, err
	}

	created := payload
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &created); err != nil {
			return nil, syncerrors.NewTransportError(http.MethodPost, r.endpoint, fmt.Errorf("decode response: %w", err))
		}
	}

	res := created.resource()
	return &res, nil
}

func (r *EnvironmentReconciler) Report(verdict model.Verdict, diff model.DiffView, applied *model.RemoteResource, checkMode bool) model.Outcome {
	record := model.RemoteResource{NaturalKey: r.desired.NaturalKey, Value: r.desired.Value}
	switch {
	case applied != nil:
		record = *applied
	case verdict.Existing != nil:
		record = *verdict.Existing
	}

	return model.Outcome{
		Kind:      model.KindEnvironment,
		Key:       r.desired.NaturalKey,
		Action:    verdict.Action,
		Changed:   verdict.Changed,
		CheckMode: checkMode,
		Msg:       environmentMessage(r.desired, verdict, checkMode),
		UUID:      record.UUID,
		Result: map[string]any{
			"uuid":             record.UUID,
			"name":             record.NaturalKey,
			"environment_type": record.Value,
		},
		Diff: &diff,
	}
}
