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
	mustRegister(model.KindVariable, NewVariableReconciler)
}

// variablePayload is the request body for create and update. The server
// assigns the uuid.
type variablePayload struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Secured bool   `json:"secured"`
}

// remoteVariable is a pipeline variable as listed or echoed by the server.
// Value is absent for secured variables.
type remoteVariable struct {
	UUID    string `json:"uuid"`
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Secured bool   `json:"secured"`
}

func (v remoteVariable) resource() model.RemoteResource {
	return model.RemoteResource{UUID: v.UUID, NaturalKey: v.Key, Value: v.Value, Secured: v.Secured}
}

// VariableReconciler manages one repository pipeline variable through its
// full lifecycle.
type VariableReconciler struct {
	desired   model.DesiredResource
	endpoint  string
	policy    string
	transport Transport
	log       *logger.Logger
}

// NewVariableReconciler builds a reconciler for a variable run.
func NewVariableReconciler(run config.Run, deps Deps) (Reconciler, error) {
	if run.Resource.Variable == nil {
		return nil, syncerrors.NewValidationError("variable", "variable configuration is required", nil)
	}

	conn := run.Connection
	return &VariableReconciler{
		desired:   run.Resource.Desired(),
		endpoint:  bitbucket.Endpoint(conn.APIBaseURL(), conn.Workspace, conn.RepoSlug, model.KindVariable),
		policy:    run.Settings.DuplicatePolicy(),
		transport: deps.Transport,
		log:       deps.Logger.WithFields(map[string]any{"kind": model.KindVariable, "key": run.Resource.NaturalKey()}),
	}, nil
}

// Kind implements Reconciler.
func (r *VariableReconciler) Kind() model.Kind { return model.KindVariable }

// Desired implements Reconciler.
func (r *VariableReconciler) Desired() model.DesiredResource { return r.desired }

// List implements Reconciler.
func (r *VariableReconciler) List(ctx context.Context) ([]model.RemoteResource, error) {
	raw, err := r.transport.ListAll(ctx, r.endpoint)
	if err != nil {
		return nil, err
	}

	resources := make([]model.RemoteResource, 0, len(raw))
	for _, item := range raw {
		var v remoteVariable
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, syncerrors.NewTransportError(http.MethodGet, r.endpoint, fmt.Errorf("decode variable: %w", err))
		}
		resources = append(resources, v.resource())
	}

	r.log.WithFields(map[string]any{"count": len(resources)}).Debug("listed variables")
	return resources, nil
}

// Match implements Reconciler.
func (r *VariableReconciler) Match(resources []model.RemoteResource) (*model.RemoteResource, error) {
	return match(r.log, resources, r.desired.NaturalKey, r.policy)
}

// Decide implements Reconciler.
func (r *VariableReconciler) Decide(existing *model.RemoteResource) model.Verdict {
	return DecideVariable(r.desired, existing)
}

// Diff implements Reconciler.
func (r *VariableReconciler) Diff(existing *model.RemoteResource) model.DiffView {
	return BuildVariableDiff(r.desired, existing)
}

// Apply implements Reconciler.
func (r *VariableReconciler) Apply(ctx context.Context, verdict model.Verdict) (*model.RemoteResource, error) {
	payload := variablePayload{Key: r.desired.NaturalKey, Value: r.desired.Value, Secured: r.desired.Secured}

	switch verdict.Action {
	case model.ActionCreate:
		resp, err := r.transport.Do(ctx, http.MethodPost, r.endpoint, payload)
		if err != nil {
			return nil, err
		}
		if err := bitbucket.Expect(resp, http.MethodPost, r.endpoint, http.StatusCreated); err != nil {
			return nil, err
		}
		return r.decodeApplied(resp, http.MethodPost, r.endpoint, "")

	case model.ActionUpdate:
		if verdict.Existing == nil {
			return nil, fmt.Errorf("update of %q without an existing variable", r.desired.NaturalKey)
		}
		target := bitbucket.ItemURL(r.endpoint, verdict.Existing.UUID)
		resp, err := r.transport.Do(ctx, http.MethodPut, target, payload)
		if err != nil {
			return nil, err
		}
		if err := bitbucket.Expect(resp, http.MethodPut, target); err != nil {
			return nil, err
		}
		return r.decodeApplied(resp, http.MethodPut, target, verdict.Existing.UUID)

	case model.ActionDelete:
		if verdict.Existing == nil {
			return nil, fmt.Errorf("delete of %q without an existing variable", r.desired.NaturalKey)
		}
		target := bitbucket.ItemURL(r.endpoint, verdict.Existing.UUID)
		resp, err := r.transport.Do(ctx, http.MethodDelete, target, nil)
		if err != nil {
			return nil, err
		}
		return nil, bitbucket.Expect(resp, http.MethodDelete, target)

	default:
		return nil, nil
	}
}

// decodeApplied reads the record echoed by the server, falling back to the
// desired state when the body is empty.
func (r *VariableReconciler) decodeApplied(resp *bitbucket.Response, method, target, knownUUID string) (*model.RemoteResource, error) {
	applied := remoteVariable{UUID: knownUUID, Key: r.desired.NaturalKey, Secured: r.desired.Secured}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &applied); err != nil {
			return nil, syncerrors.NewTransportError(method, target, fmt.Errorf("decode response: %w", err))
		}
	}
	if applied.UUID == "" {
		applied.UUID = knownUUID
	}

	res := applied.resource()
	return &res, nil
}

// Report implements Reconciler.
func (r *VariableReconciler) Report(verdict model.Verdict, diff model.DiffView, applied *model.RemoteResource, checkMode bool) model.Outcome {
	result := map[string]any{
		"variable_name": r.desired.NaturalKey,
		"new_value":     masked(r.desired.Value, r.desired.Secured),
		"new_secured":   r.desired.Secured,
	}
	if existing := verdict.Existing; existing != nil {
		result["existing_value"] = masked(existing.Value, existing.Secured)
		result["existing_secured"] = existing.Secured
		result["uuid"] = existing.UUID
	}
	if applied != nil && applied.UUID != "" {
		result["uuid"] = applied.UUID
	}

	return model.Outcome{
		Kind:      model.KindVariable,
		Key:       r.desired.NaturalKey,
		Action:    verdict.Action,
		Changed:   verdict.Changed,
		CheckMode: checkMode,
		Msg:       variableMessage(r.desired, verdict, checkMode),
		Result:    result,
		Diff:      &diff,
	}
}
