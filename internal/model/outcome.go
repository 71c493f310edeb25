package model

import "encoding/json"

// Outcome is the final report of one reconciliation run. A failed run still
// carries whatever was computed before the failure.
type Outcome struct {
	Kind      Kind
	Key       string
	Action    Action
	Changed   bool
	CheckMode bool
	Msg       string

	// UUID is the server identity of the environment (environments only).
	UUID   string
	Result map[string]any
	Diff   *DiffView

	Failed    bool
	ErrorKind string
}

// MarshalJSON renders the result document consumed by the host runtime.
// "changed" is always present; "uuid" is always present for environments.
func (o Outcome) MarshalJSON() ([]byte, error) {
	doc := map[string]any{
		"changed": o.Changed,
		"msg":     o.Msg,
	}
	if o.Kind == KindEnvironment {
		doc["uuid"] = o.UUID
	}
	if len(o.Result) > 0 {
		doc["result"] = o.Result
	}
	if o.Diff != nil {
		doc["diff"] = o.Diff
	}
	if o.Failed {
		doc["failed"] = true
		if o.ErrorKind != "" {
			doc["error_kind"] = o.ErrorKind
		}
	}
	return json.Marshal(doc)
}
