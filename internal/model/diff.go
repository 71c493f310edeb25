package model

import "encoding/json"

// Side is one half of a DiffView.
type Side struct {
	Key     string
	Value   string
	Secured bool
}

// NewSide builds a side, replacing the value with MaskToken when secured.
func NewSide(key, value string, secured bool) Side {
	if secured {
		value = MaskToken
	}
	return Side{Key: key, Value: value, Secured: secured}
}

// DiffView is the before/after audit view of a single resource.
type DiffView struct {
	// KeyField is the name the natural key is reported under
	// ("variable_name" or "name").
	KeyField string
	Before   Side
	After    Side
}

// Changed reports whether the two sides render differently.
func (d DiffView) Changed() bool {
	return d.Before != d.After
}

func (d DiffView) sideMap(s Side) map[string]any {
	field := d.KeyField
	if field == "" {
		field = "key"
	}
	return map[string]any{
		field:     s.Key,
		"value":   s.Value,
		"secured": s.Secured,
	}
}

// MarshalJSON renders the view as {"before": {...}, "after": {...}}.
func (d DiffView) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"before": d.sideMap(d.Before),
		"after":  d.sideMap(d.After),
	})
}
