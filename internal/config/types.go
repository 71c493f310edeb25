package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

const (
	// DefaultBaseURL is the Bitbucket Cloud REST API root.
	DefaultBaseURL = "https://api.bitbucket.org/2.0"
	// DefaultTimeout is the per-request HTTP timeout in seconds.
	DefaultTimeout = 30

	// DuplicatesFirst picks the first remote match in listing order.
	DuplicatesFirst = "first"
	// DuplicatesFail aborts the run when a natural key matches more than once.
	DuplicatesFail = "fail"
)

// Connection identifies the repository and the credentials used to reach it.
type Connection struct {
	Workspace string `yaml:"workspace" validate:"required,slug"`
	RepoSlug  string `yaml:"repo_slug" validate:"required,slug"`
	Username  string `yaml:"username" validate:"required"`
	Password  string `yaml:"password" validate:"required"`
	BaseURL   string `yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// Merge fills every empty field of c from fallback.
func (c Connection) Merge(fallback Connection) Connection {
	if c.Workspace == "" {
		c.Workspace = fallback.Workspace
	}
	if c.RepoSlug == "" {
		c.RepoSlug = fallback.RepoSlug
	}
	if c.Username == "" {
		c.Username = fallback.Username
	}
	if c.Password == "" {
		c.Password = fallback.Password
	}
	if c.BaseURL == "" {
		c.BaseURL = fallback.BaseURL
	}
	return c
}

// APIBaseURL returns the configured API root or the public default.
func (c Connection) APIBaseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(c.BaseURL, "/")
}

// Settings holds run-wide behaviour switches.
type Settings struct {
	CheckMode  bool   `yaml:"check_mode,omitempty"`
	Duplicates string `yaml:"duplicates,omitempty" validate:"omitempty,oneof=first fail"`
	Timeout    int    `yaml:"timeout,omitempty" validate:"omitempty,min=1,max=3600"`
}

// DuplicatePolicy returns the effective duplicate-key policy.
func (s Settings) DuplicatePolicy() string {
	if s.Duplicates == "" {
		return DuplicatesFirst
	}
	return s.Duplicates
}

// TimeoutSeconds returns the effective HTTP timeout.
func (s Settings) TimeoutSeconds() int {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

// Variable declares a repository pipeline variable.
type Variable struct {
	Name    string `yaml:"variable_name" validate:"required"`
	Value   string `yaml:"variable_value" validate:"required"`
	Secured bool   `yaml:"secured,omitempty"`
	State   string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

// Environment declares a deployment environment.
type Environment struct {
	Name  string `yaml:"name" validate:"required"`
	Type  string `yaml:"environment_type" validate:"required"`
	State string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

// Resource is one entry of a manifest. Exactly one of Variable and
// Environment is set, selected by Kind.
type Resource struct {
	Kind string `yaml:"kind" validate:"required,oneof=variable environment"`

	Variable    *Variable    `yaml:"-"`
	Environment *Environment `yaml:"-"`
}

// UnmarshalYAML decodes the kind first and then the matching payload.
func (r *Resource) UnmarshalYAML(value *yaml.Node) error {
	var base struct {
		Kind string `yaml:"kind"`
	}
	if err := value.Decode(&base); err != nil {
		return err
	}

	r.Kind = base.Kind
	r.Variable = nil
	r.Environment = nil

	switch base.Kind {
	case string(model.KindVariable):
		var v Variable
		if err := value.Decode(&v); err != nil {
			return err
		}
		r.Variable = &v
	case string(model.KindEnvironment):
		var env Environment
		if err := value.Decode(&env); err != nil {
			return err
		}
		r.Environment = &env
	}

	return nil
}

// NaturalKey returns the identity the resource is matched on remotely.
func (r Resource) NaturalKey() string {
	switch {
	case r.Variable != nil:
		return r.Variable.Name
	case r.Environment != nil:
		return r.Environment.Name
	default:
		return ""
	}
}

// String names the resource for messages and logs.
func (r Resource) String() string {
	return fmt.Sprintf("%s %s", r.Kind, r.NaturalKey())
}

// Desired converts the declaration into the reconciler input.
func (r Resource) Desired() model.DesiredResource {
	switch {
	case r.Variable != nil:
		return model.DesiredResource{
			Kind:       model.KindVariable,
			NaturalKey: r.Variable.Name,
			Value:      r.Variable.Value,
			Secured:    r.Variable.Secured,
			State:      stateOrDefault(r.Variable.State),
		}
	case r.Environment != nil:
		return model.DesiredResource{
			Kind:       model.KindEnvironment,
			NaturalKey: r.Environment.Name,
			Value:      r.Environment.Type,
			State:      stateOrDefault(r.Environment.State),
		}
	default:
		return model.DesiredResource{Kind: model.Kind(r.Kind)}
	}
}

// Manifest lists several resources of one repository, reconciled in order.
type Manifest struct {
	Connection `yaml:",inline"`
	Settings   Settings   `yaml:"settings,omitempty"`
	Resources  []Resource `yaml:"resources" validate:"required,min=1,dive"`
}

// Runs splits the manifest into one run per resource.
func (m *Manifest) Runs() []Run {
	runs := make([]Run, 0, len(m.Resources))
	for _, res := range m.Resources {
		runs = append(runs, Run{Connection: m.Connection, Settings: m.Settings, Resource: res})
	}
	return runs
}

// Run is the immutable configuration of a single reconciliation. It is built
// once and passed by value to every component.
type Run struct {
	Connection Connection
	Settings   Settings
	Resource   Resource
}

// Secrets lists the values that must never reach logs.
func (r Run) Secrets() []string {
	secrets := []string{r.Connection.Password}
	if v := r.Resource.Variable; v != nil && v.Secured {
		secrets = append(secrets, v.Value)
	}
	return secrets
}

func stateOrDefault(state string) model.State {
	if state == "" {
		return model.StatePresent
	}
	return model.State(state)
}
