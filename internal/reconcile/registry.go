package reconcile

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	"github.com/alexisbeaulieu97/bucketsync/internal/logger"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

// Deps are the collaborators handed to every reconciler.
type Deps struct {
	Transport Transport
	Logger    *logger.Logger
}

// Factory builds a reconciler for one run.
type Factory func(run config.Run, deps Deps) (Reconciler, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[model.Kind]Factory)
)

// Register adds a factory for the provided kind.
func Register(kind model.Kind, f Factory) error {
	if f == nil {
		return fmt.Errorf("reconciler factory for %q is nil", kind)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[kind]; exists {
		return fmt.Errorf("reconciler for %q already registered", kind)
	}

	registry[kind] = f
	return nil
}

// New builds the reconciler matching the run's resource kind.
func New(run config.Run, deps Deps) (Reconciler, error) {
	kind := model.Kind(run.Resource.Kind)

	registryMu.RLock()
	f, ok := registry[kind]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no reconciler registered for kind %q", kind)
	}
	if deps.Transport == nil {
		return nil, fmt.Errorf("reconciler for %q needs a transport", kind)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	return f(run, deps)
}

// Kinds lists the registered kinds in sorted order.
func Kinds() []model.Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]model.Kind, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func mustRegister(kind model.Kind, f Factory) {
	if err := Register(kind, f); err != nil {
		panic(err)
	}
}
