package reconcile

import (
	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	"github.com/alexisbeaulieu97/bucketsync/internal/logger"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

// Find returns the first resource whose natural key equals key, in listing
// order. Under the "fail" policy a key matched more than once is an
// AmbiguousMatchError instead.
func Find(resources []model.RemoteResource, key, policy string) (*model.RemoteResource, error) {
	var first *model.RemoteResource
	matches := 0

	for i := range resources {
		if resources[i].NaturalKey != key {
			continue
		}
		matches++
		if first == nil {
			match := resources[i]
			first = &match
			if policy != config.DuplicatesFail {
				break
			}
		}
	}

	if matches > 1 {
		return nil, syncerrors.NewAmbiguousMatchError(key, matches)
	}
	return first, nil
}

// match is Find plus a warning when the first policy silently skips
// duplicate keys.
func match(log *logger.Logger, resources []model.RemoteResource, key, policy string) (*model.RemoteResource, error) {
	found, err := Find(resources, key, policy)
	if err != nil || found == nil || policy == config.DuplicatesFail {
		return found, err
	}

	count := 0
	for i := range resources {
		if resources[i].NaturalKey == key {
			count++
		}
	}
	if count > 1 {
		log.WithFields(map[string]any{"matches": count}).
			Warn("multiple remote resources share the key; using the first in listing order")
	}
	return found, nil
}
