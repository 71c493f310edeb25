package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseManifest loads a manifest from disk, fills connection fields the file
// leaves empty from defaults, validates it, and returns the resulting model.
func ParseManifest(path string, defaults Connection) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, syncerrors.NewParseError(path, 0, err)
	}

	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, syncerrors.NewParseError(path, extractLine(err), err)
	}

	m.Connection = m.Connection.Merge(defaults)

	if err := ValidateManifest(&m); err != nil {
		return nil, err
	}

	return &m, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
