// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// OverrideFileName is the manual spec override checked in the project root.
const OverrideFileName = "preview.toml"

// overrideFile mirrors PreviewSpec in TOML form. Every field is optional;
// set fields overlay the detected spec.
type overrideFile struct {
	Image     string            `toml:"image"`
	Ports     map[string]int    `toml:"ports"`
	Commands  overrideCommands  `toml:"commands"`
	Env       map[string]string `toml:"env"`
	Workdir   string            `toml:"workdir"`
	Health    overrideHealth    `toml:"health"`
	Resources overrideResources `toml:"resources"`
}

type overrideCommands struct {
	Install string   `toml:"install"`
	Setup   []string `toml:"setup"`
	Dev     string   `toml:"dev"`
}

type overrideHealth struct {
	Port           string `toml:"port"`
	Path           string `toml:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type overrideResources struct {
	Memory string `toml:"memory"`
	CPUs   string `toml:"cpus"`
}

// loadOverride reads preview.toml from the project root. A missing file is
// (nil, nil); a malformed file is an error the resolver downgrades to a
// warning.
func loadOverride(projectPath string) (*overrideFile, error) {
	path := filepath.Join(projectPath, OverrideFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", OverrideFileName, err)
	}

	var o overrideFile
	if err := toml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse %s: %w", OverrideFileName, err)
	}
	return &o, nil
}

// apply overlays the override's set fields onto a spec. Port values outside
// 1..65535 are skipped; their names are returned so the caller can warn.
// The cached-blob path gets the same bound from the CUE schema.
func (o *overrideFile) apply(s *PreviewSpec) []string {
	var badPorts []string
	if o.Image != "" {
		s.Image = o.Image
	}
	if len(o.Ports) > 0 {
		if s.Ports == nil {
			s.Ports = map[string]int{}
		}
		for name, port := range o.Ports {
			if port < 1 || port > 65535 {
				badPorts = append(badPorts, name)
				continue
			}
			s.Ports[name] = port
		}
		sort.Strings(badPorts)
	}
	if o.Commands.Install != "" {
		s.Commands.Install = o.Commands.Install
	}
	if len(o.Commands.Setup) > 0 {
		s.Commands.Setup = o.Commands.Setup
	}
	if o.Commands.Dev != "" {
		s.Commands.Dev = o.Commands.Dev
	}
	if len(o.Env) > 0 {
		if s.Env == nil {
			s.Env = map[string]string{}
		}
		for k, v := range o.Env {
			s.Env[k] = v
		}
	}
	if o.Workdir != "" {
		s.Workdir = o.Workdir
	}
	if o.Health.Port != "" {
		s.Health.Port = o.Health.Port
	}
	if o.Health.Path != "" {
		s.Health.Path = o.Health.Path
	}
	if o.Health.TimeoutSeconds > 0 {
		s.Health.TimeoutSeconds = o.Health.TimeoutSeconds
	}
	if o.Resources.Memory != "" {
		s.Resources.Memory = o.Resources.Memory
	}
	if o.Resources.CPUs != "" {
		s.Resources.CPUs = o.Resources.CPUs
	}
	return badPorts
}
