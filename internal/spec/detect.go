// SPDX-License-Identifier: MPL-2.0

package spec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Framework identifies the detected project kind, carried on the preview
// record for display purposes only.
type Framework string

const (
	FrameworkNext   Framework = "next"
	FrameworkVite   Framework = "vite"
	FrameworkNode   Framework = "node"
	FrameworkGo     Framework = "go"
	FrameworkRails  Framework = "rails"
	FrameworkStatic Framework = "static"
)

// packageJSON is the subset of package.json the heuristics read.
type packageJSON struct {
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Detect derives a spec from the project's files. It always returns a
// usable spec; an unrecognizable project gets a static file server.
func Detect(projectPath string) (PreviewSpec, Framework) {
	if pkg, ok := readPackageJSON(projectPath); ok {
		return detectNode(projectPath, pkg)
	}

	if fileExists(filepath.Join(projectPath, "go.mod")) {
		s := PreviewSpec{
			Image: "golang:1.25-alpine",
			Ports: map[string]int{PrimaryPortName: 8080},
			Commands: Commands{
				Install: "go mod download",
				Dev:     "go run .",
			},
		}
		s.Normalize()
		return s, FrameworkGo
	}

	if fileExists(filepath.Join(projectPath, "Gemfile")) {
		s := PreviewSpec{
			Image: "ruby:3.3",
			Ports: map[string]int{PrimaryPortName: 3000},
			Commands: Commands{
				Install: "bundle install",
				Dev:     "bundle exec rails server -b 0.0.0.0",
			},
		}
		s.Normalize()
		return s, FrameworkRails
	}

	// Anything else gets a static file server over the project root.
	s := PreviewSpec{
		Commands: Commands{
			Install: "npm install -g serve",
			Dev:     "serve -l " + strconv.Itoa(DefaultPrimaryPort) + " .",
		},
	}
	s.Normalize()
	return s, FrameworkStatic
}

// detectNode picks the framework and startup commands for a package.json
// project, preferring the project's own dev script over framework defaults.
func detectNode(projectPath string, pkg packageJSON) (PreviewSpec, Framework) {
	framework := FrameworkNode
	port := DefaultPrimaryPort

	switch {
	case pkg.hasDependency("next"):
		framework = FrameworkNext
	case pkg.hasDependency("vite"):
		framework = FrameworkVite
		port = 5173
	}

	dev := "npm run dev"
	if _, ok := pkg.Scripts["dev"]; !ok {
		switch framework {
		case FrameworkNext:
			dev = "npx next dev"
		case FrameworkVite:
			dev = "npx vite --host"
		default:
			if _, ok := pkg.Scripts["start"]; ok {
				dev = "npm start"
			}
		}
	}

	s := PreviewSpec{
		Ports: map[string]int{PrimaryPortName: port},
		Commands: Commands{
			Install: installCommand(projectPath),
			Dev:     dev,
		},
	}
	s.Normalize()
	return s, framework
}

// installCommand picks the package-manager install matching the lockfile.
func installCommand(projectPath string) string {
	switch {
	case fileExists(filepath.Join(projectPath, "pnpm-lock.yaml")):
		return "corepack enable pnpm && pnpm install --frozen-lockfile"
	case fileExists(filepath.Join(projectPath, "yarn.lock")):
		return "corepack enable yarn && yarn install --frozen-lockfile"
	case fileExists(filepath.Join(projectPath, "package-lock.json")):
		return "npm ci"
	default:
		return "npm install"
	}
}

func readPackageJSON(projectPath string) (packageJSON, bool) {
	data, err := os.ReadFile(filepath.Join(projectPath, "package.json"))
	if err != nil {
		return packageJSON{}, false
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		// Present but unparsable still identifies a Node project; the
		// defaults cover it.
		return packageJSON{}, true
	}
	return pkg, true
}

func (p packageJSON) hasDependency(name string) bool {
	if _, ok := p.Dependencies[name]; ok {
		return true
	}
	_, ok := p.DevDependencies[name]
	return ok
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
