// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RuntimeUnavailableId Id = iota + 1
	RuntimeNotRunningId
	ContainerCreateFailedId
	ContainerUnhealthyId
	SpecOverrideInvalidId
	ProjectPathNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

// Issue is a user-facing failure mode with rendered guidance. Unlike
// ActionableError, which wraps a single operation, an Issue describes a
// recurring condition (no engine installed, daemon stopped) with longer-form
// remediation text.
type Issue struct {
	id       Id          // ID used to look up the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links shown under "See also"
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	runtimeUnavailableIssue = &Issue{
		id: RuntimeUnavailableId,
		mdMsg: `
# No container engine found!

Previews run inside containers, and we could not find a compatible
container engine (Docker or Podman) on this machine.

## Things you can try:
- Install Docker Desktop (macOS / Windows):
~~~
https://www.docker.com/products/docker-desktop/
~~~

- Or install the engine with your package manager (Linux):
~~~
$ sudo apt install docker.io      # Debian/Ubuntu
$ sudo dnf install podman         # Fedora
~~~

- Then verify the install:
~~~
$ docker version
~~~`,
		extLinks: []HttpLink{
			"https://docs.docker.com/get-docker/",
			"https://podman.io/docs/installation",
		},
	}

	runtimeNotRunningIssue = &Issue{
		id: RuntimeNotRunningId,
		mdMsg: `
# Container engine is installed but not running

We found a container engine, tried to start it once, and it still is not
answering.

## Things you can try:
- Start Docker Desktop from your applications folder, or:
~~~
$ open -a Docker                # macOS
$ sudo systemctl start docker   # Linux
$ podman machine start          # Podman
~~~

- Then check it is up:
~~~
$ docker info
~~~`,
		extLinks: []HttpLink{
			"https://docs.docker.com/config/daemon/start/",
		},
	}

	containerCreateFailedIssue = &Issue{
		id: ContainerCreateFailedId,
		mdMsg: `
# Preview container could not be created

The engine rejected the container create request or it timed out.

## Things you can try:
- Check the engine has free resources (disk, memory):
~~~
$ docker system df
~~~
- Pull the preview image manually to rule out registry problems
- Re-run with --verbose to see the full engine invocation`,
	}

	containerUnhealthyIssue = &Issue{
		id: ContainerUnhealthyId,
		mdMsg: `
# Preview started but never became healthy

The container is running, but the dev server inside it never answered the
health check before the startup budget ran out.

## Things you can try:
- Inspect the container logs:
~~~
$ previewd logs <preview-id>
~~~
- Check the install/dev commands in your preview.toml
- Increase the health timeout in the previewd config`,
	}

	specOverrideInvalidIssue = &Issue{
		id: SpecOverrideInvalidId,
		mdMsg: `
# preview.toml could not be used

A preview.toml override was found in the project but it failed to parse or
validate, so the preview fell back to auto-detection.

## Example preview.toml:
~~~toml
image = "node:20-bookworm"
workdir = "/app"

[ports]
primary = 3000

[commands]
install = "npm install"
dev = "npm run dev"
~~~`,
	}

	projectPathNotFoundIssue = &Issue{
		id: ProjectPathNotFoundId,
		mdMsg: `
# Project path does not exist

The preview was requested for a project path that is missing or not a
directory. If the branch worktree was removed, recreate it and start the
preview again.`,
	}

	issuesById = map[Id]*Issue{
		RuntimeUnavailableId:    runtimeUnavailableIssue,
		RuntimeNotRunningId:     runtimeNotRunningIssue,
		ContainerCreateFailedId: containerCreateFailedIssue,
		ContainerUnhealthyId:    containerUnhealthyIssue,
		SpecOverrideInvalidId:   specOverrideInvalidIssue,
		ProjectPathNotFoundId:   projectPathNotFoundIssue,
	}
)

// Get returns the registered issue for id, or nil if none exists.
func Get(id Id) *Issue {
	return issuesById[id]
}

// Ids returns all registered issue ids in ascending order.
func Ids() []Id {
	ids := maps.Keys(issuesById)
	slices.Sort(ids)
	return ids
}
