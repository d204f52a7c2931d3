// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"slices"
	"testing"
)

func TestDockerEngine_DisablesCLIHints(t *testing.T) {
	t.Parallel()

	e := NewDockerEngine()
	cmd := e.CreateCommand(context.Background(), "ps", "-a")

	if !slices.Contains(cmd.Env, "DOCKER_CLI_HINTS=false") {
		t.Errorf("expected DOCKER_CLI_HINTS=false in command env, got %v", cmd.Env)
	}
}
