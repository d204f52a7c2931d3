// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"
)

type (
	// MockCommandRecorder captures arguments passed to exec.Command for verification.
	// It uses the TestHelperProcess pattern to simulate command execution.
	MockCommandRecorder struct {
		// Invocations records each call to the mock exec.Command
		Invocations []MockInvocation
		// ExitCode is the exit code to return (0 = success)
		ExitCode int
		// Stdout is the output to write to stdout
		Stdout string
		// Stderr is the output to write to stderr
		Stderr string
		// FailOnSubcommand can be set to a subcommand (e.g. "pause") that should fail
		FailOnSubcommand string
		// Script maps a subcommand to a canned result, taking precedence over
		// the flat Stdout/Stderr/ExitCode fields when the subcommand matches.
		// Two-word keys like "network create" are tried before one-word keys.
		Script map[string]MockResult
	}

	// MockInvocation represents a single invocation of exec.Command.
	MockInvocation struct {
		// Name is the command name (e.g., "docker", "podman")
		Name string
		// Args are the arguments passed to the command
		Args []string
	}

	// MockResult is a canned outcome for a scripted subcommand.
	MockResult struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}
)

// NewMockCommandRecorder creates a new recorder with default settings (success, no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{
		Invocations: make([]MockInvocation, 0),
		ExitCode:    0,
	}
}

// CommandFunc returns an ExecCommandFunc for wiring into an engine via
// WithExecCommand. The function records invocations and returns a command
// that runs TestHelperProcess with the configured output.
func (m *MockCommandRecorder) CommandFunc(t *testing.T) ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		// Record the invocation
		m.Invocations = append(m.Invocations, MockInvocation{
			Name: name,
			Args: args,
		})

		stdout, stderr, exitCode := m.Stdout, m.Stderr, m.ExitCode
		if len(args) > 0 {
			if res, ok := m.Script[args[0]]; ok {
				stdout, stderr, exitCode = res.Stdout, res.Stderr, res.ExitCode
			}
			if len(args) > 1 {
				if res, ok := m.Script[args[0]+" "+args[1]]; ok {
					stdout, stderr, exitCode = res.Stdout, res.Stderr, res.ExitCode
				}
			}
			if m.FailOnSubcommand != "" && args[0] == m.FailOnSubcommand {
				exitCode = 1
			}
		}

		// Build a helper process command that will return our configured output
		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", stdout),
			fmt.Sprintf("GO_HELPER_STDERR=%s", stderr),
		}

		return cmd
	}
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *MockCommandRecorder) LastInvocation() *MockInvocation {
	if len(m.Invocations) == 0 {
		return nil
	}
	return &m.Invocations[len(m.Invocations)-1]
}

// LastArgs returns the arguments from the most recent invocation.
func (m *MockCommandRecorder) LastArgs() []string {
	if inv := m.LastInvocation(); inv != nil {
		return inv.Args
	}
	return nil
}

// AssertCommandName verifies the last command name matches.
func (m *MockCommandRecorder) AssertCommandName(t *testing.T, expected string) {
	t.Helper()
	if inv := m.LastInvocation(); inv == nil {
		t.Errorf("expected command %q but no commands were invoked", expected)
	} else if inv.Name != expected {
		t.Errorf("expected command %q, got %q", expected, inv.Name)
	}
}

// AssertArgsContain verifies that the last invocation args contain the expected string.
func (m *MockCommandRecorder) AssertArgsContain(t *testing.T, expected string) {
	t.Helper()
	args := m.LastArgs()
	argsStr := strings.Join(args, " ")
	if !strings.Contains(argsStr, expected) {
		t.Errorf("expected args to contain %q, got: %v", expected, args)
	}
}

// AssertArgsContainAll verifies that the last invocation args contain all expected strings.
func (m *MockCommandRecorder) AssertArgsContainAll(t *testing.T, expected []string) {
	t.Helper()
	args := m.LastArgs()
	argsStr := strings.Join(args, " ")
	for _, exp := range expected {
		if !strings.Contains(argsStr, exp) {
			t.Errorf("expected args to contain %q, got: %v", exp, args)
		}
	}
}

// AssertArgsNotContain verifies that the last invocation args do NOT contain the expected string.
func (m *MockCommandRecorder) AssertArgsNotContain(t *testing.T, unexpected string) {
	t.Helper()
	args := m.LastArgs()
	argsStr := strings.Join(args, " ")
	if strings.Contains(argsStr, unexpected) {
		t.Errorf("expected args to NOT contain %q, got: %v", unexpected, args)
	}
}

// AssertFirstArg verifies the first argument (subcommand) matches.
func (m *MockCommandRecorder) AssertFirstArg(t *testing.T, expected string) {
	t.Helper()
	args := m.LastArgs()
	if len(args) == 0 {
		t.Errorf("expected first arg %q but args are empty", expected)
		return
	}
	if args[0] != expected {
		t.Errorf("expected first arg %q, got %q", expected, args[0])
	}
}

// AssertInvocationCount verifies the number of command invocations.
func (m *MockCommandRecorder) AssertInvocationCount(t *testing.T, expected int) {
	t.Helper()
	if len(m.Invocations) != expected {
		t.Errorf("expected %d invocations, got %d", expected, len(m.Invocations))
	}
}

// HasArg checks if the last invocation contains a specific argument.
func (m *MockCommandRecorder) HasArg(arg string) bool {
	return slices.Contains(m.LastArgs(), arg)
}

// HasArgPair checks if the last invocation contains a flag-value pair (e.g., "-p", "3100:3000").
func (m *MockCommandRecorder) HasArgPair(flag, value string) bool {
	args := m.LastArgs()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

// Reset clears all recorded invocations.
func (m *MockCommandRecorder) Reset() {
	m.Invocations = m.Invocations[:0]
}

// newMockEngine returns a docker-flavored base engine whose exec layer is
// replaced by a fresh recorder.
func newMockEngine(t *testing.T) (*BaseCLIEngine, *MockCommandRecorder) {
	t.Helper()
	recorder := NewMockCommandRecorder()
	engine := NewBaseCLIEngine("docker",
		WithName("docker"),
		WithExecCommand(recorder.CommandFunc(t)),
	)
	return engine, recorder
}

// TestHelperProcess is used by the mock to simulate command execution.
// It reads configuration from environment variables and outputs accordingly.
// This function should not be called directly - it is invoked by the mock.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	// Write configured stdout
	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}

	// Write configured stderr
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	// Exit with configured code
	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}

	os.Exit(exitCode)
}

// TestMockCommandRecorder_Basic verifies the mock recorder works correctly.
func TestMockCommandRecorder_Basic(t *testing.T) {
	recorder := NewMockCommandRecorder()
	cmdFunc := recorder.CommandFunc(t)

	cmd := cmdFunc(context.Background(), "docker", "run", "-d", "node:20-alpine")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recorder.AssertInvocationCount(t, 1)
	recorder.AssertCommandName(t, "docker")
	recorder.AssertFirstArg(t, "run")
	recorder.AssertArgsContain(t, "-d")
	recorder.AssertArgsContain(t, "node:20-alpine")
}

// TestMockCommandRecorder_Output verifies the mock can produce output.
func TestMockCommandRecorder_Output(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.Stdout = "version 1.0.0"
	cmdFunc := recorder.CommandFunc(t)

	cmd := cmdFunc(context.Background(), "docker", "version")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stdout.String() != "version 1.0.0" {
		t.Errorf("expected stdout 'version 1.0.0', got %q", stdout.String())
	}

	recorder.AssertInvocationCount(t, 1)
}

// TestMockCommandRecorder_ExitCode verifies the mock can return exit codes.
func TestMockCommandRecorder_ExitCode(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.ExitCode = 1
	recorder.Stderr = "create failed"
	cmdFunc := recorder.CommandFunc(t)

	cmd := cmdFunc(context.Background(), "docker", "run")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error for non-zero exit code")
	}
}

// TestMockCommandRecorder_Script verifies per-subcommand scripted results.
func TestMockCommandRecorder_Script(t *testing.T) {
	recorder := NewMockCommandRecorder()
	recorder.Script = map[string]MockResult{
		"inspect": {Stdout: "running"},
		"pause":   {Stderr: "Error: No such container: abc", ExitCode: 1},
	}
	cmdFunc := recorder.CommandFunc(t)

	cmd := cmdFunc(context.Background(), "docker", "inspect", "abc")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.String() != "running" {
		t.Errorf("expected scripted stdout 'running', got %q", stdout.String())
	}

	if err := cmdFunc(context.Background(), "docker", "pause", "abc").Run(); err == nil {
		t.Fatal("expected scripted pause failure")
	}
}
