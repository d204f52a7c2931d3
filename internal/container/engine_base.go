// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

const (
	// PortProtocolTCP is the TCP transport protocol for port mappings.
	PortProtocolTCP PortProtocol = "tcp"
	// PortProtocolUDP is the UDP transport protocol for port mappings.
	PortProtocolUDP PortProtocol = "udp"

	// SELinuxLabelNone means no SELinux label is applied to volume mounts.
	SELinuxLabelNone SELinuxLabel = ""
	// SELinuxLabelShared allows sharing the volume between containers.
	SELinuxLabelShared SELinuxLabel = "z"
	// SELinuxLabelPrivate restricts the volume to a single container.
	SELinuxLabelPrivate SELinuxLabel = "Z"
)

var (
	// ErrInvalidPortProtocol is the sentinel error wrapped by InvalidPortProtocolError.
	ErrInvalidPortProtocol = errors.New("invalid port protocol")

	// ErrInvalidSELinuxLabel is the sentinel error wrapped by InvalidSELinuxLabelError.
	ErrInvalidSELinuxLabel = errors.New("invalid SELinux label")

	// ErrInvalidNetworkPort is the sentinel error wrapped by InvalidNetworkPortError.
	ErrInvalidNetworkPort = errors.New("invalid network port")

	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")

	// ErrInvalidPortMapping is the sentinel error wrapped by InvalidPortMappingError.
	ErrInvalidPortMapping = errors.New("invalid port mapping")

	// ErrInvalidCreateOptions is the sentinel error wrapped by InvalidCreateOptionsError.
	ErrInvalidCreateOptions = errors.New("invalid create options")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// VolumeFormatFunc is a function that formats a volume mount spec as a string.
	// Podman uses this to add SELinux labels (:z/:Z) which are required in
	// SELinux-enforcing environments for proper volume isolation. Without them,
	// container processes cannot access bind-mounted host paths.
	VolumeFormatFunc func(volume VolumeMount) string

	// CreateArgsTransformer modifies create arguments after they're built.
	// Used by Podman to inject --userns=keep-id for rootless compatibility.
	CreateArgsTransformer func(args []string) []string

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container engines.
	// Docker and Podman engines embed this struct. Methods that are identical across
	// all CLI engines (CreateDetached, Stop, Pause, Unpause, State, Logs,
	// EnsureNetwork, EnsureVolume, ListByLabel and the argument builders) are
	// implemented here; engine-specific methods (Available, Version) remain on
	// the concrete types.
	BaseCLIEngine struct {
		name                  string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath            string // Resolved at construction via exec.LookPath
		execCommand           ExecCommandFunc
		volumeFormatter       VolumeFormatFunc
		createArgsTransformer CreateArgsTransformer
		cmdEnvOverrides       map[string]string // Per-command env var overrides
	}

	// PortProtocol represents a network transport protocol for port mappings.
	// The zero value ("") is valid and means "default to tcp".
	PortProtocol string

	// InvalidPortProtocolError is returned when a PortProtocol is not a recognized protocol.
	InvalidPortProtocolError struct {
		Value PortProtocol
	}

	// SELinuxLabel represents an SELinux volume labeling option.
	// The zero value ("") means no SELinux label is applied.
	SELinuxLabel string

	// InvalidSELinuxLabelError is returned when an SELinuxLabel is not a recognized label.
	InvalidSELinuxLabelError struct {
		Value SELinuxLabel
	}

	// NetworkPort represents a TCP/UDP port number for container port mappings.
	// A valid port must be greater than zero.
	NetworkPort uint16

	// InvalidNetworkPortError is returned when a NetworkPort value is zero.
	InvalidNetworkPortError struct {
		Value NetworkPort
	}

	// VolumeMount represents a volume mount specification. HostPath may be a
	// host directory or a named volume.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
		SELinux       SELinuxLabel
	}

	// PortMapping represents a port mapping specification.
	PortMapping struct {
		HostPort      NetworkPort
		ContainerPort NetworkPort
		Protocol      PortProtocol
	}

	// InvalidVolumeMountError is returned when a VolumeMount has one or more invalid fields.
	// It wraps the individual field validation errors for inspection.
	InvalidVolumeMountError struct {
		Value     VolumeMount
		FieldErrs []error
	}

	// InvalidPortMappingError is returned when a PortMapping has one or more invalid fields.
	// It wraps the individual field validation errors for inspection.
	InvalidPortMappingError struct {
		Value     PortMapping
		FieldErrs []error
	}

	// CreateOptions contains options for creating a detached container.
	CreateOptions struct {
		// Image is the image to run
		Image string
		// Name is the container name
		Name string
		// Command is the command executed inside the container. It is passed
		// to "sh -lc" so &&-chained install/dev stages work as expected.
		Command string
		// Workdir is the working directory inside the container
		Workdir string
		// Env contains environment variables
		Env map[string]string
		// Volumes are the volume mounts
		Volumes []VolumeMount
		// Ports are the port mappings
		Ports []PortMapping
		// Network is the network the container joins (optional)
		Network string
		// Labels are engine labels attached to the container
		Labels map[string]string
		// Memory is the memory cap (e.g. "2g", optional)
		Memory string
		// CPUs is the CPU cap (e.g. "2", optional)
		CPUs string
	}

	// InvalidCreateOptionsError is returned when CreateOptions has one or more
	// invalid fields. It wraps the individual field validation errors.
	InvalidCreateOptionsError struct {
		FieldErrs []error
	}
)

// Error implements the error interface.
func (e *InvalidPortProtocolError) Error() string {
	return fmt.Sprintf("invalid port protocol %q (valid: tcp, udp)", e.Value)
}

// Unwrap returns ErrInvalidPortProtocol so callers can use errors.Is for programmatic detection.
func (e *InvalidPortProtocolError) Unwrap() error { return ErrInvalidPortProtocol }

// Validate returns an error if the PortProtocol is not one of the defined protocols.
// The zero value ("") is valid and is treated as "tcp" by FormatPortMapping.
func (p PortProtocol) Validate() error {
	switch p {
	case PortProtocolTCP, PortProtocolUDP, "":
		return nil
	default:
		return &InvalidPortProtocolError{Value: p}
	}
}

// String returns the string representation of the PortProtocol.
func (p PortProtocol) String() string { return string(p) }

// Error implements the error interface.
func (e *InvalidSELinuxLabelError) Error() string {
	return fmt.Sprintf("invalid SELinux label %q (valid: empty, z, Z)", e.Value)
}

// Unwrap returns ErrInvalidSELinuxLabel so callers can use errors.Is for programmatic detection.
func (e *InvalidSELinuxLabelError) Unwrap() error { return ErrInvalidSELinuxLabel }

// Validate returns an error if the SELinuxLabel is not one of the defined labels.
// The zero value ("") is valid and means no SELinux label.
func (s SELinuxLabel) Validate() error {
	switch s {
	case SELinuxLabelNone, SELinuxLabelShared, SELinuxLabelPrivate:
		return nil
	default:
		return &InvalidSELinuxLabelError{Value: s}
	}
}

// String returns the string representation of the SELinuxLabel.
func (s SELinuxLabel) String() string { return string(s) }

// String returns the string representation of the NetworkPort.
func (p NetworkPort) String() string { return strconv.Itoa(int(p)) }

// Validate returns an error if the NetworkPort is invalid.
// A valid port must be greater than zero.
func (p NetworkPort) Validate() error {
	if p == 0 {
		return &InvalidNetworkPortError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidNetworkPortError.
func (e *InvalidNetworkPortError) Error() string {
	return fmt.Sprintf("invalid network port %d: must be greater than zero", e.Value)
}

// Unwrap returns ErrInvalidNetworkPort for errors.Is() compatibility.
func (e *InvalidNetworkPortError) Unwrap() error { return ErrInvalidNetworkPort }

// Error implements the error interface for InvalidVolumeMountError.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %s:%s: %d field error(s)",
		e.Value.HostPath, e.Value.ContainerPath, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is() compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate returns an error if any field of the VolumeMount is invalid.
func (v VolumeMount) Validate() error {
	var errs []error
	if strings.TrimSpace(v.HostPath) == "" {
		errs = append(errs, fmt.Errorf("host path must be non-empty"))
	}
	if strings.TrimSpace(v.ContainerPath) == "" {
		errs = append(errs, fmt.Errorf("container path must be non-empty"))
	}
	if err := v.SELinux.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidVolumeMountError{Value: v, FieldErrs: errs}
	}
	return nil
}

// String returns the volume mount in "host:container[:selinux][:ro]" format.
func (v VolumeMount) String() string {
	s := v.HostPath + ":" + v.ContainerPath
	if v.SELinux != "" {
		s += ":" + string(v.SELinux)
	}
	if v.ReadOnly {
		s += ":ro"
	}
	return s
}

// Error implements the error interface for InvalidPortMappingError.
func (e *InvalidPortMappingError) Error() string {
	return fmt.Sprintf("invalid port mapping %d:%d/%s: %d field error(s)",
		e.Value.HostPort, e.Value.ContainerPort, e.Value.Protocol, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidPortMapping for errors.Is() compatibility.
func (e *InvalidPortMappingError) Unwrap() error { return ErrInvalidPortMapping }

// Validate returns an error if any typed field of the PortMapping is invalid.
func (p PortMapping) Validate() error {
	var errs []error
	if err := p.HostPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.ContainerPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Protocol.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidPortMappingError{Value: p, FieldErrs: errs}
	}
	return nil
}

// String returns the port mapping in "host:container/protocol" format.
// Defaults to "tcp" when the protocol is empty.
func (p PortMapping) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = PortProtocolTCP
	}
	return fmt.Sprintf("%d:%d/%s", p.HostPort, p.ContainerPort, proto)
}

// Error implements the error interface for InvalidCreateOptionsError.
func (e *InvalidCreateOptionsError) Error() string {
	return fmt.Sprintf("invalid create options: %d field error(s)", len(e.FieldErrs))
}

// Unwrap returns ErrInvalidCreateOptions for errors.Is() compatibility.
func (e *InvalidCreateOptionsError) Unwrap() error { return ErrInvalidCreateOptions }

// Validate returns an error if any field of the CreateOptions is invalid.
// Image and Command are required; every port mapping and volume mount must
// itself be valid.
func (o CreateOptions) Validate() error {
	var errs []error
	if strings.TrimSpace(o.Image) == "" {
		errs = append(errs, fmt.Errorf("image must be non-empty"))
	}
	if strings.TrimSpace(o.Command) == "" {
		errs = append(errs, fmt.Errorf("command must be non-empty"))
	}
	for _, p := range o.Ports {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, v := range o.Volumes {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &InvalidCreateOptionsError{FieldErrs: errs}
	}
	return nil
}

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithVolumeFormatter sets a custom volume formatter function.
// This is used by Podman to add SELinux labels on Linux.
func WithVolumeFormatter(fn VolumeFormatFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.volumeFormatter = fn
	}
}

// WithCreateArgsTransformer sets a custom create args transformer.
// This is used by Podman to inject --userns=keep-id for rootless compatibility.
func WithCreateArgsTransformer(fn CreateArgsTransformer) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.createArgsTransformer = fn
	}
}

// WithCmdEnvOverride adds an environment variable override applied to every
// exec.Cmd created by this engine.
func WithCmdEnvOverride(key, value string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		if e.cmdEnvOverrides == nil {
			e.cmdEnvOverrides = make(map[string]string)
		}
		e.cmdEnvOverrides[key] = value
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
		// Identity functions by default
		volumeFormatter:       FormatVolumeMount,
		createArgsTransformer: func(args []string) []string { return args },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// CreateArgs constructs arguments for a detached container create command.
//
// Generated command: <binary> run -d [options] <image> sh -lc <command>
func (e *BaseCLIEngine) CreateArgs(opts CreateOptions) []string {
	args := []string{"run", "-d"}

	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}

	// Deterministic label order keeps invocations reproducible in tests.
	labelKeys := make([]string, 0, len(opts.Labels))
	for k := range opts.Labels {
		labelKeys = append(labelKeys, k)
	}
	sort.Strings(labelKeys)
	for _, k := range labelKeys {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, opts.Labels[k]))
	}

	if opts.Network != "" {
		args = append(args, "--network", opts.Network)
	}

	if opts.Workdir != "" {
		args = append(args, "-w", opts.Workdir)
	}

	envKeys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)
	for _, k := range envKeys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	for _, v := range opts.Volumes {
		args = append(args, "-v", e.volumeFormatter(v))
	}

	for _, p := range opts.Ports {
		args = append(args, "-p", FormatPortMapping(p))
	}

	if opts.Memory != "" {
		args = append(args, "--memory", opts.Memory)
	}

	if opts.CPUs != "" {
		args = append(args, "--cpus", opts.CPUs)
	}

	args = append(args, opts.Image, "sh", "-lc", opts.Command)

	return e.createArgsTransformer(args)
}

// StopArgs constructs arguments for a container stop command.
func (e *BaseCLIEngine) StopArgs(containerID string, timeoutSeconds int) []string {
	return []string{"stop", "-t", strconv.Itoa(timeoutSeconds), containerID}
}

// RemoveArgs constructs arguments for a container remove command.
func (e *BaseCLIEngine) RemoveArgs(containerID string, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, containerID)
	return args
}

// PauseArgs constructs arguments for a container pause command.
func (e *BaseCLIEngine) PauseArgs(containerID string) []string {
	return []string{"pause", containerID}
}

// UnpauseArgs constructs arguments for a container unpause command.
func (e *BaseCLIEngine) UnpauseArgs(containerID string) []string {
	return []string{"unpause", containerID}
}

// StateArgs constructs arguments for a container state inspect command.
func (e *BaseCLIEngine) StateArgs(containerID string) []string {
	return []string{"inspect", "-f", "{{.State.Status}}", containerID}
}

// LogsArgs constructs arguments for a container logs command.
func (e *BaseCLIEngine) LogsArgs(containerID string, tail int) []string {
	return []string{"logs", "--tail", strconv.Itoa(tail), containerID}
}

// ListByLabelArgs constructs arguments listing all container ids with a label.
func (e *BaseCLIEngine) ListByLabelArgs(label string) []string {
	return []string{"ps", "-a", "--filter", "label=" + label, "-q", "--no-trunc"}
}

// --- Command Execution ---

// RunCommand executes a command and returns its output.
// This is the low-level execution method used by concrete engines.
func (e *BaseCLIEngine) RunCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmd := e.CreateCommand(ctx, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return out, nil
}

// RunCommandCombined executes a command and returns combined stdout/stderr.
func (e *BaseCLIEngine) RunCommandCombined(ctx context.Context, args ...string) ([]byte, error) {
	cmd := e.CreateCommand(ctx, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return out, nil
}

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// Engine-level overrides (env vars) are applied automatically.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	cmd := e.execCommand(ctx, e.binaryPath, args...)
	e.customizeCmd(cmd)
	return cmd
}

// --- Promoted Engine Methods (shared by Docker and Podman) ---

// CreateDetached creates and starts a container in the background.
// It validates CreateOptions before executing to catch invalid fields early.
// The engine prints the new container id on stdout.
func (e *BaseCLIEngine) CreateDetached(ctx context.Context, opts CreateOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	args := e.CreateArgs(opts)
	out, err := e.RunCommandCombined(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("create container %q: %w: %s", opts.Name, err, strings.TrimSpace(string(out)))
	}

	// The id is the last non-empty line; pull/progress output may precede it.
	lines := strings.Fields(strings.TrimSpace(string(out)))
	if len(lines) == 0 {
		return "", fmt.Errorf("create container %q: engine returned no id", opts.Name)
	}
	return lines[len(lines)-1], nil
}

// Stop stops and removes a container. A container the engine no longer knows
// about counts as stopped, so repeated teardown is idempotent.
func (e *BaseCLIEngine) Stop(ctx context.Context, containerID string) error {
	if out, err := e.RunCommandCombined(ctx, e.StopArgs(containerID, stopGraceSeconds)...); err != nil {
		if !isNotFoundOutput(out) {
			return fmt.Errorf("stop container %s: %w", containerID, err)
		}
	}
	if out, err := e.RunCommandCombined(ctx, e.RemoveArgs(containerID, true)...); err != nil {
		if !isNotFoundOutput(out) {
			return fmt.Errorf("remove container %s: %w", containerID, err)
		}
	}
	return nil
}

// stopGraceSeconds is how long the engine waits for the dev server to exit
// before killing it.
const stopGraceSeconds = 5

// Pause suspends all processes in a container.
func (e *BaseCLIEngine) Pause(ctx context.Context, containerID string) error {
	if out, err := e.RunCommandCombined(ctx, e.PauseArgs(containerID)...); err != nil {
		if isNotFoundOutput(out) {
			return ErrContainerNotFound
		}
		return fmt.Errorf("pause container %s: %w", containerID, err)
	}
	return nil
}

// Unpause resumes a paused container.
func (e *BaseCLIEngine) Unpause(ctx context.Context, containerID string) error {
	if out, err := e.RunCommandCombined(ctx, e.UnpauseArgs(containerID)...); err != nil {
		if isNotFoundOutput(out) {
			return ErrContainerNotFound
		}
		return fmt.Errorf("unpause container %s: %w", containerID, err)
	}
	return nil
}

// State returns the engine-level state of a container.
func (e *BaseCLIEngine) State(ctx context.Context, containerID string) (State, error) {
	out, err := e.RunCommandCombined(ctx, e.StateArgs(containerID)...)
	if err != nil {
		if isNotFoundOutput(out) {
			return "", ErrContainerNotFound
		}
		return "", fmt.Errorf("inspect container %s: %w", containerID, err)
	}
	return State(strings.TrimSpace(string(out))), nil
}

// Logs returns up to tail lines of combined container output.
func (e *BaseCLIEngine) Logs(ctx context.Context, containerID string, tail int) (string, error) {
	out, err := e.RunCommandCombined(ctx, e.LogsArgs(containerID, tail)...)
	if err != nil {
		if isNotFoundOutput(out) {
			return "", ErrContainerNotFound
		}
		return "", fmt.Errorf("logs for container %s: %w", containerID, err)
	}
	return string(out), nil
}

// EnsureNetwork creates the named bridge network if it does not exist.
func (e *BaseCLIEngine) EnsureNetwork(ctx context.Context, name string) error {
	if err := e.RunCommandStatus(ctx, "network", "inspect", name); err == nil {
		return nil
	}
	if out, err := e.RunCommandCombined(ctx, "network", "create", name); err != nil {
		// Lost the race against a concurrent create.
		if strings.Contains(strings.ToLower(string(out)), "already exists") {
			return nil
		}
		return fmt.Errorf("create network %s: %w", name, err)
	}
	return nil
}

// EnsureVolume creates the named volume if it does not exist.
// Volume create is idempotent on both docker and podman.
func (e *BaseCLIEngine) EnsureVolume(ctx context.Context, name string) error {
	if out, err := e.RunCommandCombined(ctx, "volume", "create", name); err != nil {
		return fmt.Errorf("create volume %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ListByLabel returns ids of all containers (running or not) carrying the label.
func (e *BaseCLIEngine) ListByLabel(ctx context.Context, label string) ([]string, error) {
	out, err := e.RunCommandWithOutput(ctx, e.ListByLabelArgs(label)...)
	if err != nil {
		return nil, fmt.Errorf("list containers by label %s: %w", label, err)
	}
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// customizeCmd applies env overrides to a command.
func (e *BaseCLIEngine) customizeCmd(cmd *exec.Cmd) {
	if len(e.cmdEnvOverrides) > 0 {
		// Start with the parent process environment, then overlay overrides.
		// exec.Cmd.Env being nil means "inherit everything", but once set to
		// a non-nil slice, only the listed vars are passed to the child.
		cmd.Env = os.Environ()
		for k, v := range e.cmdEnvOverrides {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
}

// isNotFoundOutput reports whether an engine error output means the container
// is simply gone. Docker prints "No such container"/"No such object", podman
// prints "no container with name or ID".
func isNotFoundOutput(out []byte) bool {
	s := strings.ToLower(string(out))
	return strings.Contains(s, "no such container") ||
		strings.Contains(s, "no such object") ||
		strings.Contains(s, "no container with")
}

// --- Volume Mount Formatting ---

// FormatVolumeMount formats a volume mount as a string for the -v flag.
func FormatVolumeMount(mount VolumeMount) string {
	var result strings.Builder
	result.WriteString(mount.HostPath)
	result.WriteString(":")
	result.WriteString(mount.ContainerPath)

	var options []string
	if mount.ReadOnly {
		options = append(options, "ro")
	}
	if mount.SELinux != "" {
		options = append(options, string(mount.SELinux))
	}

	if len(options) > 0 {
		result.WriteString(":")
		result.WriteString(strings.Join(options, ","))
	}

	return result.String()
}

// ParseVolumeMount parses a volume string into a VolumeMount struct.
// Volume format: host_path:container_path[:options]
// Options can include: ro, rw, z, Z, and others.
// After parsing, the result is validated via VolumeMount.Validate().
func ParseVolumeMount(volume string) (VolumeMount, error) {
	mount := VolumeMount{}

	parts := strings.Split(volume, ":")

	if len(parts) >= 1 {
		mount.HostPath = parts[0]
	}
	if len(parts) >= 2 {
		mount.ContainerPath = parts[1]
	}
	if len(parts) >= 3 {
		options := parts[2]
		for opt := range strings.SplitSeq(options, ",") {
			switch opt {
			case "ro":
				mount.ReadOnly = true
			case "z", "Z":
				mount.SELinux = SELinuxLabel(opt)
			}
		}
	}

	if err := mount.Validate(); err != nil {
		return mount, err
	}
	return mount, nil
}

// --- Port Mapping Formatting ---

// FormatPortMapping formats a port mapping as a string for the -p flag.
func FormatPortMapping(mapping PortMapping) string {
	result := fmt.Sprintf("%d:%d", mapping.HostPort, mapping.ContainerPort)
	if mapping.Protocol != "" && mapping.Protocol != PortProtocolTCP {
		result += "/" + string(mapping.Protocol)
	}
	return result
}

// ParsePortMapping parses a port mapping string in "hostPort:containerPort[/protocol]" format
// into a PortMapping struct. After parsing, the result is validated via PortMapping.Validate().
func ParsePortMapping(portStr string) (PortMapping, error) {
	mapping := PortMapping{}

	parts := strings.SplitN(portStr, ":", 2)
	if len(parts) != 2 {
		return mapping, fmt.Errorf("invalid port mapping format %q: must contain ':' separator", portStr)
	}

	hostPort, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("invalid host port %q: %w", parts[0], err)
	}
	mapping.HostPort = NetworkPort(hostPort)

	// Split container part on "/" to get port number and optional protocol
	containerParts := strings.SplitN(parts[1], "/", 2)
	containerPort, err := strconv.ParseUint(containerParts[0], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("invalid container port %q: %w", containerParts[0], err)
	}
	mapping.ContainerPort = NetworkPort(containerPort)

	if len(containerParts) == 2 {
		mapping.Protocol = PortProtocol(containerParts[1])
	}

	if err := mapping.Validate(); err != nil {
		return mapping, err
	}
	return mapping, nil
}
