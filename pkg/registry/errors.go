package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptPlugin is returned when a file in the plugin directory cannot be
	// opened or does not export a usable function table.
	ErrCorruptPlugin = errors.New("corrupt plugin")
	// ErrDuplicatePlugin is returned for every plugin whose name is already taken.
	ErrDuplicatePlugin = errors.New("duplicate plugin name")
	// ErrInvalidHandle is returned by Invoke for a nil or foreign handle.
	ErrInvalidHandle = errors.New("invalid plugin handle")
	// ErrInputRejected is returned by Invoke when the plugin's Validate refuses the input.
	ErrInputRejected = errors.New("input rejected by plugin")
)

// PluginLoadError reports one plugin that could not be added to the registry.
// It is never fatal to LoadAll.
type PluginLoadError struct {
	Source string
	Name   string
	Err    error
}

func (e *PluginLoadError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("failed to load plugin %q from %s: %v", e.Name, e.Source, e.Err)
	}
	return fmt.Sprintf("failed to load plugin from %s: %v", e.Source, e.Err)
}

func (e *PluginLoadError) Unwrap() error { return e.Err }

// ExecutionError means an invocation could not be completed at the host level.
// Error text a plugin returns as its output is not an ExecutionError.
type ExecutionError struct {
	Plugin string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("plugin %q: %v", e.Plugin, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
