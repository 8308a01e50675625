package domain

import "errors"

// ErrRunInProgress is returned when a run is requested while another run of the
// same workflow instance is still active.
var ErrRunInProgress = errors.New("run already in progress")

// ErrWorkflowNotFound is returned when no completed run exists for a workflow id.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrPluginNotFound is returned when a node names a plugin the registry does not hold.
var ErrPluginNotFound = errors.New("plugin not found")
