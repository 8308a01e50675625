package domain

// Status is the lifecycle position of a single node within a run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	// StatusCache marks a node whose output was reused from an identical
	// (plugin, input) pair executed earlier in the same run.
	StatusCache Status = "cache"
)

// Terminal reports whether no further transition can follow s.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusError, StatusCache:
		return true
	}
	return false
}

// Succeeded reports whether s carries a usable output.
func (s Status) Succeeded() bool {
	return s == StatusSuccess || s == StatusCache
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSuccess, StatusError, StatusCache:
		return true
	}
	return false
}
