package plugin

import "sync"

// Output is a result owned by the caller but allocated by a plugin. It always
// travels with the plugin's own release function, so memory is returned to the
// allocator that produced it and never to the caller's.
type Output struct {
	mu       sync.Mutex
	data     []byte
	release  func([]byte)
	released bool
}

// NewOutput pairs data with the function that frees it. release may be nil for
// outputs that need no explicit freeing.
func NewOutput(data []byte, release func([]byte)) *Output {
	return &Output{data: data, release: release}
}

// TextOutput is a convenience for plugins whose output is a Go string.
func TextOutput(text string) *Output {
	return NewOutput([]byte(text), nil)
}

// Text copies the output out as a string.
func (o *Output) Text() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return "", ErrUseAfterRelease
	}
	return string(o.data), nil
}

// Len is the output size in bytes, or 0 once released.
func (o *Output) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return 0
	}
	return len(o.data)
}

// Release hands the memory back to the plugin. Only the first call reaches
// the plugin; later calls return ErrDoubleRelease.
func (o *Output) Release() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return ErrDoubleRelease
	}
	o.released = true
	data := o.data
	o.data = nil
	if o.release != nil {
		o.release(data)
	}
	return nil
}

// Released reports whether Release was called.
func (o *Output) Released() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.released
}
