package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/plugin"
)

// DefaultBufferSize is the size of the caller-owned buffer offered to plugins
// that support the buffered run path.
const DefaultBufferSize = 4 * 1024

// Handle is a loaded plugin together with its cached descriptor.
// Handles are created by the registry and never mutated afterwards.
type Handle struct {
	p        plugin.Plugin
	desc     domain.PluginDescriptor
	buffered plugin.BufferedRunner
	bufs     *sync.Pool
}

// Name returns the plugin name.
func (h *Handle) Name() string { return h.desc.Name }

// Descriptor returns the metadata read at load time.
func (h *Handle) Descriptor() domain.PluginDescriptor { return h.desc }

// Plugin returns the underlying plugin.
func (h *Handle) Plugin() plugin.Plugin { return h.p }

// Registry maps plugin names to handles. It is built once and is read-only
// afterwards, so it can be shared by concurrent workers without locking.
type Registry struct {
	handles map[string]*Handle
	names   []string
}

// New builds a registry from in-process plugins. Duplicate names keep the
// first plugin and are reported in the returned errors.
func New(plugins ...plugin.Plugin) (*Registry, []error) {
	b := newBuilder(defaultOptions())
	for _, p := range plugins {
		b.add(p, "builtin")
	}
	return b.build(), b.errs
}

// MustNew is like New but panics on any load error.
func MustNew(plugins ...plugin.Plugin) *Registry {
	r, errs := New(plugins...)
	if len(errs) > 0 {
		panic(errs[0])
	}
	return r
}

// Get returns the handle registered under name.
func (r *Registry) Get(name string) (*Handle, bool) {
	h, ok := r.handles[name]
	return h, ok
}

// List returns the descriptors of every loaded plugin, sorted by name.
func (r *Registry) List() []domain.PluginDescriptor {
	out := make([]domain.PluginDescriptor, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.handles[name].desc)
	}
	return out
}

// Len returns the number of loaded plugins.
func (r *Registry) Len() int { return len(r.names) }

// Invoke runs the validate -> (buffered | allocating) run -> release protocol
// and returns the output text. Every failure is an *ExecutionError.
func (r *Registry) Invoke(ctx context.Context, h *Handle, input string) (string, error) {
	if err := r.Admit(h, input); err != nil {
		return "", err
	}
	return r.Call(ctx, h, input)
}

// Admit checks the handle and asks the plugin to validate input. It returns an
// *ExecutionError wrapping ErrInvalidHandle or ErrInputRejected.
func (r *Registry) Admit(h *Handle, input string) error {
	if err := r.check(h); err != nil {
		return err
	}
	if !h.p.Validate(input) {
		return &ExecutionError{Plugin: h.desc.Name, Err: ErrInputRejected}
	}
	return nil
}

// Call runs an input Admit accepted, without validating it again.
func (r *Registry) Call(ctx context.Context, h *Handle, input string) (string, error) {
	if err := r.check(h); err != nil {
		return "", err
	}

	if h.buffered != nil {
		text, ok, err := h.runBuffered(ctx, input)
		if err != nil {
			return "", &ExecutionError{Plugin: h.desc.Name, Err: err}
		}
		if ok {
			return text, nil
		}
	}

	out, err := h.p.Run(ctx, input)
	if err != nil {
		return "", &ExecutionError{Plugin: h.desc.Name, Err: err}
	}
	if out == nil {
		return "", &ExecutionError{Plugin: h.desc.Name, Err: fmt.Errorf("%w: run returned no output", plugin.ErrContractViolation)}
	}

	text, readErr := out.Text()
	if err := out.Release(); err != nil {
		return "", &ExecutionError{Plugin: h.desc.Name, Err: err}
	}
	if readErr != nil {
		return "", &ExecutionError{Plugin: h.desc.Name, Err: readErr}
	}
	return text, nil
}

func (r *Registry) check(h *Handle) error {
	if h == nil || h.p == nil {
		return &ExecutionError{Err: ErrInvalidHandle}
	}
	if own, ok := r.handles[h.desc.Name]; !ok || own != h {
		return &ExecutionError{Plugin: h.desc.Name, Err: ErrInvalidHandle}
	}
	return nil
}

func (h *Handle) runBuffered(ctx context.Context, input string) (string, bool, error) {
	bp := h.bufs.Get().(*[]byte)
	defer h.bufs.Put(bp)

	buf := *bp
	n, err := h.buffered.RunBuffered(ctx, input, buf)
	if err != nil {
		return "", false, err
	}
	if n <= 0 {
		return "", false, nil
	}
	if n > len(buf) {
		return "", false, fmt.Errorf("%w: wrote %d bytes into a %d byte buffer", plugin.ErrContractViolation, n, len(buf))
	}
	return string(buf[:n]), true, nil
}

// builder accumulates handles during a load. It is the only code that writes
// to a registry's maps.
type builder struct {
	opts    options
	handles map[string]*Handle
	errs    []error
}

func newBuilder(opts options) *builder {
	return &builder{opts: opts, handles: make(map[string]*Handle)}
}

func (b *builder) add(p plugin.Plugin, source string) {
	desc := p.Metadata()
	name := p.Name()
	desc.Name = name
	if desc.Source == "" {
		desc.Source = source
	}
	if len(desc.Capabilities) == 0 {
		desc.Capabilities = p.Capabilities()
	}
	desc.NormalizeTags()

	if prev, ok := b.handles[name]; ok {
		b.opts.logger.Warn("Duplicate plugin name, keeping first",
			"plugin", name, "kept", prev.desc.Source, "skipped", source)
		b.fail(source, name, ErrDuplicatePlugin)
		return
	}

	size := b.opts.bufferSize
	h := &Handle{p: p, desc: desc}
	if br, ok := p.(plugin.BufferedRunner); ok {
		h.buffered = br
		h.desc.Buffered = true
		h.bufs = &sync.Pool{New: func() any {
			buf := make([]byte, size)
			return &buf
		}}
	}
	b.handles[name] = h
	b.opts.logger.Debug("Plugin loaded", "plugin", name, "version", desc.Version, "source", desc.Source)
}

func (b *builder) fail(source, name string, err error) {
	b.errs = append(b.errs, &PluginLoadError{Source: source, Name: name, Err: err})
}

func (b *builder) build() *Registry {
	names := make([]string, 0, len(b.handles))
	for name := range b.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{handles: b.handles, names: names}
}
