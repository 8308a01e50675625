package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/plugin"
	"github.com/aretw0/lao/pkg/plugin/sdk"
	"github.com/mitchellh/mapstructure"
)

// ErrHandshake is returned when a binary does not answer "describe" with a
// well-formed handshake.
var ErrHandshake = errors.New("invalid plugin handshake")

// DefaultHandshakeTimeout bounds "describe" and "validate" calls.
const DefaultHandshakeTimeout = 5 * time.Second

// Plugin is a plugin implemented by an external executable speaking the
// describe/validate/run protocol over stdin and stdout.
type Plugin struct {
	cfg     ProcessConfig
	desc    domain.PluginDescriptor
	timeout time.Duration

	// pool is this plugin's allocator: every Output it returns is backed by a
	// buffer from here, and releasing the Output puts the buffer back.
	pool sync.Pool
}

// Option configures a process plugin.
type Option func(*Plugin)

// WithTimeout bounds the describe and validate calls.
func WithTimeout(d time.Duration) Option {
	return func(p *Plugin) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// Load starts the executable once with "describe", checks the ABI version and
// returns the plugin. The result implements plugin.BufferedRunner when the
// handshake advertises it.
func Load(ctx context.Context, cfg ProcessConfig, opts ...Option) (plugin.Plugin, error) {
	p := &Plugin{
		cfg:     cfg,
		timeout: DefaultHandshakeTimeout,
	}
	p.pool.New = func() any { return new(bytes.Buffer) }
	for _, opt := range opts {
		opt(p)
	}

	desc, buffered, err := p.handshake(ctx)
	if err != nil {
		return nil, err
	}
	p.desc = desc
	p.desc.Buffered = buffered

	if buffered {
		return &bufferedPlugin{Plugin: p}, nil
	}
	return p, nil
}

func (p *Plugin) handshake(ctx context.Context) (domain.PluginDescriptor, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := p.command(ctx, sdk.CmdDescribe)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return domain.PluginDescriptor{}, false, fmt.Errorf("%w: describe failed: %v. Stderr: %s", ErrHandshake, err, strings.TrimSpace(stderr.String()))
	}

	var raw map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return domain.PluginDescriptor{}, false, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	// The version precedes everything else; nothing is decoded from a table
	// whose version we do not understand.
	version, ok := raw["abi_version"].(float64)
	if !ok {
		return domain.PluginDescriptor{}, false, fmt.Errorf("%w: missing abi_version", ErrHandshake)
	}
	if version != float64(plugin.ABIVersion) {
		return domain.PluginDescriptor{}, false, fmt.Errorf("%w: got %v, want %d", plugin.ErrABIMismatch, version, plugin.ABIVersion)
	}

	var desc domain.PluginDescriptor
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &desc,
	})
	if err != nil {
		return domain.PluginDescriptor{}, false, err
	}
	if err := decoder.Decode(raw["metadata"]); err != nil {
		return domain.PluginDescriptor{}, false, fmt.Errorf("%w: metadata: %v", ErrHandshake, err)
	}

	if desc.Name == "" {
		desc.Name = p.cfg.Name
	}
	if desc.Name == "" {
		desc.Name = strings.TrimSuffix(filepath.Base(p.cfg.Command), filepath.Ext(p.cfg.Command))
	}
	if desc.Description == "" {
		desc.Description = p.cfg.Description
	}
	desc.Source = p.cfg.Command
	desc.NormalizeTags()

	buffered, _ := raw["buffered"].(bool)
	return desc, buffered, nil
}

func (p *Plugin) command(ctx context.Context, sub string) *exec.Cmd {
	args := append(append([]string{}, p.cfg.Args...), sub)
	cmd := exec.CommandContext(ctx, p.cfg.Command, args...)
	cmd.Dir = p.cfg.Dir

	env := []string{"LAO_PLUGIN_NAME=" + p.desc.Name}
	for k, v := range p.cfg.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Environ(), env...)
	return cmd
}

func (p *Plugin) Name() string { return p.desc.Name }

func (p *Plugin) Metadata() domain.PluginDescriptor { return p.desc }

func (p *Plugin) Capabilities() []domain.Capability { return p.desc.Capabilities }

// Validate rejects blank or malformed text locally and asks the executable
// about everything else.
func (p *Plugin) Validate(input string) bool {
	if plugin.IsBlank(input) || plugin.CheckText(input) != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	cmd := p.command(ctx, sdk.CmdValidate)
	cmd.Stdin = strings.NewReader(input)
	return cmd.Run() == nil
}

// Run executes the plugin once. A non-zero exit is an invocation failure;
// error text the plugin prints with exit 0 is a regular output.
func (p *Plugin) Run(ctx context.Context, input string) (*plugin.Output, error) {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()

	var stderr bytes.Buffer
	cmd := p.command(ctx, sdk.CmdRun)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = buf
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.pool.Put(buf)
		return nil, fmt.Errorf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	return plugin.NewOutput(buf.Bytes(), func([]byte) {
		p.pool.Put(buf)
	}), nil
}

type bufferedPlugin struct {
	*Plugin

	mu sync.Mutex
	// spilled holds outputs that overflowed a caller buffer, keyed by input,
	// until the following Run hands them out.
	spilled map[string][]*bytes.Buffer
}

// RunBuffered streams stdout straight into buf. When the output does not fit
// the whole output is kept in a pooled buffer and 0 is returned; the Run the
// caller falls back to returns that buffer instead of executing the plugin again.
func (p *bufferedPlugin) RunBuffered(ctx context.Context, input string, buf []byte) (int, error) {
	w := &fixedWriter{buf: buf, pool: &p.pool}

	var stderr bytes.Buffer
	cmd := p.command(ctx, sdk.CmdRun)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if w.spill != nil {
			p.pool.Put(w.spill)
		}
		return 0, fmt.Errorf("execution failed: %v. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	if w.spill != nil {
		p.stash(input, w.spill)
		return 0, nil
	}
	return w.n, nil
}

// Run returns an output spilled by RunBuffered for the same input, if any,
// and otherwise executes the plugin.
func (p *bufferedPlugin) Run(ctx context.Context, input string) (*plugin.Output, error) {
	if spill := p.take(input); spill != nil {
		return plugin.NewOutput(spill.Bytes(), func([]byte) {
			p.pool.Put(spill)
		}), nil
	}
	return p.Plugin.Run(ctx, input)
}

func (p *bufferedPlugin) stash(input string, b *bytes.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spilled == nil {
		p.spilled = make(map[string][]*bytes.Buffer)
	}
	p.spilled[input] = append(p.spilled[input], b)
}

func (p *bufferedPlugin) take(input string) *bytes.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	queue := p.spilled[input]
	if len(queue) == 0 {
		return nil
	}
	b := queue[0]
	if len(queue) == 1 {
		delete(p.spilled, input)
	} else {
		p.spilled[input] = queue[1:]
	}
	return b
}

// fixedWriter fills a caller-owned buffer. Once more bytes arrive than fit,
// everything written so far moves to a spill buffer taken from pool.
type fixedWriter struct {
	buf   []byte
	n     int
	pool  *sync.Pool
	spill *bytes.Buffer
}

func (w *fixedWriter) Write(b []byte) (int, error) {
	if w.spill == nil && w.n+len(b) <= len(w.buf) {
		w.n += copy(w.buf[w.n:], b)
		return len(b), nil
	}
	if w.spill == nil {
		w.spill = w.pool.Get().(*bytes.Buffer)
		w.spill.Reset()
		w.spill.Write(w.buf[:w.n])
	}
	return w.spill.Write(b)
}
