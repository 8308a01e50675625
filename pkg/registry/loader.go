package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	goplugin "plugin"
	"runtime"
	"strings"

	"github.com/aretw0/lao/pkg/adapters/process"
	"github.com/aretw0/lao/pkg/plugin"
	"golang.org/x/sync/errgroup"
)

// VTableSymbol is the symbol a Go shared-object plugin must export.
const VTableSymbol = "PluginVTable"

// maxConcurrentHandshakes bounds how many plugin binaries are started at once
// while loading a directory.
const maxConcurrentHandshakes = 8

// candidate is one loadable unit found in the plugin directory.
type candidate struct {
	source string
	load   func(ctx context.Context) (plugin.Plugin, error)
}

type loaded struct {
	p   plugin.Plugin
	err error
}

// LoadAll builds a registry from the plugins in dir:
//   - *.so files are Go shared objects exporting PluginVTable;
//   - executable files speak the describe/validate/run process protocol;
//   - plugins.yaml lists command plugins (interpreters, scripts).
//
// Entries are visited in name order and the first plugin with a given name
// wins. Every failure is returned as a *PluginLoadError and never stops the
// load. A missing directory yields a registry holding only WithPlugins plugins.
func LoadAll(ctx context.Context, dir string, opts ...Option) (*Registry, []error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := newBuilder(o)
	for _, p := range o.builtins {
		b.add(p, "builtin")
	}

	cands, err := scan(dir, o)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			b.fail(dir, "", err)
		}
		return b.build(), b.errs
	}

	// Handshakes run concurrently; results are added in directory order so
	// the first-loaded rule does not depend on timing.
	results := make([]loaded, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentHandshakes)
	for i, c := range cands {
		g.Go(func() error {
			p, err := c.load(gctx)
			results[i] = loaded{p: p, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range cands {
		res := results[i]
		if res.err != nil {
			o.logger.Warn("Skipping plugin", "source", c.source, "err", res.err)
			b.fail(c.source, "", classify(res.err))
			continue
		}
		b.add(res.p, c.source)
	}

	reg := b.build()
	o.logger.Info("Plugins loaded", "dir", dir, "count", reg.Len(), "failed", len(b.errs))
	return reg, b.errs
}

func scan(dir string, o options) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var cands []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		switch {
		case name == process.ManifestFileName:
			manifest, err := process.LoadManifest(path)
			if err != nil {
				cands = append(cands, failed(path, err))
				continue
			}
			for _, cfg := range manifest {
				cands = append(cands, candidate{
					source: fmt.Sprintf("%s#%s", path, cfg.Name),
					load: func(ctx context.Context) (plugin.Plugin, error) {
						return process.Load(ctx, cfg, process.WithTimeout(o.handshakeTimeout))
					},
				})
			}

		case filepath.Ext(name) == ".so":
			cands = append(cands, candidate{
				source: path,
				load: func(context.Context) (plugin.Plugin, error) {
					return openShared(path)
				},
			})

		default:
			info, err := e.Info()
			if err != nil || !isExecutable(info) {
				continue
			}
			cands = append(cands, candidate{
				source: path,
				load: func(ctx context.Context) (plugin.Plugin, error) {
					return process.Load(ctx, process.ProcessConfig{Command: path}, process.WithTimeout(o.handshakeTimeout))
				},
			})
		}
	}
	return cands, nil
}

func failed(source string, err error) candidate {
	return candidate{source: source, load: func(context.Context) (plugin.Plugin, error) { return nil, err }}
}

// openShared opens a Go plugin and reads its function table. The table's
// version is checked by FromVTable before any other field is touched.
func openShared(path string) (plugin.Plugin, error) {
	so, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := so.Lookup(VTableSymbol)
	if err != nil {
		return nil, err
	}

	switch vt := sym.(type) {
	case *plugin.VTable:
		return plugin.FromVTable(vt)
	case **plugin.VTable:
		return plugin.FromVTable(*vt)
	default:
		return nil, fmt.Errorf("symbol %s has type %T, want *plugin.VTable", VTableSymbol, sym)
	}
}

func isExecutable(info fs.FileInfo) bool {
	if !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return strings.EqualFold(filepath.Ext(info.Name()), ".exe")
	}
	return info.Mode().Perm()&0o111 != 0
}

// classify keeps ABI mismatches recognizable and files everything else as a
// corrupt plugin.
func classify(err error) error {
	if errors.Is(err, plugin.ErrABIMismatch) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCorruptPlugin, err)
}
