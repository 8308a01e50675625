package plugin

import (
	"context"
	"fmt"

	"github.com/aretw0/lao/pkg/domain"
)

// VTable is the fixed-layout function table a plugin exports. Version comes
// first and is checked before any other field is read.
//
// Go shared objects export a package-level variable named PluginVTable of type
// *VTable; process plugins are adapted into the same shape by the host.
type VTable struct {
	Version uint32

	Name         func() string
	Metadata     func() domain.PluginDescriptor
	Capabilities func() []domain.Capability
	Validate     func(input string) bool
	Run          func(ctx context.Context, input string) ([]byte, error)
	Release      func(output []byte)

	// RunBuffered is optional.
	RunBuffered func(ctx context.Context, input string, buf []byte) (int, error)
}

// FromVTable wraps a function table into a Plugin.
func FromVTable(vt *VTable) (Plugin, error) {
	if vt == nil {
		return nil, fmt.Errorf("%w: nil function table", ErrContractViolation)
	}
	if vt.Version != ABIVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrABIMismatch, vt.Version, ABIVersion)
	}
	if vt.Name == nil || vt.Metadata == nil || vt.Validate == nil || vt.Run == nil || vt.Release == nil {
		return nil, fmt.Errorf("%w: function table is missing mandatory entries", ErrContractViolation)
	}

	name := vt.Name()
	if name == "" {
		return nil, fmt.Errorf("%w: empty plugin name", ErrContractViolation)
	}
	meta := vt.Metadata()
	if meta.Name == "" {
		meta.Name = name
	}
	meta.Buffered = vt.RunBuffered != nil
	meta.NormalizeTags()

	t := &tablePlugin{vt: vt, name: name, meta: meta}
	if vt.RunBuffered != nil {
		return &bufferedTablePlugin{tablePlugin: t}, nil
	}
	return t, nil
}

type tablePlugin struct {
	vt   *VTable
	name string
	meta domain.PluginDescriptor
}

func (p *tablePlugin) Name() string                      { return p.name }
func (p *tablePlugin) Metadata() domain.PluginDescriptor { return p.meta }

func (p *tablePlugin) Capabilities() []domain.Capability {
	if p.vt.Capabilities != nil {
		return p.vt.Capabilities()
	}
	return p.meta.Capabilities
}

func (p *tablePlugin) Validate(input string) bool {
	if IsBlank(input) {
		return false
	}
	return p.vt.Validate(input)
}

func (p *tablePlugin) Run(ctx context.Context, input string) (*Output, error) {
	data, err := p.vt.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s returned no output", ErrContractViolation, p.name)
	}
	return NewOutput(data, p.vt.Release), nil
}

type bufferedTablePlugin struct {
	*tablePlugin
}

func (p *bufferedTablePlugin) RunBuffered(ctx context.Context, input string, buf []byte) (int, error) {
	n, err := p.vt.RunBuffered(ctx, input, buf)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > len(buf) {
		return 0, fmt.Errorf("%w: %s wrote %d bytes into a %d byte buffer", ErrContractViolation, p.name, n, len(buf))
	}
	return n, nil
}
