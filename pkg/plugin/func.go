package plugin

import (
	"context"

	"github.com/aretw0/lao/pkg/domain"
)

// RunFunc is the body of an in-process plugin.
type RunFunc func(ctx context.Context, input string) (string, error)

// Func is an in-process plugin built from a descriptor and a function.
// It is how builtin plugins and tests provide plugins without a binary.
type Func struct {
	Descriptor domain.PluginDescriptor
	Fn         RunFunc

	// ValidateFn overrides ValidText when set. Blank input is always rejected.
	ValidateFn func(input string) bool
}

// NewFunc creates an in-process plugin named name.
func NewFunc(name string, fn RunFunc) *Func {
	return &Func{
		Descriptor: domain.PluginDescriptor{Name: name, Version: "0.0.0", Source: "builtin"},
		Fn:         fn,
	}
}

func (f *Func) Name() string { return f.Descriptor.Name }

func (f *Func) Metadata() domain.PluginDescriptor { return f.Descriptor }

func (f *Func) Capabilities() []domain.Capability { return f.Descriptor.Capabilities }

func (f *Func) Validate(input string) bool {
	if IsBlank(input) {
		return false
	}
	if f.ValidateFn != nil {
		return f.ValidateFn(input)
	}
	return CheckText(input) == nil
}

func (f *Func) Run(ctx context.Context, input string) (*Output, error) {
	text, err := f.Fn(ctx, input)
	if err != nil {
		return nil, err
	}
	return TextOutput(text), nil
}
