package plugin

import (
	"context"
	"errors"

	"github.com/aretw0/lao/pkg/domain"
)

// ABIVersion is the version of the function table this host understands.
// A plugin reporting any other version is not loaded.
const ABIVersion uint32 = 1

var (
	// ErrABIMismatch is returned when a plugin's table version differs from ABIVersion.
	ErrABIMismatch = errors.New("plugin ABI version mismatch")
	// ErrContractViolation is returned when a plugin breaks the invocation contract,
	// e.g. Run returning neither an output nor an error.
	ErrContractViolation = errors.New("plugin contract violation")
	// ErrUseAfterRelease is returned when an Output is read after Release.
	ErrUseAfterRelease = errors.New("plugin output used after release")
	// ErrDoubleRelease is returned by a second Release of the same Output.
	ErrDoubleRelease = errors.New("plugin output released twice")
)

// Plugin is the contract every loadable unit implements.
type Plugin interface {
	// Name is the stable registry key and the value of a node's run field.
	Name() string

	// Metadata is static; callers may cache it.
	Metadata() domain.PluginDescriptor

	// Capabilities can be queried without materializing full metadata.
	Capabilities() []domain.Capability

	// Validate is a fast pre-flight check. It returns false for blank input,
	// and Run is never called for an input it rejects.
	Validate(input string) bool

	// Run performs one blocking request/response. The returned Output is owned
	// by the caller, who must Release it exactly once. Failures of the
	// underlying operation are reported as text inside the Output; a non-nil
	// error means the call itself could not be completed.
	Run(ctx context.Context, input string) (*Output, error)
}

// BufferedRunner is implemented by plugins that can write their result into a
// caller-owned buffer, avoiding the allocate/release round trip.
type BufferedRunner interface {
	// RunBuffered writes the output into buf and returns the bytes written.
	// Zero means unsupported (or the output does not fit); the caller then
	// falls back to Run.
	RunBuffered(ctx context.Context, input string, buf []byte) (int, error)
}
