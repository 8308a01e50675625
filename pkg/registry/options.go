package registry

import (
	"log/slog"
	"time"

	"github.com/aretw0/lao/internal/logging"
	"github.com/aretw0/lao/pkg/adapters/process"
	"github.com/aretw0/lao/pkg/plugin"
)

type options struct {
	logger           *slog.Logger
	bufferSize       int
	handshakeTimeout time.Duration
	builtins         []plugin.Plugin
}

func defaultOptions() options {
	return options{
		logger:           logging.NewNop(),
		bufferSize:       DefaultBufferSize,
		handshakeTimeout: process.DefaultHandshakeTimeout,
	}
}

// Option configures LoadAll.
type Option func(*options)

// WithLogger sets the logger used for load warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBufferSize sets the buffer offered to plugins with a buffered run path.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithHandshakeTimeout bounds each process plugin's describe call.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}

// WithPlugins registers in-process plugins ahead of anything found on disk,
// so they win name collisions.
func WithPlugins(plugins ...plugin.Plugin) Option {
	return func(o *options) {
		o.builtins = append(o.builtins, plugins...)
	}
}
