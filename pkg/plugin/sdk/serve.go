package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/plugin"
)

// Subcommands of the process protocol.
const (
	CmdDescribe = "describe"
	CmdValidate = "validate"
	CmdRun      = "run"
)

// Exit codes of the process protocol.
const (
	ExitOK      = 0
	ExitInvalid = 1
	ExitFailure = 2
	ExitUsage   = 64
)

// Handshake is printed by "describe". ABIVersion is the first field and the
// host reads it before anything else.
type Handshake struct {
	ABIVersion uint32                  `json:"abi_version"`
	Metadata   domain.PluginDescriptor `json:"metadata"`
	Buffered   bool                    `json:"buffered,omitempty"`
}

// Serve runs p as a plugin executable and exits the process.
func Serve(p plugin.Plugin) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := ServeIO(ctx, p, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// ServeIO implements the protocol over explicit streams and returns the exit code.
func ServeIO(ctx context.Context, p plugin.Plugin, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(stderr, "usage: %s describe|validate|run\n", p.Name())
		return ExitUsage
	}

	switch args[0] {
	case CmdDescribe:
		meta := p.Metadata()
		if meta.Name == "" {
			meta.Name = p.Name()
		}
		if len(meta.Capabilities) == 0 {
			meta.Capabilities = p.Capabilities()
		}
		hs := Handshake{ABIVersion: plugin.ABIVersion, Metadata: meta, Buffered: meta.Buffered}
		if err := json.NewEncoder(stdout).Encode(hs); err != nil {
			fmt.Fprintf(stderr, "describe: %v\n", err)
			return ExitFailure
		}
		return ExitOK

	case CmdValidate:
		input, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "validate: %v\n", err)
			return ExitFailure
		}
		if !p.Validate(string(input)) {
			return ExitInvalid
		}
		return ExitOK

	case CmdRun:
		input, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "run: %v\n", err)
			return ExitFailure
		}
		out, err := p.Run(ctx, string(input))
		if err != nil {
			fmt.Fprintf(stderr, "run: %v\n", err)
			return ExitFailure
		}
		if out == nil {
			fmt.Fprintf(stderr, "run: %v\n", plugin.ErrContractViolation)
			return ExitFailure
		}
		text, err := out.Text()
		if releaseErr := out.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
		if err != nil {
			fmt.Fprintf(stderr, "run: %v\n", err)
			return ExitFailure
		}
		if _, err := io.WriteString(stdout, text); err != nil {
			fmt.Fprintf(stderr, "run: %v\n", err)
			return ExitFailure
		}
		return ExitOK
	}

	fmt.Fprintf(stderr, "unknown command %q\n", args[0])
	return ExitUsage
}
