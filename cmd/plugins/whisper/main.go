// Command whisper is a LAO plugin that transcribes an audio file with a
// whisper.cpp binary. The input is the path of the audio file.
//
// Environment:
//
//	WHISPER_BIN   whisper.cpp executable (default ./whisper.cpp)
//	WHISPER_MODEL model file passed with -m, if set
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/plugin"
	"github.com/aretw0/lao/pkg/plugin/sdk"
)

const defaultBinary = "./whisper.cpp"

type transcriber struct {
	binary string
	model  string
}

func (t *transcriber) args(audio string) []string {
	var args []string
	if t.model != "" {
		args = append(args, "-m", t.model)
	}
	return append(args, audio)
}

func (t *transcriber) transcribe(ctx context.Context, input string) (string, error) {
	audio := strings.TrimSpace(input)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, t.args(audio)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if _, ok := err.(*exec.ExitError); ok {
			return fmt.Sprintf("whisper.cpp failed: %s", strings.TrimSpace(stderr.String())), nil
		}
		return fmt.Sprintf("Failed to run whisper.cpp: %v", err), nil
	}
	return stdout.String(), nil
}

func newPlugin(t *transcriber) *plugin.Func {
	p := plugin.NewFunc("WhisperPlugin", t.transcribe)
	p.Descriptor = domain.PluginDescriptor{
		Name:        "WhisperPlugin",
		Version:     "1.0.0",
		Description: "Whisper speech-to-text plugin for LAO",
		Author:      "LAO Team",
		Tags:        []string{"audio", "speech", "transcription", "whisper"},
		Capabilities: []domain.Capability{{
			Name:        "speech-to-text",
			Description: "Convert speech to text using Whisper",
			InputType:   "Text",
			OutputType:  "Text",
		}},
	}
	// Any non-blank path is accepted; a missing file is reported by whisper.cpp.
	p.ValidateFn = func(string) bool { return true }
	return p
}

func main() {
	bin := os.Getenv("WHISPER_BIN")
	if bin == "" {
		bin = defaultBinary
	}
	sdk.Serve(newPlugin(&transcriber{binary: bin, model: os.Getenv("WHISPER_MODEL")}))
}
