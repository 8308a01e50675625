package main

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeWhisper(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "whisper.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestTranscribe(t *testing.T) {
	bin := fakeWhisper(t, `echo "transcript of $3 with $2"`)
	tr := &transcriber{binary: bin, model: "base.en"}

	text, err := tr.transcribe(context.Background(), " talk.wav\n")
	require.NoError(t, err)
	assert.Equal(t, "transcript of talk.wav with base.en\n", text)
}

func TestTranscribe_FailureIsOutputText(t *testing.T) {
	bin := fakeWhisper(t, `echo "no such file" >&2; exit 3`)
	tr := &transcriber{binary: bin}

	text, err := tr.transcribe(context.Background(), "missing.wav")
	require.NoError(t, err)
	assert.Equal(t, "whisper.cpp failed: no such file", text)
}

func TestTranscribe_MissingBinary(t *testing.T) {
	tr := &transcriber{binary: filepath.Join(t.TempDir(), "nope")}

	text, err := tr.transcribe(context.Background(), "a.wav")
	require.NoError(t, err)
	assert.Contains(t, text, "Failed to run whisper.cpp")
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"a.wav"}, (&transcriber{}).args("a.wav"))
	assert.Equal(t, []string{"-m", "m.bin", "a.wav"}, (&transcriber{model: "m.bin"}).args("a.wav"))
}

func TestPluginMetadata(t *testing.T) {
	p := newPlugin(&transcriber{})
	assert.Equal(t, "WhisperPlugin", p.Name())
	assert.True(t, p.Metadata().HasTag("speech"))
	assert.False(t, p.Validate(""))
	assert.True(t, p.Validate("clip.wav"))
}
