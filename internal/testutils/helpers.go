package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ShoutScript is a process plugin that upper-cases its input. It rejects the
// literal input "bad" in validate.
const ShoutScript = `#!/bin/sh
case "$1" in
  describe)
    echo '{"abi_version":1,"metadata":{"name":"Shout","version":"1.0.0","author":"LAO Team","tags":["text","case"],"capabilities":[{"name":"shout","description":"Upper-case text","input_type":"Text","output_type":"Text"}]}}'
    ;;
  validate)
    input=$(cat)
    [ "$input" != "bad" ]
    ;;
  run)
    tr 'a-z' 'A-Z'
    ;;
  *)
    exit 64
    ;;
esac
`

// BufferedEchoScript echoes its input and advertises the buffered path.
const BufferedEchoScript = `#!/bin/sh
case "$1" in
  describe)
    echo '{"abi_version":1,"buffered":true,"metadata":{"name":"Echo","version":"0.1.0"}}'
    ;;
  validate)
    exit 0
    ;;
  run)
    cat
    ;;
esac
`

// LargeOutputScript advertises the buffered path, prints 10000 bytes on run
// and appends one line to "<script>.runs" per run.
const LargeOutputScript = `#!/bin/sh
case "$1" in
  describe)
    echo '{"abi_version":1,"buffered":true,"metadata":{"name":"Large","version":"0.1.0"}}'
    ;;
  validate)
    exit 0
    ;;
  run)
    echo run >> "$0.runs"
    head -c 10000 /dev/zero | tr '\0' 'x'
    ;;
esac
`

// CountLines returns the number of lines in path, or 0 if it does not exist.
func CountLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

// FutureABIScript reports an ABI version the host does not understand.
const FutureABIScript = `#!/bin/sh
case "$1" in
  describe)
    echo '{"abi_version":99,"metadata":{"name":"FromTheFuture"}}'
    ;;
esac
`

// BrokenScript exits non-zero for every command.
const BrokenScript = `#!/bin/sh
echo "boom" >&2
exit 3
`

// SkipOnWindows skips tests that rely on POSIX shell fixtures.
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process plugin fixtures are POSIX shell scripts")
	}
}

// WriteScript writes an executable script into dir and returns its path.
// It fails the test immediately on error.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755), "Failed to write script %s", name)
	return path
}
