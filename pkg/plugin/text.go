package plugin

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds the text handed to a plugin (1 MiB).
	DefaultMaxInputSize = 1 << 20
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "LAO_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrNullByte      = errors.New("input contains NUL bytes")
)

// CheckText enforces the wire rules for text crossing the plugin boundary:
// bounded size, valid UTF-8 and no NUL bytes.
func CheckText(input string) error {
	limit := maxInputSize()
	if len(input) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return ErrInvalidUTF8
	}
	if strings.IndexByte(input, 0) >= 0 {
		return ErrNullByte
	}
	return nil
}

// IsBlank reports whether input is empty or whitespace only.
func IsBlank(input string) bool {
	return strings.TrimSpace(input) == ""
}

// ValidText is the default Validate implementation: non-blank and CheckText-clean.
func ValidText(input string) bool {
	return !IsBlank(input) && CheckText(input) == nil
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
