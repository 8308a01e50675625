package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/lao/pkg/domain"
)

func TestStyle_PlainWhenDisabled(t *testing.T) {
	st := NewStyle(false)
	if got := st.Status(domain.StatusError, "✗ ERROR"); got != "✗ ERROR" {
		t.Errorf("expected plain text, got %q", got)
	}
	if got := st.Bold("x"); got != "x" {
		t.Errorf("expected plain text, got %q", got)
	}
}

func TestStyle_UnknownStatusUnchanged(t *testing.T) {
	st := NewStyle(true)
	if got := st.Status(domain.Status("weird"), "x"); got != "x" {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	if !strings.Contains(buf.String(), "local plugin workflows") {
		t.Errorf("banner missing tagline:\n%s", buf.String())
	}
}
