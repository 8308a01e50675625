package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/lao/pkg/plugin/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "short"})
	}))
	defer srv.Close()

	p := newPlugin(&summarizer{host: srv.URL + "/", model: "tiny", client: srv.Client()})
	out, err := p.Run(context.Background(), "a long text")
	require.NoError(t, err)
	text, err := out.Text()
	require.NoError(t, err)
	require.NoError(t, out.Release())

	assert.Equal(t, "short", text)
	assert.Equal(t, "tiny", got.Model)
	assert.False(t, got.Stream)
	assert.True(t, strings.HasSuffix(got.Prompt, "a long text"))
}

func TestSummarize_ServerErrorIsOutputText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(generateResponse{Error: "model not found"})
	}))
	defer srv.Close()

	s := &summarizer{host: srv.URL, model: "missing", client: srv.Client()}
	text, err := s.summarize(context.Background(), "x")
	require.NoError(t, err)
	assert.Contains(t, text, "Summarizer error")
	assert.Contains(t, text, "model not found")
}

func TestDescribe(t *testing.T) {
	var stdout, stderr bytes.Buffer
	p := newPlugin(&summarizer{})
	code := sdk.ServeIO(context.Background(), p, []string{sdk.CmdDescribe}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, sdk.ExitOK, code, stderr.String())

	var hs sdk.Handshake
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &hs))
	assert.Equal(t, "SummarizerPlugin", hs.Metadata.Name)
	assert.Equal(t, "summarize", hs.Metadata.Capabilities[0].Name)
}

func TestValidateRejectsBlank(t *testing.T) {
	p := newPlugin(&summarizer{})
	assert.False(t, p.Validate("  \n"))
	assert.True(t, p.Validate("text"))
}
