// Command summarizer is a LAO plugin that summarizes text with a local
// Ollama model.
//
// Environment:
//
//	OLLAMA_HOST      base URL of the Ollama API (default http://localhost:11434)
//	SUMMARIZER_MODEL model name (default mistral)
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/plugin"
	"github.com/aretw0/lao/pkg/plugin/sdk"
)

const (
	defaultHost  = "http://localhost:11434"
	defaultModel = "mistral"
)

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type summarizer struct {
	host   string
	model  string
	client *http.Client
}

func (s *summarizer) summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  s.model,
		Prompt: "Summarize this:\n\n" + text,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.host, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Summarizer error: %v", err), nil
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Sprintf("Summarizer error: %s: %v", resp.Status, err), nil
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return fmt.Sprintf("Summarizer error: %s: %s", resp.Status, out.Error), nil
	}
	return out.Response, nil
}

func newPlugin(s *summarizer) *plugin.Func {
	p := plugin.NewFunc("SummarizerPlugin", s.summarize)
	p.Descriptor = domain.PluginDescriptor{
		Name:        "SummarizerPlugin",
		Version:     "1.0.0",
		Description: "Text summarization plugin for LAO",
		Author:      "LAO Team",
		Tags:        []string{"ai", "summarization", "text"},
		Capabilities: []domain.Capability{{
			Name:        "summarize",
			Description: "Summarize text using AI models",
			InputType:   "Text",
			OutputType:  "Text",
		}},
	}
	return p
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	sdk.Serve(newPlugin(&summarizer{
		host:   getenv("OLLAMA_HOST", defaultHost),
		model:  getenv("SUMMARIZER_MODEL", defaultModel),
		client: &http.Client{Timeout: 5 * time.Minute},
	}))
}
