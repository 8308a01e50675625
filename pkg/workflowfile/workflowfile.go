// Package workflowfile reads and writes workflow graphs as YAML or JSON files.
package workflowfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lao/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is a workflow file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for file extensions other than .yaml, .yml and .json.
var ErrUnknownFormat = errors.New("unknown workflow file format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Load reads the workflow at path. The graph is not validated.
// Nodes without a status are pending.
func Load(path string) (*domain.WorkflowGraph, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}
	g, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if g.Name == "" {
		g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return g, nil
}

// Parse decodes a workflow. Unknown fields are rejected so typos surface early.
func Parse(data []byte, format Format) (*domain.WorkflowGraph, error) {
	var g domain.WorkflowGraph
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&g); err != nil {
			return nil, fmt.Errorf("failed to parse workflow: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse workflow: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Status == "" {
			n.Status = domain.StatusPending
		}
		if !n.Status.Valid() {
			return nil, fmt.Errorf("node %q: invalid status %q", n.ID, n.Status)
		}
	}
	return &g, nil
}

// Marshal encodes g, run results included.
func Marshal(g *domain.WorkflowGraph, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(g, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Save writes g to path in the format of its extension.
func Save(path string, g *domain.WorkflowGraph) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Marshal(g, format)
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
