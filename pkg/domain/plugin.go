package domain

import "sort"

// Capability describes one operation a plugin offers.
type Capability struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`
	InputType   string `json:"input_type" yaml:"input_type" mapstructure:"input_type"`
	OutputType  string `json:"output_type" yaml:"output_type" mapstructure:"output_type"`
}

// PluginDescriptor is the static metadata of a loaded plugin.
// It is owned by the registry and never mutated after load.
type PluginDescriptor struct {
	Name         string       `json:"name" yaml:"name" mapstructure:"name"`
	Version      string       `json:"version" yaml:"version" mapstructure:"version"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Author       string       `json:"author,omitempty" yaml:"author,omitempty" mapstructure:"author"`
	Tags         []string     `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`
	Dependencies []string     `json:"dependencies,omitempty" yaml:"dependencies,omitempty" mapstructure:"dependencies"`
	Capabilities []Capability `json:"capabilities,omitempty" yaml:"capabilities,omitempty" mapstructure:"capabilities"`
	InputSchema  string       `json:"input_schema,omitempty" yaml:"input_schema,omitempty" mapstructure:"input_schema"`
	OutputSchema string       `json:"output_schema,omitempty" yaml:"output_schema,omitempty" mapstructure:"output_schema"`

	// Buffered is true when the plugin implements the caller-buffer run path.
	Buffered bool `json:"buffered,omitempty" yaml:"buffered,omitempty" mapstructure:"buffered"`

	// Source is where the plugin was loaded from (path, "builtin", ...).
	Source string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"-"`
}

// NormalizeTags turns Tags into a sorted set.
func (d *PluginDescriptor) NormalizeTags() {
	if len(d.Tags) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(d.Tags))
	tags := d.Tags[:0:0]
	for _, t := range d.Tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	sort.Strings(tags)
	d.Tags = tags
}

// HasTag reports whether tag is in the descriptor's tag set.
func (d PluginDescriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
