// Package prompt holds the prompt templates used by the summarization pipeline.
//
// Templates are plain strings with a single substitution point, {text}. A
// built-in set is embedded in the binary; a YAML file can replace any of them.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"ai-notebook/internal/domain/entity"
)

// Placeholder is replaced by the input text when a template is rendered.
const Placeholder = "{text}"

// Extraction modes shipped with the built-in set.
const (
	ModeKnowledgeGraph = "knowledge_graph"
	ModeMindMap        = "mind_map"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Set is a complete collection of templates.
type Set struct {
	// Extraction maps a mode name to the per-chunk template.
	Extraction map[string]string `yaml:"extraction"`
	// Merge combines several partial results into one.
	Merge string `yaml:"merge"`
	// FinalSummary condenses a merged result.
	FinalSummary string `yaml:"final_summary"`
}

// Default returns the built-in templates.
func Default() *Set {
	var s Set
	if err := yaml.Unmarshal(defaultsYAML, &s); err != nil {
		panic(fmt.Sprintf("prompt: embedded defaults are invalid: %v", err))
	}
	return &s
}

// LoadFile reads a YAML override file and layers it over the built-in set.
// Only keys present in the file are replaced. An empty path returns the defaults.
func LoadFile(path string) (*Set, error) {
	set := Default()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file %s: %w", path, err)
	}

	var override Set
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("unmarshal prompt file %s: %w", path, err)
	}

	for mode, tmpl := range override.Extraction {
		set.Extraction[mode] = tmpl
	}
	if override.Merge != "" {
		set.Merge = override.Merge
	}
	if override.FinalSummary != "" {
		set.FinalSummary = override.FinalSummary
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("prompt file %s: %w", path, err)
	}
	return set, nil
}

// Validate checks that every template carries the placeholder.
func (s *Set) Validate() error {
	if len(s.Extraction) == 0 {
		return &entity.ValidationError{Field: "extraction", Message: "at least one mode is required"}
	}
	for mode, tmpl := range s.Extraction {
		if !strings.Contains(tmpl, Placeholder) {
			return &entity.ValidationError{Field: "extraction." + mode, Message: "template must contain " + Placeholder}
		}
	}
	if !strings.Contains(s.Merge, Placeholder) {
		return &entity.ValidationError{Field: "merge", Message: "template must contain " + Placeholder}
	}
	if !strings.Contains(s.FinalSummary, Placeholder) {
		return &entity.ValidationError{Field: "final_summary", Message: "template must contain " + Placeholder}
	}
	return nil
}

// ExtractionFor returns the template registered for mode.
func (s *Set) ExtractionFor(mode string) (string, error) {
	tmpl, ok := s.Extraction[mode]
	if !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", entity.ErrUnknownMode, mode, strings.Join(s.Modes(), ", "))
	}
	return tmpl, nil
}

// Modes lists the registered extraction modes in sorted order.
func (s *Set) Modes() []string {
	modes := make([]string, 0, len(s.Extraction))
	for mode := range s.Extraction {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// Render substitutes text for every placeholder in tmpl.
func Render(tmpl, text string) string {
	return strings.ReplaceAll(tmpl, Placeholder, text)
}
