package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TrainingSpec represents the parts of a training configuration the
// supervisor looks at. The engine remains the authority on its content.
type TrainingSpec struct {
	AssistantID string             `yaml:"assistant_id"`
	Language    string             `yaml:"language"`
	Recipe      string             `yaml:"recipe"`
	Pipeline    []TrainingSpecStep `yaml:"pipeline"`
	Policies    []TrainingSpecStep `yaml:"policies"`
	Intents     []yaml.Node        `yaml:"intents"`
	NLU         []yaml.Node        `yaml:"nlu"`
	Stories     []yaml.Node        `yaml:"stories"`
	Rules       []yaml.Node        `yaml:"rules"`
}

// TrainingSpecStep represents one pipeline component or policy
type TrainingSpecStep struct {
	Name string `yaml:"name"`
}

// Summary is a log-friendly digest of a training configuration
type Summary struct {
	AssistantID string
	Language    string
	Components  []string
	Policies    []string
	Intents     int
	NLUBlocks   int
	Stories     int
	Rules       int
}

// ParseTrainingSpec parses a YAML training configuration
func ParseTrainingSpec(content []byte) (*TrainingSpec, error) {
	var spec TrainingSpec
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &spec, nil
}

// Summarize returns the digest of the specification
func (s *TrainingSpec) Summarize() Summary {
	summary := Summary{
		AssistantID: s.AssistantID,
		Language:    s.Language,
		Intents:     len(s.Intents),
		NLUBlocks:   len(s.NLU),
		Stories:     len(s.Stories),
		Rules:       len(s.Rules),
	}
	for _, step := range s.Pipeline {
		summary.Components = append(summary.Components, step.Name)
	}
	for _, step := range s.Policies {
		summary.Policies = append(summary.Policies, step.Name)
	}

	// Default language when not specified
	if summary.Language == "" {
		summary.Language = "en"
	}

	return summary
}
