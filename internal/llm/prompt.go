package llm

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/system.yaml
var defaultPrompt []byte

// PromptSpec holds the persona/format rules and generation settings for new sessions.
type PromptSpec struct {
	System     string     `yaml:"system"`
	Generation Generation `yaml:"generation"`
}

type Generation struct {
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// ------------------------------------------------------------------------------------------------------
// LoadPromptSpec reads a prompt spec from path, or the embedded default when path is empty.
func LoadPromptSpec(path string) (PromptSpec, error) {
	data := defaultPrompt
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return PromptSpec{}, fmt.Errorf("read prompt spec: %w", err)
		}
		data = b
	}
	return ParsePromptSpec(data)
}

// ------------------------------------------------------------------------------------------------------
func ParsePromptSpec(data []byte) (PromptSpec, error) {
	var spec PromptSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return PromptSpec{}, fmt.Errorf("decode prompt spec: %w", err)
	}
	if spec.System == "" {
		return PromptSpec{}, fmt.Errorf("prompt spec has no system instruction")
	}

	if spec.Generation.Temperature <= 0 {
		spec.Generation.Temperature = 0.1
	}
	if spec.Generation.TopP <= 0 {
		spec.Generation.TopP = 0.8
	}
	if spec.Generation.MaxOutputTokens <= 0 {
		spec.Generation.MaxOutputTokens = 1536
	}
	return spec, nil
}
