package llm

import (
	"strings"
	"testing"
)

func TestLoadPromptSpec_Embedded(t *testing.T) {
	spec, err := LoadPromptSpec("")
	if err != nil {
		t.Fatalf("LoadPromptSpec() error = %v", err)
	}

	if !strings.Contains(spec.System, "namaLayanan, persyaratan (array), sistemMekanismeProsedur (array)") {
		t.Error("Expected system instruction to carry the record field contract")
	}
	if spec.Generation.Temperature != 0.1 || spec.Generation.TopP != 0.8 || spec.Generation.MaxOutputTokens != 1536 {
		t.Errorf("Unexpected generation settings: %+v", spec.Generation)
	}
}

func TestParsePromptSpec_Defaults(t *testing.T) {
	spec, err := ParsePromptSpec([]byte("system: Anda asisten MPP.\n"))
	if err != nil {
		t.Fatalf("ParsePromptSpec() error = %v", err)
	}
	if spec.Generation.MaxOutputTokens != 1536 {
		t.Errorf("Expected default max output tokens, got %d", spec.Generation.MaxOutputTokens)
	}
}

func TestParsePromptSpec_RequiresSystem(t *testing.T) {
	if _, err := ParsePromptSpec([]byte("generation:\n  temperature: 0.2\n")); err == nil {
		t.Error("Expected error for prompt spec without system instruction")
	}
}

func TestLoadPromptSpec_MissingFile(t *testing.T) {
	if _, err := LoadPromptSpec("does-not-exist.yaml"); err == nil {
		t.Error("Expected error for missing prompt file")
	}
}
