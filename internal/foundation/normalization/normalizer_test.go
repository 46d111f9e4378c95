package normalization

import (
	"testing"
)

type outputMode string

const (
	outputModeCompact outputMode = "compact"
	outputModePretty  outputMode = "pretty"
	outputModeRaw     outputMode = "raw"
)

func TestNormalizer_Basic(t *testing.T) {
	normalizer := NewNormalizer(map[string]outputMode{
		"compact": outputModeCompact,
		"pretty":  outputModePretty,
		"raw":     outputModeRaw,
	}, outputModeCompact)

	tests := []struct {
		name     string
		input    string
		expected outputMode
	}{
		{"exact match", "compact", outputModeCompact},
		{"case insensitive", "COMPACT", outputModeCompact},
		{"with spaces", "  pretty  ", outputModePretty},
		{"mixed case spaces", "  RaW  ", outputModeRaw},
		{"invalid input", "invalid", outputModeCompact}, // Should return default
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizer.Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizer_WithError(t *testing.T) {
	normalizer := NewNormalizer(map[string]outputMode{
		"compact": outputModeCompact,
		"pretty":  outputModePretty,
	}, outputModeCompact)

	// Valid input
	result, err := normalizer.NormalizeWithError("PRETTY")
	if err != nil {
		t.Errorf("NormalizeWithError(valid input) returned error: %v", err)
	}
	if result != outputModePretty {
		t.Errorf("NormalizeWithError(valid input) = %v, want %v", result, outputModePretty)
	}

	// Invalid input
	_, err = normalizer.NormalizeWithError("invalid")
	if err == nil {
		t.Error("NormalizeWithError(invalid input) should return error")
	}
}

func TestNormalizer_ValidateEnum(t *testing.T) {
	normalizer := NewNormalizer(map[string]outputMode{
		"compact": outputModeCompact,
		"pretty":  outputModePretty,
	}, outputModeCompact)

	if !normalizer.ValidateEnum(outputModePretty) {
		t.Error("ValidateEnum(known value) = false, want true")
	}
	if normalizer.ValidateEnum(outputMode("bogus")) {
		t.Error("ValidateEnum(unknown value) = true, want false")
	}
}

func TestEnumNormalizer_Validation(t *testing.T) {
	enumNormalizer := NewEnumNormalizer("output.mode", map[string]outputMode{
		"compact": outputModeCompact,
		"pretty":  outputModePretty,
	}, outputModeCompact)

	// Valid input
	result, err := enumNormalizer.NormalizeWithValidation("compact")
	if err != nil {
		t.Errorf("NormalizeWithValidation(valid) returned error: %v", err)
	}
	if result != outputModeCompact {
		t.Errorf("Result = %v, want %v", result, outputModeCompact)
	}

	// Invalid input
	_, err = enumNormalizer.NormalizeWithValidation("invalid")
	if err == nil {
		t.Error("NormalizeWithValidation(invalid) should return error")
	}

	// Check error message includes enum name
	if err != nil && err.Error() == "" {
		t.Error("Error message should not be empty")
	}
}

func TestEnumNormalizer_IsValid(t *testing.T) {
	enumNormalizer := NewEnumNormalizer("output.mode", map[string]outputMode{
		"compact": outputModeCompact,
		"pretty":  outputModePretty,
	}, outputModeCompact)

	if !enumNormalizer.IsValid("  PRETTY ") {
		t.Error("IsValid(recognized input) = false, want true")
	}
	if enumNormalizer.IsValid("invalid") {
		t.Error("IsValid(unknown input) = true, want false")
	}
}

func TestValidKeys(t *testing.T) {
	normalizer := NewNormalizer(map[string]outputMode{
		"raw":     outputModeRaw,
		"compact": outputModeCompact,
		"pretty":  outputModePretty,
	}, outputModeCompact)

	keys := normalizer.ValidKeys()

	// Should be sorted
	expected := []string{"compact", "pretty", "raw"}
	if len(keys) != len(expected) {
		t.Errorf("ValidKeys() length = %d, want %d", len(keys), len(expected))
	}

	for i, key := range keys {
		if key != expected[i] {
			t.Errorf("ValidKeys()[%d] = %q, want %q", i, key, expected[i])
		}
	}
}
