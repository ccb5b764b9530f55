package resolve

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lower-cases", "OpenAI", "openai"},
		{"trims and collapses whitespace", "  Sam   Altman ", "sam altman"},
		{"strips Inc suffix", "Apple Inc.", "apple"},
		{"strips Corp suffix", "Microsoft Corp", "microsoft"},
		{"strips Corporation suffix", "Intel Corporation", "intel"},
		{"strips LLC suffix", "Anthropic LLC", "anthropic"},
		{"strips Ltd suffix", "DeepMind Ltd.", "deepmind"},
		{"keeps suffix-only name", "Inc.", "inc."},
		{"does not truncate non-suffix token", "Incline Village", "incline village"},
		{"expands U.S.", "U.S. Government", "us government"},
		{"expands AT&T", "AT&T", "atandt"},
		{"rewrites ampersand", "Procter & Gamble", "procter and gamble"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
		{"unicode preserved", "Café Müller", "café müller"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Apple Inc.", "AT&T", "U.S. Government", "  Sam   Altman ",
		"Procter & Gamble", "Café Müller", "", "Microsoft Corporation",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}
