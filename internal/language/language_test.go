package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"en", "en", true},
		{"EN", "en", true},
		{" fr ", "fr", true},
		{"pt-BR", "pt-BR", true},
		{"en-orig", "en-orig", true},
		{"zh-Hans", "zh-Hans", true},
		{"es_419", "es-419", true},
		{"iw", "iw", true},
		{"", "", false},
		{"--exec", "", false},
		{"en-", "", false},
		{"en-$(rm)", "", false},
		{"xx1", "", false},
		{"en-averyveryverylongsubtag", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en":      "English",
		"fr":      "French",
		"de":      "German",
		"ar":      "Arabic",
		"en-orig": "English",
		"auto":    "",
		"":        "",
		"1a":      "",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDescribeFallsBackToCode(t *testing.T) {
	if got := Describe("live_chat"); got != "live_chat" {
		t.Fatalf("expected raw code, got %q", got)
	}
	if got := Describe("es"); got != "Spanish" {
		t.Fatalf("expected Spanish, got %q", got)
	}
}

func TestBase(t *testing.T) {
	for input, want := range map[string]string{"pt-BR": "pt", "EN": "en", "es_419": "es", "": ""} {
		if got := Base(input); got != want {
			t.Errorf("Base(%q) = %q, want %q", input, got, want)
		}
	}
}
