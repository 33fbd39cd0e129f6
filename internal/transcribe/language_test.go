package transcribe

import "testing"

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"auto", "auto"},
		{"en", "en"},
		{"English", "en"},
		{"es", "es"},
		{"spanish", "es"},
		{"español", "es"},
		{"FR", "fr"},
		{"deutsch", "de"},
		{"日本語", "ja"},
		{"russian", "ru"},
		{" en ", "en"},
		{"klingon", "auto"},
		{"", "auto"},
	}

	for _, tt := range tests {
		if got := ParseLanguage(tt.input); got != tt.expected {
			t.Errorf("ParseLanguage(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestLanguagesListStartsWithAuto(t *testing.T) {
	if len(Languages) == 0 {
		t.Fatal("Languages list is empty")
	}
	if Languages[0].Code != "auto" {
		t.Errorf("Expected auto first, got %s", Languages[0].Code)
	}

	for _, lang := range Languages {
		if lang.Code == "" || lang.Name == "" {
			t.Errorf("Language %+v has empty fields", lang)
		}
		if got := ParseLanguage(lang.Code); got != lang.Code {
			t.Errorf("ParseLanguage(%q) does not round-trip, got %s", lang.Code, got)
		}
	}
}
