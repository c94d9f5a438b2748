package domain

import "testing"

// TestParseModelTier checks accepted and rejected tier names.
func TestParseModelTier(t *testing.T) {
	for _, tier := range ModelTiers() {
		got, err := ParseModelTier(string(tier))
		if err != nil {
			t.Fatalf("ParseModelTier(%q) error = %v", tier, err)
		}
		if got != tier {
			t.Fatalf("ParseModelTier(%q) = %q", tier, got)
		}
	}

	if _, err := ParseModelTier("gigantic"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if _, err := ParseModelTier(""); err == nil {
		t.Fatal("expected error for empty tier")
	}
}

// TestSupportedLanguagesAutoFirst checks list ordering and membership.
func TestSupportedLanguagesAutoFirst(t *testing.T) {
	langs := SupportedLanguages()
	if len(langs) == 0 || langs[0].Code != LanguageAuto {
		t.Fatalf("expected auto first, got %+v", langs[:1])
	}

	if !IsSupportedLanguage("en") {
		t.Fatal("en should be supported")
	}
	if IsSupportedLanguage("xx") {
		t.Fatal("xx should not be supported")
	}
}
