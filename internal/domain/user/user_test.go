package user

import "testing"

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}

func TestValidateEmail(t *testing.T) {
	ok := []string{"alice@example.com", "a.b+c@sub.example.org"}
	for _, v := range ok {
		if err := ValidateEmail(v); err != nil {
			t.Fatalf("expected valid email %q: %v", v, err)
		}
	}
	bad := []string{"", "alice", "alice@", "@example.com", "a b@example.com", "alice@example"}
	for _, v := range bad {
		if err := ValidateEmail(v); err == nil {
			t.Fatalf("expected invalid email %q", v)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret1"); err != nil {
		t.Fatalf("expected valid password: %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestRegionForLanguage(t *testing.T) {
	cases := map[string]string{
		"en": "US",
		"es": "ES",
		"ES": "ES",
		"fr": "US",
		"":   "US",
	}
	for lang, want := range cases {
		if got := RegionForLanguage(lang); got != want {
			t.Fatalf("RegionForLanguage(%q) = %q, want %q", lang, got, want)
		}
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "secret1") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
	if VerifyPassword("", "secret1") {
		t.Fatalf("expected empty hash to fail")
	}
}
