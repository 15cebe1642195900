package apikey

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(key) != KeyBytes*2 {
		t.Errorf("key length: got %d, want %d", len(key), KeyBytes*2)
	}
	if strings.ToLower(key) != key {
		t.Errorf("key should be lowercase hex: %q", key)
	}

	other, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if key == other {
		t.Error("two generated keys should not collide")
	}
}

func TestHash_Deterministic(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef0123456789abcdef"

	h1 := Hash(key)
	h2 := Hash(key)
	if h1 != h2 {
		t.Errorf("hash not stable: %q vs %q", h1, h2)
	}
	if h1 == key {
		t.Error("hash must not equal the key")
	}
	if len(h1) != 64 { // sha3-256 hex
		t.Errorf("digest length: got %d, want 64", len(h1))
	}
}

func TestVerify(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	stored := Hash(key)

	if !Verify(key, stored) {
		t.Error("Verify(key, Hash(key)) should be true")
	}

	tests := []struct {
		name      string
		candidate string
		stored    string
	}{
		{"wrong key", "not-the-key", stored},
		{"empty candidate", "", stored},
		{"empty stored", key, ""},
		{"both empty", "", ""},
		{"truncated stored", key, stored[:10]},
		{"garbage stored", key, "zz not hex at all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.candidate, tt.stored) {
				t.Errorf("Verify(%q, %q) should be false", tt.candidate, tt.stored)
			}
		})
	}
}
