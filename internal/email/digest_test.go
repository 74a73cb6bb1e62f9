package email

import "testing"

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func TestHashAddressDeterministic(t *testing.T) {
	a := HashAddress("a@usc.edu")
	if a != HashAddress("a@usc.edu") {
		t.Fatal("same input must hash identically")
	}
	if len(a) != 64 || !isHex(a) {
		t.Fatalf("expected 64 hex chars, got %q", a)
	}
	if a == HashAddress("b@usc.edu") {
		t.Fatal("different inputs must not collide")
	}
}

func TestNewChallengeCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		code, err := NewChallengeCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if len(code) != 64 || !isHex(code) {
			t.Fatalf("expected 64 hex chars, got %q", code)
		}
		if seen[code] {
			t.Fatalf("code repeated: %s", code)
		}
		seen[code] = true
	}
}
