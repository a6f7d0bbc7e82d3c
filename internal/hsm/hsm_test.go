package hsm

import (
	"bytes"
	"testing"
)

func TestPassthroughRoundTrip(t *testing.T) {
	h := NewPassthrough()

	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("hello world")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x20, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := h.Seal(tt.in)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if !bytes.Equal(sealed, tt.in) {
				t.Fatalf("Passthrough.Seal(%q) = %q, want identity", tt.in, sealed)
			}

			unsealed, err := h.Unseal(sealed)
			if err != nil {
				t.Fatalf("Unseal: %v", err)
			}
			if !bytes.Equal(unsealed, tt.in) {
				t.Fatalf("Unseal(Seal(%q)) = %q, want %q", tt.in, unsealed, tt.in)
			}
		})
	}
}

func TestPassthroughRandomLength(t *testing.T) {
	h := NewPassthrough()

	b, err := h.Random(1024)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if len(b) != 1024 {
		t.Fatalf("Random(1024) returned %d bytes", len(b))
	}

	def, err := h.Random(0)
	if err != nil {
		t.Fatalf("Random(0): %v", err)
	}
	if len(def) != DefaultRandomBytes {
		t.Fatalf("Random(0) = %d bytes, want default %d", len(def), DefaultRandomBytes)
	}
}

func TestPassthroughSealDoesNotAliasInput(t *testing.T) {
	h := NewPassthrough()
	in := []byte("mutate me")
	sealed, err := h.Seal(in)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	in[0] = 'X'
	if sealed[0] == 'X' {
		t.Fatal("Seal aliased its input slice")
	}
}
