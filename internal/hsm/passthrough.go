package hsm

import "crypto/rand"

// Passthrough is the identity HSM: Seal and Unseal are no-ops, and Random
// draws directly from the OS CSPRNG. It is the default when no identity
// document is configured, and is the variant exercised by single-host or
// test deployments.
type Passthrough struct{}

// NewPassthrough returns a Passthrough HSM. It has no state to initialize.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

func (Passthrough) Seal(plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return out, nil
}

func (Passthrough) Unseal(blob []byte) ([]byte, error) {
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (Passthrough) Random(n int) ([]byte, error) {
	if n <= 0 {
		n = DefaultRandomBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, UnableToEncryptError{Detail: err.Error()}
	}
	return buf, nil
}
