package photon

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/nickspiker/photon/protocol"
)

// Ed25519Signer is the default protocol.Signer implementation: it
// signs with a long-term Ed25519 key pair. Key generation and storage
// are the caller's concern — Ed25519Signer only wraps an
// already-available private key.
type Ed25519Signer struct {
	private ed25519.PrivateKey
	public  [32]byte
}

// NewEd25519Signer wraps priv, caching its public key.
func NewEd25519Signer(priv ed25519.PrivateKey) (*Ed25519Signer, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("photon: invalid ed25519 private key")
	}
	var pubArr [32]byte
	copy(pubArr[:], pub)
	return &Ed25519Signer{private: priv, public: pubArr}, nil
}

// Sign implements protocol.Signer.
func (s *Ed25519Signer) Sign(data []byte) (pubkey [32]byte, signature [64]byte, err error) {
	sig := ed25519.Sign(s.private, data)
	copy(signature[:], sig)
	return s.public, signature, nil
}

var _ protocol.Signer = (*Ed25519Signer)(nil)

// SystemClock is the default protocol.Clock implementation, backed by
// the platform's monotonic time.Now().
type SystemClock struct{}

// Now implements protocol.Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

var _ protocol.Clock = SystemClock{}
