package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"os"
)

const pemType = "EC PRIVATE KEY"

// LoadOrCreateKey reads the signing key at path, generating and storing a new P-256 key if none
// exists. The key identifier is derived from the public key.
func LoadOrCreateKey(path string) (*ecdsa.PrivateKey, string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return createKey(path)
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to read signing key: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemType {
		return nil, "", fmt.Errorf("signing key '%s' is not a PEM encoded EC private key", path)
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse signing key: %w", err)
	}

	kid, err := keyIdentifier(key)
	return key, kid, err
}

func createKey(path string) (*ecdsa.PrivateKey, string, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate signing key: %w", err)
	}

	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal signing key: %w", err)
	}

	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: pemType, Bytes: der}), 0600); err != nil {
		return nil, "", fmt.Errorf("failed to write signing key: %w", err)
	}

	kid, err := keyIdentifier(key)
	return key, kid, err
}

func keyIdentifier(key *ecdsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key.Public())
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	return uuid.NewSHA1(uuid.NameSpaceOID, der).String(), nil
}
