// Package crypto encrypts provider access tokens at rest.
package crypto

import (
	"errors"
	"strings"

	"github.com/fernet/fernet-go"
)

var (
	ErrInvalidKey       = errors.New("encryption key must be a base64-encoded 32-byte fernet key")
	ErrDecryptionFailed = errors.New("ciphertext could not be verified")
)

// Encryptor seals strings as fernet tokens. The first key encrypts; every key
// is tried on decrypt so old keys can be rotated out gradually.
type Encryptor struct {
	primary *fernet.Key
	keys    []*fernet.Key
}

// NewEncryptor accepts a single key or a comma-separated list, newest first.
func NewEncryptor(keyList string) (*Encryptor, error) {
	var encoded []string
	for _, k := range strings.Split(keyList, ",") {
		if k = strings.TrimSpace(k); k != "" {
			encoded = append(encoded, k)
		}
	}
	if len(encoded) == 0 {
		return nil, ErrInvalidKey
	}

	keys, err := fernet.DecodeKeys(encoded...)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return &Encryptor{primary: keys[0], keys: keys}, nil
}

// Encrypt returns an empty string for empty input so optional columns stay empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), e.primary)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	// ttl 0 disables expiry; stored tokens live as long as the item.
	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), 0, e.keys)
	if msg == nil {
		return "", ErrDecryptionFailed
	}
	return string(msg), nil
}
