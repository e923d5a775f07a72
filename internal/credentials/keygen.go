package credentials

import (
	"crypto/rsa"
	"encoding/pem"
	"io"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/crypto/ssh"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

const (
	// DefaultKeySize is the RSA modulus length used for node and VM keys.
	DefaultKeySize = 4096

	// MinKeySize is the smallest modulus accepted through WithKeySize.
	MinKeySize = 2048
)

// generateKeypair creates an RSA key of the given size and returns it as an
// OpenSSH private key encrypted with password plus the matching
// authorized_keys line.
func generateKeypair(random io.Reader, bits int, password, comment string) (models.CredentialKeypair, error) {
	if password == "" {
		return models.CredentialKeypair{}, &KeyGenerationError{Op: "validate", Err: errors.NotValidf("empty password")}
	}
	if bits < MinKeySize || bits%8 != 0 {
		return models.CredentialKeypair{}, &KeyGenerationError{Op: "validate", Err: errors.NotSupportedf("%d-bit RSA key", bits)}
	}

	key, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return models.CredentialKeypair{}, &KeyGenerationError{Op: "generate", Err: err}
	}

	block, err := ssh.MarshalPrivateKeyWithPassphrase(key, comment, []byte(password))
	if err != nil {
		return models.CredentialKeypair{}, &KeyGenerationError{Op: "encode private key", Err: err}
	}

	pub, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return models.CredentialKeypair{}, &KeyGenerationError{Op: "encode public key", Err: err}
	}

	return models.CredentialKeypair{
		Password:   password,
		PublicKey:  strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))),
		PrivateKey: string(pem.EncodeToMemory(block)),
	}, nil
}

// Verify checks that kp round-trips: the private key decrypts with the
// password and corresponds to the public key.
func Verify(kp models.CredentialKeypair) error {
	raw, err := ssh.ParseRawPrivateKeyWithPassphrase([]byte(kp.PrivateKey), []byte(kp.Password))
	if err != nil {
		return errors.Annotate(err, "decrypting private key")
	}
	signer, err := ssh.NewSignerFromKey(raw)
	if err != nil {
		return errors.Annotate(err, "loading private key")
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(kp.PublicKey))
	if err != nil {
		return errors.Annotate(err, "parsing public key")
	}
	if string(signer.PublicKey().Marshal()) != string(pub.Marshal()) {
		return errors.New("private key does not match public key")
	}
	return nil
}

// Fingerprint returns the SHA256 fingerprint of the keypair's public key,
// safe to log and report.
func Fingerprint(kp models.CredentialKeypair) (string, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(kp.PublicKey))
	if err != nil {
		return "", errors.Annotate(err, "parsing public key")
	}
	return ssh.FingerprintSHA256(pub), nil
}
