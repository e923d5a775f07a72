package credentials

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCreated is returned by Update when no keypair has been created yet.
	ErrNotCreated = errors.New("credential has not been created")

	// ErrAlreadyCreated is returned by Create once a keypair exists.
	ErrAlreadyCreated = errors.New("credential has already been created")
)

// KeyGenerationError wraps any failure while producing key material. Create
// keeps no partial state when it is returned, so calling Create again is
// safe.
type KeyGenerationError struct {
	Op  string
	Err error
}

func (e *KeyGenerationError) Error() string {
	return fmt.Sprintf("ssh key generation failed (%s): %v", e.Op, e.Err)
}

func (e *KeyGenerationError) Unwrap() error { return e.Err }

// PasswordChangedError is returned by Update when the password input differs
// from the one the stored keypair was encrypted with. The stored key material
// is never reused under a new password and never silently regenerated; the
// operator has to replace the credential explicitly.
type PasswordChangedError struct {
	Name string
}

func (e *PasswordChangedError) Error() string {
	return fmt.Sprintf("password for credential %q changed; the existing keypair is encrypted with the previous password. "+
		"Delete the credential state to generate a new keypair", e.Name)
}
