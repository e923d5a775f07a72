// Package credentials generates password-protected SSH keypairs for AKS node
// pools and virtual machines and keeps them stable across reconciliations.
package credentials

import (
	"context"
	"crypto/rand"
	"io"
	"sync"

	"github.com/juju/loggo"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

var logger = loggo.GetLogger("azhub.credentials")

// State is the lifecycle state of one credential.
type State int

const (
	StateUninitialized State = iota
	StateCreated
	StateStable
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateStable:
		return "stable"
	default:
		return "unknown"
	}
}

// Inputs are the caller-supplied parameters of a credential.
type Inputs struct {
	Password string
}

// Provider is the lifecycle of a single SSH credential.
//
// Create moves Uninitialized → Created and generates a new keypair.
// Update moves Created/Stable → Stable and never regenerates: with an
// unchanged password it returns old as-is.
type Provider interface {
	Create(ctx context.Context, in Inputs) (models.CredentialKeypair, error)
	Update(ctx context.Context, old models.CredentialKeypair, in Inputs) (models.CredentialKeypair, error)
	State() State
}

// Option configures a DefaultProvider.
type Option func(*DefaultProvider)

// WithKeySize overrides the RSA modulus length. Sizes below MinKeySize are
// rejected at Create time with a KeyGenerationError.
func WithKeySize(bits int) Option {
	return func(p *DefaultProvider) { p.keySize = bits }
}

// WithRandom overrides the entropy source used for key generation.
func WithRandom(r io.Reader) Option {
	return func(p *DefaultProvider) { p.random = r }
}

// WithComment sets the comment embedded in the OpenSSH private key.
func WithComment(comment string) Option {
	return func(p *DefaultProvider) { p.comment = comment }
}

// DefaultProvider is the RSA/OpenSSH implementation of Provider. It is safe
// for concurrent use; a second Create on the same provider fails with
// ErrAlreadyCreated.
type DefaultProvider struct {
	name    string
	keySize int
	random  io.Reader
	comment string

	mu    sync.Mutex
	state State
}

// NewDefaultProvider returns an uninitialized provider for the credential
// with the given logical name.
func NewDefaultProvider(name string, opts ...Option) *DefaultProvider {
	p := &DefaultProvider{
		name:    name,
		keySize: DefaultKeySize,
		random:  rand.Reader,
		comment: name,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// resume returns a provider that continues from a persisted state.
func resume(name string, state State, opts ...Option) *DefaultProvider {
	p := NewDefaultProvider(name, opts...)
	p.state = state
	return p
}

// Create generates a new keypair encrypted with in.Password. The context is
// only checked before generation starts; once started, key generation runs
// to completion.
func (p *DefaultProvider) Create(ctx context.Context, in Inputs) (models.CredentialKeypair, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateUninitialized {
		return models.CredentialKeypair{}, ErrAlreadyCreated
	}
	if err := ctx.Err(); err != nil {
		return models.CredentialKeypair{}, err
	}

	logger.Debugf("generating %d-bit RSA key for %q", p.keySize, p.name)
	kp, err := generateKeypair(p.random, p.keySize, in.Password, p.comment)
	if err != nil {
		return models.CredentialKeypair{}, err
	}
	p.state = StateCreated

	if fp, err := Fingerprint(kp); err == nil {
		logger.Infof("created ssh credential %q (%s)", p.name, fp)
	}
	return kp, nil
}

// Update reconciles a stored keypair against new inputs. An unchanged
// password returns old unmodified. A changed password returns a
// *PasswordChangedError and leaves the state untouched.
func (p *DefaultProvider) Update(_ context.Context, old models.CredentialKeypair, in Inputs) (models.CredentialKeypair, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUninitialized || old.IsZero() {
		return models.CredentialKeypair{}, ErrNotCreated
	}
	if in.Password != old.Password {
		return models.CredentialKeypair{}, &PasswordChangedError{Name: p.name}
	}
	p.state = StateStable
	return old, nil
}

// State returns the current lifecycle state.
func (p *DefaultProvider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
