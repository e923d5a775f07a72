package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// Result is the outcome of Resource.Ensure.
type Result struct {
	Keypair models.CredentialKeypair
	// Created is true when Ensure generated a new keypair in this call.
	Created bool
	State   State
}

// Resource drives credential providers against a StateStore so a logical
// credential is generated once and then stays stable across runs.
type Resource struct {
	store StateStore
	opts  []Option

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResource returns a Resource persisting to store. opts are applied to
// every provider it creates.
func NewResource(store StateStore, opts ...Option) *Resource {
	return &Resource{store: store, opts: opts, locks: make(map[string]*sync.Mutex)}
}

func (r *Resource) lock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// Ensure returns the keypair for name, creating it on first use. Later calls
// with the same password return the stored keypair unchanged; a different
// password yields a *PasswordChangedError. Calls for different names run
// independently.
func (r *Resource) Ensure(ctx context.Context, name, password string) (Result, error) {
	l := r.lock(name)
	l.Lock()
	defer l.Unlock()

	rec, found, err := r.store.Load(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("load credential %q: %w", name, err)
	}
	return r.ensure(ctx, name, password, rec, found)
}

// EnsureGenerated is Ensure with a password generated on first use. Later
// calls reuse the stored password, so the keypair stays stable without the
// caller having to keep the password.
func (r *Resource) EnsureGenerated(ctx context.Context, name string, passwordLength int) (Result, error) {
	l := r.lock(name)
	l.Lock()
	defer l.Unlock()

	rec, found, err := r.store.Load(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("load credential %q: %w", name, err)
	}
	password := rec.Password
	if !found || password == "" {
		if password, err = GeneratePassword(passwordLength); err != nil {
			return Result{}, fmt.Errorf("generate password for %q: %w", name, err)
		}
	}
	return r.ensure(ctx, name, password, rec, found)
}

func (r *Resource) ensure(ctx context.Context, name, password string, rec Record, found bool) (Result, error) {
	if !found {
		p := NewDefaultProvider(name, r.opts...)
		kp, err := p.Create(ctx, Inputs{Password: password})
		if err != nil {
			return Result{}, err
		}
		if err := r.store.Save(ctx, newRecord(name, p.State(), kp)); err != nil {
			return Result{}, fmt.Errorf("save credential %q: %w", name, err)
		}
		return Result{Keypair: kp, Created: true, State: p.State()}, nil
	}

	p := resume(name, rec.State, r.opts...)
	kp, err := p.Update(ctx, rec.Keypair(), Inputs{Password: password})
	if err != nil {
		return Result{}, err
	}
	if rec.State != p.State() {
		if err := r.store.Save(ctx, newRecord(name, p.State(), kp)); err != nil {
			return Result{}, fmt.Errorf("save credential %q: %w", name, err)
		}
	}
	return Result{Keypair: kp, State: p.State()}, nil
}

// Forget removes the stored credential for name so the next Ensure creates
// a fresh keypair.
func (r *Resource) Forget(ctx context.Context, name string) error {
	l := r.lock(name)
	l.Lock()
	defer l.Unlock()
	return r.store.Delete(ctx, name)
}
