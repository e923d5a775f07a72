// Package secrets writes generated credential material to a secret store.
package secrets

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/juju/loggo"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

var logger = loggo.GetLogger("azhub.secrets")

// PutOptions modify how a secret is written.
type PutOptions struct {
	// RetainOnDelete keeps the secret when the owning stack is destroyed.
	RetainOnDelete bool
}

// Store is a write-only secret sink.
type Store interface {
	Put(ctx context.Context, key, value, contentType string, opts PutOptions) error
}

// Secret is one value held by MemoryStore.
type Secret struct {
	Value          string
	ContentType    string
	RetainOnDelete bool
}

// MemoryStore keeps secrets in process memory. It backs dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string]Secret
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]Secret)}
}

func (s *MemoryStore) Put(_ context.Context, key, value, contentType string, opts PutOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = Secret{Value: value, ContentType: contentType, RetainOnDelete: opts.RetainOnDelete}
	return nil
}

// Get returns the secret stored under key.
func (s *MemoryStore) Get(key string) (Secret, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.secrets[key]
	return sec, ok
}

// Keys returns all stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.secrets))
	for k := range s.secrets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// KeypairSecretNames returns the secret names a keypair called name is
// published under, in write order: public key, private key, password.
func KeypairSecretNames(name string) []string {
	return []string{
		name + "-publicKey",
		name + "-privateKey",
		name + "-password",
	}
}

// PublishKeypair writes the three values of kp to store. Each secret uses
// its own name as content type and is retained on delete. It returns the
// names written; on error the names written so far are returned with it.
func PublishKeypair(ctx context.Context, store Store, name string, kp models.CredentialKeypair) ([]string, error) {
	names := KeypairSecretNames(name)
	values := []string{kp.PublicKey, kp.PrivateKey, kp.Password}

	var written []string
	for i, key := range names {
		if err := store.Put(ctx, key, values[i], key, PutOptions{RetainOnDelete: true}); err != nil {
			return written, fmt.Errorf("put secret %q: %w", key, err)
		}
		written = append(written, key)
	}
	logger.Infof("published %d secrets for credential %q", len(written), name)
	return written, nil
}

// KeypairIntents returns one vault secret intent per keypair value. Each
// depends on the credential intent and is retained on delete.
func KeypairIntents(name, credentialIntent, vaultName string) []models.ResourceIntent {
	var out []models.ResourceIntent
	for _, key := range KeypairSecretNames(name) {
		out = append(out, models.ResourceIntent{
			Name:         fmt.Sprintf("%s:%s/%s", models.ResourceTypeVaultSecret, vaultName, key),
			Type:         models.ResourceTypeVaultSecret,
			Predecessors: []string{credentialIntent},
			Properties: map[string]string{
				"vaultName":   vaultName,
				"secretName":  key,
				"contentType": key,
			},
			SecretOutputs:  []string{"value"},
			RetainOnDelete: true,
		})
	}
	return out
}
