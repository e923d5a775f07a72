package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// Record is the persisted state of one credential.
type Record struct {
	Name       string `json:"name"`
	State      State  `json:"state"`
	Password   string `json:"password"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Keypair returns the key material held by the record.
func (r Record) Keypair() models.CredentialKeypair {
	return models.CredentialKeypair{
		Password:   r.Password,
		PublicKey:  r.PublicKey,
		PrivateKey: r.PrivateKey,
	}
}

func newRecord(name string, state State, kp models.CredentialKeypair) Record {
	return Record{
		Name:       name,
		State:      state,
		Password:   kp.Password,
		PublicKey:  kp.PublicKey,
		PrivateKey: kp.PrivateKey,
	}
}

// StateStore persists credential records by logical name.
type StateStore interface {
	Load(ctx context.Context, name string) (Record, bool, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, name string) error
}

// MemoryStateStore keeps records for the lifetime of the process.
type MemoryStateStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStateStore returns an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{records: make(map[string]Record)}
}

func (s *MemoryStateStore) Load(_ context.Context, name string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[name]
	return rec, ok, nil
}

func (s *MemoryStateStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Name] = rec
	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, name)
	return nil
}

// FileStateStore keeps all records in one JSON file readable only by the
// owner. Writes replace the file atomically.
type FileStateStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStateStore returns a store backed by the file at path. The file is
// created on first Save.
func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

func (s *FileStateStore) read() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential state %s: %w", s.path, err)
	}
	records := make(map[string]Record)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode credential state %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStateStore) write(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential state dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create credential state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credential state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write credential state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace credential state: %w", err)
	}
	return nil
}

func (s *FileStateStore) Load(_ context.Context, name string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := records[name]
	return rec, ok, nil
}

func (s *FileStateStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return err
	}
	records[rec.Name] = rec
	return s.write(records)
}

func (s *FileStateStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := records[name]; !ok {
		return nil
	}
	delete(records, name)
	return s.write(records)
}
