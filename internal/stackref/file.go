package stackref

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/juju/errors"
)

// FileRegistry stores each stage's outputs as "<dir>/<org>/<project>/<stack>.json".
type FileRegistry struct {
	dir string
}

// NewFileRegistry returns a registry rooted at dir.
func NewFileRegistry(dir string) *FileRegistry {
	return &FileRegistry{dir: dir}
}

func (r *FileRegistry) path(stage string) string {
	return filepath.Join(r.dir, filepath.FromSlash(stage)+".json")
}

func (r *FileRegistry) Outputs(_ context.Context, stage string) (Outputs, error) {
	if err := ValidateStageName(stage); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(stage))
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("outputs of stage %q", stage)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	var out Outputs
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Annotatef(err, "parsing outputs of stage %q", stage)
	}
	return out, nil
}

func (r *FileRegistry) Publish(_ context.Context, stage string, outputs Outputs) error {
	if err := ValidateStageName(stage); err != nil {
		return err
	}
	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	p := r.path(stage)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(p, data, 0o644))
}

// MemoryRegistry holds outputs in memory.
type MemoryRegistry struct {
	mu     sync.Mutex
	stages map[string]Outputs
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{stages: make(map[string]Outputs)}
}

func (r *MemoryRegistry) Outputs(_ context.Context, stage string) (Outputs, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out, ok := r.stages[stage]
	if !ok {
		return nil, errors.NotFoundf("outputs of stage %q", stage)
	}
	return out, nil
}

func (r *MemoryRegistry) Publish(_ context.Context, stage string, outputs Outputs) error {
	if err := ValidateStageName(stage); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = outputs
	return nil
}
