package policy

import (
	"slices"
	"sync"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// PriorityRegistry records which group priorities are taken on each root
// policy. Keys are "<resourceGroup>/<policy>"; each key has its own lock so
// attachments to different root policies never contend.
//
// The registry is in-memory and lives for one process run. It does not see
// groups created by other processes or earlier runs.
type PriorityRegistry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	mu         sync.Mutex
	priorities map[int]string
}

// NewPriorityRegistry returns an empty registry.
func NewPriorityRegistry() *PriorityRegistry {
	return &PriorityRegistry{entries: make(map[string]*registryEntry)}
}

var defaultRegistry = NewPriorityRegistry()

// DefaultRegistry returns the process-wide registry shared by every
// Attacher built with NewDefaultAttacher.
func DefaultRegistry() *PriorityRegistry {
	return defaultRegistry
}

func (r *PriorityRegistry) entry(key string) *registryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &registryEntry{priorities: make(map[int]string)}
		r.entries[key] = e
	}
	return e
}

// Register atomically claims priority on root for the named attachment.
// Returns *ConflictError when the priority is already held.
func (r *PriorityRegistry) Register(root models.RootPolicy, priority int, name string) error {
	e := r.entry(root.Key())
	e.mu.Lock()
	defer e.mu.Unlock()
	if owner, taken := e.priorities[priority]; taken {
		return &ConflictError{Root: root, Priority: priority, Existing: owner, Incoming: name}
	}
	e.priorities[priority] = name
	return nil
}

// Release frees priority on root when it is held by name. It is a no-op
// otherwise, so a failed attachment can never free another one's slot.
func (r *PriorityRegistry) Release(root models.RootPolicy, priority int, name string) bool {
	e := r.entry(root.Key())
	e.mu.Lock()
	defer e.mu.Unlock()
	if owner, ok := e.priorities[priority]; ok && owner == name {
		delete(e.priorities, priority)
		return true
	}
	return false
}

// Registered returns the priorities held on root in ascending order.
func (r *PriorityRegistry) Registered(root models.RootPolicy) []int {
	e := r.entry(root.Key())
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, 0, len(e.priorities))
	for p := range e.priorities {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Owner returns the attachment holding priority on root.
func (r *PriorityRegistry) Owner(root models.RootPolicy, priority int) (string, bool) {
	e := r.entry(root.Key())
	e.mu.Lock()
	defer e.mu.Unlock()
	name, ok := e.priorities[priority]
	return name, ok
}
