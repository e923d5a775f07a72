package policy

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// ConflictError reports that a group priority is already held by another
// attachment on the same root policy. It is raised synchronously and must
// not be retried: the caller has to pick a different priority.
type ConflictError struct {
	Root     models.RootPolicy
	Priority int
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("group priority %d on firewall policy %q is already used by attachment %q; cannot attach %q",
		e.Priority, e.Root.Key(), e.Existing, e.Incoming)
}
