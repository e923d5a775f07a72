// Package kubernetes stores generated secrets as Kubernetes Secrets in a
// cluster reachable through the local kubeconfig.
package kubernetes

import (
	"github.com/juju/loggo"
	k8sclient "k8s.io/client-go/kubernetes"
)

var logger = loggo.GetLogger("azhub.providers.kubernetes")

// ClusterInfo identifies the cluster a clientset talks to.
type ClusterInfo struct {
	ContextName string
	Server      string
}

// KubeClientProvider creates kubernetes clientsets for named kubeconfig contexts.
// It abstracts kubeconfig loading so callers and tests can inject any clientset
// without touching the filesystem.
type KubeClientProvider interface {
	// ClientsetForContext returns a clientset and the resolved ClusterInfo for
	// the given kubeconfig context. Pass an empty string to use the current
	// context from the loaded kubeconfig.
	ClientsetForContext(contextName string) (k8sclient.Interface, ClusterInfo, error)
}

// DefaultKubeClientProvider loads kubeconfig from $KUBECONFIG or ~/.kube/config
// and builds a real kubernetes clientset.
type DefaultKubeClientProvider struct{}

// NewDefaultKubeClientProvider returns a provider backed by the system kubeconfig.
func NewDefaultKubeClientProvider() *DefaultKubeClientProvider {
	return &DefaultKubeClientProvider{}
}

// ClientsetForContext implements KubeClientProvider.
func (p *DefaultKubeClientProvider) ClientsetForContext(contextName string) (k8sclient.Interface, ClusterInfo, error) {
	return LoadClientset(resolveKubeconfigPath(), contextName)
}
