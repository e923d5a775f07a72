package kubernetes

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	k8sclient "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// resolveKubeconfigPath returns $KUBECONFIG when set, else ~/.kube/config.
func resolveKubeconfigPath() string {
	if path := os.Getenv("KUBECONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kube", "config")
}

// LoadClientset builds a clientset from the kubeconfig at path for
// contextName, or the current context when contextName is empty.
func LoadClientset(kubeconfigPath, contextName string) (k8sclient.Interface, ClusterInfo, error) {
	overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}
	cfg := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath},
		overrides,
	)

	raw, err := cfg.RawConfig()
	if err != nil {
		return nil, ClusterInfo{}, errors.Annotatef(err, "loading kubeconfig %q", kubeconfigPath)
	}
	info := ClusterInfo{ContextName: raw.CurrentContext}
	if contextName != "" {
		info.ContextName = contextName
	}
	if kctx, ok := raw.Contexts[info.ContextName]; ok {
		if cluster, ok := raw.Clusters[kctx.Cluster]; ok {
			info.Server = cluster.Server
		}
	}

	restCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, info, errors.Annotatef(err, "building REST config for context %q", info.ContextName)
	}
	clientset, err := k8sclient.NewForConfig(restCfg)
	if err != nil {
		return nil, info, errors.Annotatef(err, "building clientset for context %q", info.ContextName)
	}
	logger.Debugf("using kubernetes context %q (%s)", info.ContextName, info.Server)
	return clientset, info, nil
}
