package kubernetes

import (
	"context"
	"strings"

	"github.com/juju/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8sclient "k8s.io/client-go/kubernetes"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/secrets"
)

// Labels and annotations written on every managed Secret.
const (
	ManagedByLabel        = "app.kubernetes.io/managed-by"
	ManagedByValue        = "azhub"
	KeyAnnotation         = "azhub.io/secret-key"
	ContentTypeAnnotation = "azhub.io/content-type"
	RetainAnnotation      = "azhub.io/retain-on-delete"

	// ValueKey is the data key holding the secret value.
	ValueKey = "value"
)

// SecretStore writes each secret as an Opaque Secret in one namespace. The
// Secret name is the lower-cased key; the original key is kept in an
// annotation.
type SecretStore struct {
	client    k8sclient.Interface
	namespace string
}

// NewSecretStore returns a store writing into namespace.
func NewSecretStore(client k8sclient.Interface, namespace string) *SecretStore {
	return &SecretStore{client: client, namespace: namespace}
}

// ObjectName returns the Secret name key is stored under.
func ObjectName(key string) string {
	return strings.ToLower(key)
}

func (s *SecretStore) Put(ctx context.Context, key, value, contentType string, opts secrets.PutOptions) error {
	annotations := map[string]string{
		KeyAnnotation:         key,
		ContentTypeAnnotation: contentType,
	}
	if opts.RetainOnDelete {
		annotations[RetainAnnotation] = "true"
	}
	desired := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:        ObjectName(key),
			Namespace:   s.namespace,
			Labels:      map[string]string{ManagedByLabel: ManagedByValue},
			Annotations: annotations,
		},
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{ValueKey: value},
	}

	api := s.client.CoreV1().Secrets(s.namespace)
	_, err := api.Create(ctx, desired, metav1.CreateOptions{})
	if err == nil {
		logger.Debugf("created secret %s/%s", s.namespace, desired.Name)
		return nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return errors.Annotatef(err, "creating secret %s/%s", s.namespace, desired.Name)
	}

	existing, err := api.Get(ctx, desired.Name, metav1.GetOptions{})
	if err != nil {
		return errors.Annotatef(err, "reading secret %s/%s", s.namespace, desired.Name)
	}
	if existing.Labels[ManagedByLabel] != ManagedByValue {
		return errors.AlreadyExistsf("secret %s/%s not managed by azhub", s.namespace, desired.Name)
	}
	desired.ResourceVersion = existing.ResourceVersion
	if _, err := api.Update(ctx, desired, metav1.UpdateOptions{}); err != nil {
		return errors.Annotatef(err, "updating secret %s/%s", s.namespace, desired.Name)
	}
	logger.Debugf("updated secret %s/%s", s.namespace, desired.Name)
	return nil
}
