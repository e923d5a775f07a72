package kubernetes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/secrets"
)

func TestSecretStore_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset()
	store := NewSecretStore(client, "azhub")

	kp := models.CredentialKeypair{PublicKey: "ssh-rsa AAAA", PrivateKey: "-----BEGIN", Password: "first"}
	_, err := secrets.PublishKeypair(ctx, store, "aks-ssh", kp)
	require.NoError(t, err)

	got, err := client.CoreV1().Secrets("azhub").Get(ctx, "aks-ssh-password", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first", got.StringData[ValueKey])
	assert.Equal(t, "aks-ssh-password", got.Annotations[KeyAnnotation])
	assert.Equal(t, "aks-ssh-password", got.Annotations[ContentTypeAnnotation])
	assert.Equal(t, "true", got.Annotations[RetainAnnotation])
	assert.Equal(t, corev1.SecretTypeOpaque, got.Type)

	require.NoError(t, store.Put(ctx, "aks-ssh-password", "second", "aks-ssh-password", secrets.PutOptions{}))
	got, err = client.CoreV1().Secrets("azhub").Get(ctx, "aks-ssh-password", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", got.StringData[ValueKey])
	_, retained := got.Annotations[RetainAnnotation]
	assert.False(t, retained)

	list, err := client.CoreV1().Secrets("azhub").List(ctx, metav1.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 3)
}

func TestSecretStore_RefusesUnmanagedSecret(t *testing.T) {
	ctx := context.Background()
	client := fake.NewSimpleClientset(&corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "aks-ssh-publickey", Namespace: "azhub"},
	})
	err := NewSecretStore(client, "azhub").Put(ctx, "aks-ssh-publicKey", "x", "t", secrets.PutOptions{})
	assert.ErrorContains(t, err, "not managed by azhub")
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "aks-ssh-privatekey", ObjectName("aks-ssh-privateKey"))
}
