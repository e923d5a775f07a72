package engine

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

func credentialIntent(name, fingerprint string, keySize int) models.ResourceIntent {
	return models.ResourceIntent{
		Name: fmt.Sprintf("%s:%s", models.ResourceTypeSSHCredential, name),
		Type: models.ResourceTypeSSHCredential,
		Properties: map[string]any{
			"name":        name,
			"keySize":     keySize,
			"fingerprint": fingerprint,
		},
		SecretOutputs: []string{"publicKey", "privateKey", "password"},
	}
}

// workloadIntent declares the resource that logs in with the credential.
// Only the public key is embedded; the password is referenced by its secret
// name.
func workloadIntent(
	w workload,
	resourceName, adminUser, credential string,
	kp models.CredentialKeypair,
	predecessors []string,
) models.ResourceIntent {
	in := models.ResourceIntent{
		Name:         fmt.Sprintf("%s:%s", w.resourceType, resourceName),
		Type:         w.resourceType,
		Predecessors: predecessors,
	}
	sshKeys := map[string]any{
		"publicKeys": []map[string]string{{"keyData": kp.PublicKey}},
	}
	switch w.resourceType {
	case models.ResourceTypeManagedCluster:
		in.Properties = map[string]any{
			"nodeResourceGroup": resourceName + "-nodes",
			"linuxProfile": map[string]any{
				"adminUsername": adminUser,
				"ssh":           sshKeys,
			},
		}
	default:
		in.Properties = map[string]any{
			"osProfile": map[string]any{
				"adminUsername":       adminUser,
				"adminPasswordSecret": credential + "-password",
				"linuxConfiguration": map[string]any{
					"disablePasswordAuthentication": false,
					"ssh":                           sshKeys,
				},
			},
		}
	}
	return in
}
