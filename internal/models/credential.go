package models

import "encoding/json"

const redacted = "[secret]"

// CredentialKeypair is the output of the SSH credential generator. All three
// values are secret-bearing. String and MarshalJSON redact them so a keypair
// never leaks into logs or reports by accident; persist it through a secret
// store using the exported fields directly.
type CredentialKeypair struct {
	Password   string
	PublicKey  string
	PrivateKey string
}

// IsZero reports whether no key material has been generated.
func (k CredentialKeypair) IsZero() bool {
	return k.Password == "" && k.PublicKey == "" && k.PrivateKey == ""
}

func (k CredentialKeypair) String() string {
	return "CredentialKeypair{" + redacted + "}"
}

// MarshalJSON redacts every field.
func (k CredentialKeypair) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"password":    redacted,
		"public_key":  redacted,
		"private_key": redacted,
	})
}

// CredentialSummary is the non-secret view of a generated credential used in
// stage plans.
type CredentialSummary struct {
	Name        string   `json:"name"`
	Fingerprint string   `json:"fingerprint"`
	Created     bool     `json:"created"`
	Secrets     []string `json:"secrets,omitempty"`
}
