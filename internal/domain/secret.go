package domain

import "strings"

type SecretBackend string

const (
	SecretBackendAny  SecretBackend = ""
	SecretBackendPass SecretBackend = "pass"
	SecretBackendFile SecretBackend = "file"
)

// SplitSecretRef separates an optional pass:// or file:// prefix from the key.
// Bare keys report SecretBackendAny.
func SplitSecretRef(ref string) (SecretBackend, string) {
	ref = strings.TrimSpace(ref)
	for _, backend := range []SecretBackend{SecretBackendPass, SecretBackendFile} {
		prefix := string(backend) + "://"
		if strings.HasPrefix(ref, prefix) {
			return backend, strings.TrimPrefix(ref, prefix)
		}
	}

	return SecretBackendAny, ref
}
