// Package vaultbackend is an alternative CredentialStore backend that
// keeps values in a HashiCorp Vault KV-v2 mount instead of the local
// encrypted file. It implements the same vault.Store contract as
// vault.FileStore, so it is a drop-in substitute — the "OS keychain"
// substitution the design notes allow, realized with the dependency the
// teacher already used for its own credential handling.
package vaultbackend

import (
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"
)

// Store reads and writes credential values as fields of a single secret at
// <mount>/data/<path> in a KV-v2 engine. Sensitive values are not
// AES-encrypted by this backend — Vault's own at-rest encryption and
// access policy cover that role instead.
type Store struct {
	client *vaultapi.Client
	mount  string
	path   string
}

// New returns a Store backed by client, writing to the KV-v2 secret at
// mount/path (e.g. mount="secret", path="panzer/credentials").
func New(client *vaultapi.Client, mount, path string) *Store {
	return &Store{client: client, mount: mount, path: path}
}

func (s *Store) dataPath() string {
	return fmt.Sprintf("%s/data/%s", s.mount, s.path)
}

// Get implements vault.Store.
func (s *Store) Get(name string) (string, bool, error) {
	secret, err := s.client.Logical().Read(s.dataPath())
	if err != nil {
		return "", false, fmt.Errorf("vaultbackend: reading %s: %w", s.dataPath(), err)
	}
	if secret == nil || secret.Data == nil {
		return "", false, nil
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", false, nil
	}

	raw, ok := data[name]
	if !ok {
		return "", false, nil
	}
	v, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("vaultbackend: value for %q is not a string", name)
	}
	return v, true, nil
}

// Put implements vault.Store. It performs a read-modify-write against the
// existing secret so that other fields already stored there are
// preserved.
func (s *Store) Put(name, value string) error {
	existing := map[string]interface{}{}

	secret, err := s.client.Logical().Read(s.dataPath())
	if err != nil {
		return fmt.Errorf("vaultbackend: reading %s before write: %w", s.dataPath(), err)
	}
	if secret != nil && secret.Data != nil {
		if data, ok := secret.Data["data"].(map[string]interface{}); ok {
			for k, v := range data {
				existing[k] = v
			}
		}
	}
	existing[name] = value

	if _, err := s.client.Logical().Write(s.dataPath(), map[string]interface{}{
		"data": existing,
	}); err != nil {
		return fmt.Errorf("vaultbackend: writing %s: %w", s.dataPath(), err)
	}

	return nil
}
