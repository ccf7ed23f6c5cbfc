package signer

import "github.com/nand0san/panzer-go/internal/vault"

// Credentials reads the API key and secret key through the Credential
// Cache, decrypting on each access (spec §4.6). The Cache keeps a value in
// memory after its first load, so a credential changed on disk afterwards
// is not picked up; a Signer holds the secret key it was constructed with
// (see SecretKey).
type Credentials struct {
	cache         *vault.Cache
	apiKeyName    string
	secretKeyName string
}

// NewCredentials returns a Credentials reading apiKeyName/secretKeyName
// from cache. Names default to "api_key" and "api_secret" when empty,
// matching the exchange's own naming.
func NewCredentials(cache *vault.Cache, apiKeyName, secretKeyName string) *Credentials {
	if apiKeyName == "" {
		apiKeyName = "api_key"
	}
	if secretKeyName == "" {
		secretKeyName = "api_secret"
	}
	return &Credentials{cache: cache, apiKeyName: apiKeyName, secretKeyName: secretKeyName}
}

// APIKeyHeader returns the single header the exchange requires on every
// authenticated call.
func (c *Credentials) APIKeyHeader() (map[string]string, error) {
	key, err := c.cache.Get(c.apiKeyName, true)
	if err != nil {
		return nil, err
	}
	return map[string]string{"X-MBX-APIKEY": key}, nil
}

// SecretKey returns the decrypted secret key bytes a Signer should be
// constructed with.
func (c *Credentials) SecretKey() ([]byte, error) {
	v, err := c.cache.Get(c.secretKeyName, true)
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}
