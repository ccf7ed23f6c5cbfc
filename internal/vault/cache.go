// Package vault implements the credential store and in-memory cache
// described in spec §4.2: a persistent keyed file of plaintext/ciphertext
// values, with an in-memory mirror that lazily loads from disk or prompts
// the user for anything missing.
package vault

import (
	"sync"

	"github.com/go-logr/logr"

	"github.com/nand0san/panzer-go/internal/cipher"
	"github.com/nand0san/panzer-go/internal/panzererr"
)

// Store is the persistence contract a CredentialStore backend must
// satisfy. FileStore is the spec-mandated implementation; other backends
// (e.g. a Vault-KV-backed one) can be substituted without the Cache
// knowing the difference — this is the "OS keychain" substitution point
// the design notes call out.
type Store interface {
	// Get returns the raw (possibly encrypted) value stored under name.
	Get(name string) (value string, found bool, err error)
	// Put persists value (raw, possibly encrypted) under name.
	Put(name, value string) error
}

// Cache is the in-memory mirror of a Store. It is read-mostly after
// warm-up, so a single reader/writer lock is sufficient to make Get and
// Add safe to call concurrently from multiple goroutines dispatching
// requests.
type Cache struct {
	mu     sync.RWMutex
	memory map[string]string // name -> raw (possibly ciphertext) value

	store  Store
	cipher *cipher.Cipher
	prompt Prompter // nil disables interactive prompting
	log    logr.Logger
}

// NewCache returns a Cache backed by store. If prompter is nil, missing
// credentials surface panzererr.CredentialMissing instead of prompting.
func NewCache(store Store, ciph *cipher.Cipher, prompter Prompter, log logr.Logger) *Cache {
	return &Cache{
		memory: make(map[string]string),
		store:  store,
		cipher: ciph,
		prompt: prompter,
		log:    log,
	}
}

// Get returns the value stored under name: from memory if cached, else
// from disk, else — if prompting is enabled — from an interactive prompt,
// which is then persisted. If decrypt is true the value is run through
// the cipher before being returned.
func (c *Cache) Get(name string, decrypt bool) (string, error) {
	raw, err := c.rawValue(name)
	if err != nil {
		return "", err
	}
	if !decrypt {
		return raw, nil
	}
	return c.cipher.Decrypt(raw)
}

func (c *Cache) rawValue(name string) (string, error) {
	c.mu.RLock()
	if v, ok := c.memory[name]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have populated it while we waited for the
	// write lock.
	if v, ok := c.memory[name]; ok {
		return v, nil
	}

	v, found, err := c.store.Get(name)
	if err != nil {
		return "", err
	}
	if found {
		c.memory[name] = v
		return v, nil
	}

	if c.prompt == nil {
		return "", &panzererr.CredentialMissing{Name: name}
	}

	sensitive := IsSensitiveName(name)
	entered, err := c.prompt.Prompt(name, sensitive)
	if err != nil {
		return "", err
	}

	stored, err := c.storedRepresentation(entered, sensitive)
	if err != nil {
		return "", err
	}

	if err := c.store.Put(name, stored); err != nil {
		return "", err
	}
	c.memory[name] = stored

	return stored, nil
}

// Add stores value under name, encrypting it first if sensitive is true,
// and returns the representation that was persisted (ciphertext for
// sensitive values, plaintext otherwise).
func (c *Cache) Add(name, value string, sensitive bool) (string, error) {
	stored, err := c.storedRepresentation(value, sensitive)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Put(name, stored); err != nil {
		return "", err
	}
	c.memory[name] = stored

	return stored, nil
}

func (c *Cache) storedRepresentation(value string, sensitive bool) (string, error) {
	if !sensitive {
		return value, nil
	}
	return c.cipher.Encrypt(value)
}
