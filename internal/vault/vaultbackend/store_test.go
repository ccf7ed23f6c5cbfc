package vaultbackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/require"
)

// fakeKV emulates just enough of Vault's KV-v2 HTTP API for Store's
// read-modify-write cycle to exercise against.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newFakeVaultServer(t *testing.T) (*httptest.Server, *vaultapi.Client) {
	t.Helper()
	kv := &fakeKV{data: map[string]interface{}{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/secret/data/panzer/credentials", func(w http.ResponseWriter, r *http.Request) {
		kv.mu.Lock()
		defer kv.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			if len(kv.data) == 0 {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"errors": []string{}})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"data": kv.data},
			})
		case http.MethodPost, http.MethodPut:
			var body struct {
				Data map[string]interface{} `json:"data"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			kv.data = body.Data
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{}})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	srv := httptest.NewServer(mux)

	cfg := vaultapi.DefaultConfig()
	cfg.Address = srv.URL
	client, err := vaultapi.NewClient(cfg)
	require.NoError(t, err)

	return srv, client
}

// Testable property 10: a value written via Put and re-read via Get
// reproduces the input.
func TestVaultBackendRoundTrip(t *testing.T) {
	srv, client := newFakeVaultServer(t)
	defer srv.Close()

	s := New(client, "secret", "panzer/credentials")

	require.NoError(t, s.Put("api_key", "abc123"))

	v, found, err := s.Get("api_key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "abc123", v)
}

func TestVaultBackendMissingValue(t *testing.T) {
	srv, client := newFakeVaultServer(t)
	defer srv.Close()

	s := New(client, "secret", "panzer/credentials")

	_, found, err := s.Get("nope")
	require.NoError(t, err)
	require.False(t, found)
}

func TestVaultBackendPreservesOtherFields(t *testing.T) {
	srv, client := newFakeVaultServer(t)
	defer srv.Close()

	s := New(client, "secret", "panzer/credentials")

	require.NoError(t, s.Put("api_key", "abc123"))
	require.NoError(t, s.Put("api_secret", "xyz789"))

	v, found, err := s.Get("api_key")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "abc123", v)
}
