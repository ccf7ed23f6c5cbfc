package facade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/nand0san/panzer-go/internal/cipher"
	"github.com/nand0san/panzer-go/internal/clocksync"
	"github.com/nand0san/panzer-go/internal/panzererr"
	"github.com/nand0san/panzer-go/internal/signer"
	"github.com/nand0san/panzer-go/internal/vault"
)

type mapStore map[string]string

func (m mapStore) Get(name string) (string, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

func (m mapStore) Put(name, value string) error {
	m[name] = value
	return nil
}

type fakeFetcher struct{ serverMs int64 }

func (f fakeFetcher) FetchServerTimeMillis(context.Context) (int64, error) {
	return f.serverMs, nil
}

type recordingAccountant struct {
	calls []map[string]string
	err   error
}

func (r *recordingAccountant) UpdateFromHeaders(headers map[string]string) error {
	r.calls = append(r.calls, headers)
	return r.err
}

func newTestFacade(t *testing.T, srv *httptest.Server, account HeaderSource) *Facade {
	t.Helper()
	clock := clocksync.New(fakeFetcher{}, logr.Discard())
	return New(srv.URL, srv.Client(), signer.New([]byte("secret")), nil, clock, account, logr.Discard(), DefaultRecvWindow)
}

func TestGetDropsNilParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFacade(t, srv, nil)

	_, err := f.Get(context.Background(), Request{
		Endpoint: "/api/v3/ticker",
		Params: signer.Params{
			{Key: "symbol", Value: "BTCUSDT"},
			{Key: "limit", Value: nil},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "BTCUSDT", gotQuery.Get("symbol"))
	require.False(t, gotQuery.Has("limit"))
}

func TestGetSignedAppliesRecvWindowAndSignature(t *testing.T) {
	var gotQuery url.Values
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Get("X-MBX-APIKEY")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFacade(t, srv, nil)
	ciph, err := cipher.New([]byte("test-seed"))
	require.NoError(t, err)
	cache := vault.NewCache(mapStore{}, ciph, nil, logr.Discard())
	_, err = cache.Add("api_key", "the-key", true)
	require.NoError(t, err)
	_, err = cache.Add("api_secret", "the-secret", true)
	require.NoError(t, err)
	f.creds = signer.NewCredentials(cache, "", "")

	_, err = f.Get(context.Background(), Request{
		Endpoint: "/api/v3/account",
		Sign:     true,
	})
	require.NoError(t, err)
	require.Equal(t, "the-key", gotHeader)
	require.True(t, gotQuery.Has("timestamp"))
	require.True(t, gotQuery.Has("signature"))
	require.Equal(t, "10000", gotQuery.Get("recvWindow"))
}

func TestHeadersReportedOnSuccessAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mbx-Used-Weight-1m", "7")
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	account := &recordingAccountant{}
	f := newTestFacade(t, srv, account)

	_, err := f.Get(context.Background(), Request{Endpoint: "/ok"})
	require.NoError(t, err)

	var exchangeErr *panzererr.ExchangeError
	_, err = f.Get(context.Background(), Request{Endpoint: "/fail"})
	require.ErrorAs(t, err, &exchangeErr)
	require.Equal(t, http.StatusTooManyRequests, exchangeErr.StatusCode)

	require.Len(t, account.calls, 2, "headers must be reported on both the success and the error response")
	require.Equal(t, "7", account.calls[0]["X-Mbx-Used-Weight-1m"])
}

func TestTransportErrorOnUnreachableHost(t *testing.T) {
	clock := clocksync.New(fakeFetcher{}, logr.Discard())
	f := New("http://127.0.0.1:0", http.DefaultClient, signer.New([]byte("s")), nil, clock, nil, logr.Discard(), DefaultRecvWindow)

	_, err := f.Get(context.Background(), Request{Endpoint: "/x"})
	var transportErr *panzererr.TransportError
	require.ErrorAs(t, err, &transportErr)
}
