package signer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario S2: the canonical Binance signing example.
func TestSignScenarioS2(t *testing.T) {
	s := New([]byte("NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"))

	params := Params{
		{Key: "symbol", Value: "LTCBTC"},
		{Key: "side", Value: "BUY"},
		{Key: "type", Value: "LIMIT"},
		{Key: "timeInForce", Value: "GTC"},
		{Key: "quantity", Value: "1"},
		{Key: "price", Value: "0.1"},
		{Key: "recvWindow", Value: 5000},
		{Key: "timestamp", Value: int64(1499827319559)},
	}

	signed := s.Sign(params, Options{AddTimestamp: true})

	require.Equal(t, "signature", signed[len(signed)-1].Key)
	require.Equal(t,
		"c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71",
		signed[len(signed)-1].Value,
	)
}

// Testable property 4: canonical form is the plain k=v join, unsorted.
func TestCanonicalQueryStringPreservesInputOrder(t *testing.T) {
	params := Params{
		{Key: "z", Value: "1"},
		{Key: "a", Value: "2"},
		{Key: "m", Value: "3"},
	}

	require.Equal(t, "z=1&a=2&m=3", CanonicalQueryString(params))
}

func TestCanonicalQueryStringDoesNotURLEncode(t *testing.T) {
	params := Params{{Key: "filter", Value: "a b&c"}}

	require.Equal(t, "filter=a b&c", CanonicalQueryString(params))
}

func TestCanonicalQueryStringExpandsMultiValuedParams(t *testing.T) {
	params := Params{
		{Key: "symbol", Value: []string{"BTCUSDT", "ETHUSDT"}},
		{Key: "limit", Value: 10},
	}

	require.Equal(t, "symbol=BTCUSDT&symbol=ETHUSDT&limit=10", CanonicalQueryString(params))
}

// Testable property 3: signature determinism.
func TestSignIsDeterministic(t *testing.T) {
	s := New([]byte("secret"))
	params := Params{{Key: "symbol", Value: "BTCUSDT"}}
	opts := Options{AddTimestamp: true, LocalMs: 1000, ServerOffsetMs: 0}

	first := s.Sign(params, opts)
	second := s.Sign(params, opts)

	require.Equal(t, first, second)
}

func TestSignAddsTimestampOnlyWhenAbsent(t *testing.T) {
	s := New([]byte("secret"))

	withoutTimestamp := Params{{Key: "symbol", Value: "BTCUSDT"}}
	signed := s.Sign(withoutTimestamp, Options{AddTimestamp: true, LocalMs: 1000, ServerOffsetMs: 50})
	require.Equal(t, "timestamp", signed[1].Key)
	require.EqualValues(t, 1050, signed[1].Value)

	withTimestamp := Params{{Key: "symbol", Value: "BTCUSDT"}, {Key: "timestamp", Value: int64(42)}}
	signed = s.Sign(withTimestamp, Options{AddTimestamp: true, LocalMs: 1000, ServerOffsetMs: 50})
	require.EqualValues(t, int64(42), signed[1].Value, "an explicit timestamp must not be overwritten")
}

func TestSignDoesNotMutateInputSlice(t *testing.T) {
	s := New([]byte("secret"))
	params := Params{{Key: "symbol", Value: "BTCUSDT"}}

	_ = s.Sign(params, Options{AddTimestamp: true, LocalMs: 1000})

	require.Len(t, params, 1, "Sign must not grow the caller's backing slice")
}
