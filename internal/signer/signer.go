// Package signer builds the canonical query string for authenticated
// exchange requests and signs it with HMAC-SHA256, per spec §4.6.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Param is a single ordered key/value pair. Value is rendered by
// formatValue (strings verbatim, int/int64/bool/float64 via strconv, with
// float64 in plain non-exponent form, anything else with fmt.Sprint),
// except for the slice kinds CanonicalQueryString expands ([]string,
// []int, []int64), which yield one pair per element.
type Param struct {
	Key   string
	Value interface{}
}

// Params is an ordered parameter list. Order is significant: it is
// preserved verbatim in the canonical query string, not sorted.
type Params []Param

// Signer signs Params with a fixed secret key. It holds no other state
// and is safe for concurrent use.
type Signer struct {
	secretKey []byte
}

// New returns a Signer using secretKey for HMAC-SHA256.
func New(secretKey []byte) *Signer {
	return &Signer{secretKey: secretKey}
}

// Options controls the optional behaviors of Sign.
type Options struct {
	// AddTimestamp appends a timestamp pair when params carries none.
	// The zero value (false) adds no timestamp.
	AddTimestamp bool
	// ServerOffsetMs is added to the local clock when synthesizing a
	// timestamp, so the signed value reflects the exchange's clock.
	ServerOffsetMs int64
	// LocalMs is the local wall-clock time in milliseconds. Callers
	// inject this explicitly rather than the Signer reading time.Now
	// itself, keeping Sign pure and its output reproducible in tests
	// (testable property 3).
	LocalMs int64
	// TimestampField and SignatureField override the default parameter
	// names, matching the exchange's wire contract (spec §4.6).
	TimestampField string
	SignatureField string
}

func (o Options) timestampField() string {
	if o.TimestampField != "" {
		return o.TimestampField
	}
	return "timestamp"
}

func (o Options) signatureField() string {
	if o.SignatureField != "" {
		return o.SignatureField
	}
	return "signature"
}

// Sign appends a timestamp (if requested and absent) and a signature pair
// to params, returning the augmented list. It never mutates the input
// slice's backing array in place for the caller's benefit: the returned
// slice is always a fresh copy.
func (s *Signer) Sign(params Params, opts Options) Params {
	out := make(Params, len(params), len(params)+2)
	copy(out, params)

	if opts.AddTimestamp && !hasKey(out, opts.timestampField()) {
		out = append(out, Param{Key: opts.timestampField(), Value: opts.LocalMs + opts.ServerOffsetMs})
	}

	query := CanonicalQueryString(out)
	sig := s.signHex(query)
	out = append(out, Param{Key: opts.signatureField(), Value: sig})

	return out
}

func (s *Signer) signHex(query string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

func hasKey(params Params, key string) bool {
	for _, p := range params {
		if p.Key == key {
			return true
		}
	}
	return false
}

// CanonicalQueryString joins params as k=v pairs with & in input order,
// with no sorting and no URL-encoding (testable property 4). Multi-valued
// parameters — a Value holding a []string, []int, or []int64 — expand to
// one pair per element, preserving the element order.
func CanonicalQueryString(params Params) string {
	var b strings.Builder
	first := true

	writePair := func(key string, value interface{}) {
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(value))
	}

	for _, p := range params {
		switch v := p.Value.(type) {
		case []string:
			for _, elem := range v {
				writePair(p.Key, elem)
			}
		case []int:
			for _, elem := range v {
				writePair(p.Key, elem)
			}
		case []int64:
			for _, elem := range v {
				writePair(p.Key, elem)
			}
		default:
			writePair(p.Key, v)
		}
	}

	return b.String()
}

func formatValue(v interface{}) string {
	switch n := v.(type) {
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(n)
	}
}
