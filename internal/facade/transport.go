package facade

import (
	"crypto/tls"
	"net/http"
	"os"

	rootcerts "github.com/hashicorp/go-rootcerts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewInstrumentedTransport wraps the default transport with Prometheus
// RoundTripper instrumentation, the same nesting pattern used for the
// HTTP client that talks to Vault: in-flight gauge, request counter keyed
// by code/method, and a request duration histogram. The TLS config of the
// inner transport is returned separately, before it disappears behind the
// instrumentation wrappers, so ReloadCA can still reach it later.
func NewInstrumentedTransport(inFlight prometheus.Gauge, counter *prometheus.CounterVec, duration *prometheus.HistogramVec) (http.RoundTripper, *tls.Config) {
	base := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}

	wrapped := promhttp.InstrumentRoundTripperInFlight(inFlight,
		promhttp.InstrumentRoundTripperCounter(counter,
			promhttp.InstrumentRoundTripperDuration(duration, base),
		),
	)

	return wrapped, base.TLSClientConfig
}

// ReloadCA re-reads CA material from the environment (PANZER_CACERT,
// PANZER_CAPATH — mirroring the VAULT_CACERT/VAULT_CAPATH convention) and
// applies it to tlsConfig in place, the same pattern the teacher uses to
// let a long-lived sidecar pick up a rotated CA bundle without a restart.
// When neither variable is set, tlsConfig is left unchanged.
func ReloadCA(tlsConfig *tls.Config) error {
	caCert := os.Getenv("PANZER_CACERT")
	caPath := os.Getenv("PANZER_CAPATH")

	if caCert == "" && caPath == "" {
		return nil
	}

	return rootcerts.ConfigureTLS(tlsConfig, &rootcerts.Config{
		CAFile: caCert,
		CAPath: caPath,
	})
}
