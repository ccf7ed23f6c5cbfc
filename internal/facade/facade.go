// Package facade is the one place outbound exchange requests are
// assembled, optionally signed, and dispatched (spec §4.7). It never
// decides whether a request is allowed to happen — that is the
// accountant's job, invoked by the caller beforehand — but it always
// reports response headers back to the accountant afterwards.
package facade

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-logr/logr"

	"github.com/nand0san/panzer-go/internal/clocksync"
	"github.com/nand0san/panzer-go/internal/panzererr"
	"github.com/nand0san/panzer-go/internal/signer"
)

// DefaultRecvWindow is appended to signed requests when the caller does
// not supply one and Facade was constructed with a zero recvWindow
// (config.Config.RecvWindowMillis).
const DefaultRecvWindow = 10000

// HeaderSource reports headers back to the accountant; satisfied by
// *quota.Accountant.
type HeaderSource interface {
	UpdateFromHeaders(headers map[string]string) error
}

// Facade dispatches HTTP requests against a single base URL, optionally
// signing them, and always feeds response headers back to an accountant.
type Facade struct {
	baseURL       string
	client        *http.Client
	signer        *signer.Signer
	creds         *signer.Credentials
	clock         *clocksync.Clock
	account       HeaderSource
	log           logr.Logger
	defaultWindow int
}

// New returns a Facade issuing requests against baseURL. defaultRecvWindow
// is appended to signed requests that do not specify one
// (config.Config.RecvWindowMillis); zero defaults to DefaultRecvWindow.
func New(baseURL string, client *http.Client, sgnr *signer.Signer, creds *signer.Credentials, clock *clocksync.Clock, account HeaderSource, log logr.Logger, defaultRecvWindow int) *Facade {
	if defaultRecvWindow <= 0 {
		defaultRecvWindow = DefaultRecvWindow
	}
	return &Facade{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		client:        client,
		signer:        sgnr,
		creds:         creds,
		clock:         clock,
		account:       account,
		log:           log,
		defaultWindow: defaultRecvWindow,
	}
}

// Request describes a single call through the Facade.
type Request struct {
	Endpoint   string
	Params     signer.Params
	Sign       bool
	RecvWindow int // 0 means the Facade's default recvWindow (see New) when Sign is true
}

// Response is the Facade's normalized result.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Get issues a GET, placing params in the query string.
func (f *Facade) Get(ctx context.Context, req Request) (*Response, error) {
	return f.do(ctx, http.MethodGet, req)
}

// Post issues a POST, placing params in the request body as a form.
func (f *Facade) Post(ctx context.Context, req Request) (*Response, error) {
	return f.do(ctx, http.MethodPost, req)
}

func (f *Facade) do(ctx context.Context, method string, req Request) (*Response, error) {
	params := dropEmpty(req.Params)

	if req.Sign {
		window := req.RecvWindow
		if window == 0 {
			window = f.defaultWindow
		}
		if !hasKey(params, "recvWindow") {
			params = append(params, signer.Param{Key: "recvWindow", Value: window})
		}
		params = f.signer.Sign(params, signer.Options{
			AddTimestamp: true,
			LocalMs:      f.clock.Now(),
		})
	}

	httpReq, err := f.buildRequest(ctx, method, req.Endpoint, params)
	if err != nil {
		return nil, &panzererr.TransportError{Endpoint: req.Endpoint, Err: err}
	}

	if req.Sign {
		headers, err := f.creds.APIKeyHeader()
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	}

	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &panzererr.TransportError{Endpoint: req.Endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &panzererr.TransportError{Endpoint: req.Endpoint, Err: err}
	}

	f.reportHeaders(httpResp.Header)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		f.log.Info("exchange returned error status", "endpoint", req.Endpoint, "status", httpResp.StatusCode)
		return nil, &panzererr.ExchangeError{
			Endpoint:   req.Endpoint,
			StatusCode: httpResp.StatusCode,
			Body:       body,
		}
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: body, Headers: httpResp.Header}, nil
}

func (f *Facade) buildRequest(ctx context.Context, method, endpoint string, params signer.Params) (*http.Request, error) {
	query := signer.CanonicalQueryString(params)

	if method == http.MethodGet {
		full := f.baseURL + endpoint
		if query != "" {
			full += "?" + query
		}
		return http.NewRequestWithContext(ctx, method, full, nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, f.baseURL+endpoint, bytes.NewBufferString(query))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return httpReq, nil
}

// reportHeaders feeds every response — successful or not — back to the
// accountant, because the exchange emits weight headers on error
// responses too. A reconciliation failure (an unknown x-mbx-* header) is
// logged, not returned, since the caller already has the original
// response or error to deal with.
func (f *Facade) reportHeaders(h http.Header) {
	if f.account == nil {
		return
	}

	flat := make(map[string]string, len(h))
	for k := range h {
		flat[k] = h.Get(k)
	}

	if err := f.account.UpdateFromHeaders(flat); err != nil {
		f.log.Error(err, "rate-limit header reconciliation failed")
	}
}

func dropEmpty(params signer.Params) signer.Params {
	out := make(signer.Params, 0, len(params))
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasKey(params signer.Params, key string) bool {
	for _, p := range params {
		if p.Key == key {
			return true
		}
	}
	return false
}

// EncodeURLValues is a convenience for callers assembling query
// parameters outside of signer.Params, e.g. when forwarding raw
// url.Values for a non-domain endpoint.
func EncodeURLValues(values url.Values) signer.Params {
	out := make(signer.Params, 0, len(values))
	for k, v := range values {
		for _, elem := range v {
			out = append(out, signer.Param{Key: k, Value: elem})
		}
	}
	return out
}
