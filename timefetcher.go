package panzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nand0san/panzer-go/internal/panzererr"
)

// httpTimeFetcher implements clocksync.TimeFetcher against the exchange's
// GET /api/v3/time endpoint.
type httpTimeFetcher struct {
	baseURL string
	client  *http.Client
}

func (f *httpTimeFetcher) FetchServerTimeMillis(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/v3/time", nil)
	if err != nil {
		return 0, &panzererr.TransportError{Endpoint: "/api/v3/time", Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &panzererr.TransportError{Endpoint: "/api/v3/time", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &panzererr.ExchangeError{Endpoint: "/api/v3/time", StatusCode: resp.StatusCode}
	}

	var body struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("panzer: decoding /api/v3/time response: %w", err)
	}

	return body.ServerTime, nil
}
