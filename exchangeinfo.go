package panzer

import (
	"context"
	"encoding/json"

	"github.com/nand0san/panzer-go/internal/facade"
	"github.com/nand0san/panzer-go/internal/quota"
)

type exchangeInfoResponse struct {
	RateLimits []struct {
		RateLimitType string `json:"rateLimitType"`
		Interval      string `json:"interval"`
		IntervalNum   int    `json:"intervalNum"`
		Limit         int    `json:"limit"`
	} `json:"rateLimits"`
}

// FetchLimits retrieves the exchange's current rate-limit spec from
// GET /api/v3/exchangeInfo and applies it to the accountant. On any
// failure it leaves the accountant's current limits (built-in defaults
// or config overrides) untouched and returns the error, matching spec
// §4.5's failure semantics: "exchangeInfo unreachable → log error, apply
// defaults, continue."
func (c *Client) FetchLimits(ctx context.Context) error {
	resp, err := c.Facade.Get(ctx, facade.Request{Endpoint: "/api/v3/exchangeInfo"})
	if err != nil {
		c.Log.Error(err, "fetching exchangeInfo, keeping current rate limits")
		return err
	}

	var parsed exchangeInfoResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		c.Log.Error(err, "parsing exchangeInfo, keeping current rate limits")
		return err
	}

	specs := make([]quota.RateLimitSpec, 0, len(parsed.RateLimits))
	for _, rl := range parsed.RateLimits {
		specs = append(specs, quota.RateLimitSpec{
			Kind:         quota.Kind(rl.RateLimitType),
			IntervalNum:  rl.IntervalNum,
			IntervalUnit: quota.IntervalUnit(rl.Interval),
			Limit:        rl.Limit,
		})
	}

	c.Accountant.SetLimits(quota.LimitsFromSpecs(specs))
	return nil
}
