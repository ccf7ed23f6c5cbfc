package panzer

import (
	"context"

	"github.com/nand0san/panzer-go/internal/facade"
	"github.com/nand0san/panzer-go/internal/signer"
)

// Get issues an unsigned or signed GET through the Facade. The Accountant
// is never consulted here — call CanMake or WaitUntilAdmissible yourself
// first, so that batched callers can make admission decisions across
// several requests before committing any of them (spec §4.7).
func (c *Client) Get(ctx context.Context, endpoint string, params signer.Params, sign bool) (*facade.Response, error) {
	return c.Facade.Get(ctx, facade.Request{Endpoint: endpoint, Params: params, Sign: sign})
}

// Post issues an unsigned or signed POST through the Facade.
func (c *Client) Post(ctx context.Context, endpoint string, params signer.Params, sign bool) (*facade.Response, error) {
	return c.Facade.Post(ctx, facade.Request{Endpoint: endpoint, Params: params, Sign: sign})
}

// RefreshClock resyncs the Client's estimate of the exchange's clock. The
// refresh itself consumes weight-per-minute and raw-per-5-minutes quota, so
// it is skipped (with a logged bypass, returning the unchanged offset)
// whenever the accountant is already saturated — calling it anyway would
// risk a death spiral under load (spec §4.4).
func (c *Client) RefreshClock(ctx context.Context) (int64, error) {
	if c.Accountant.Saturated() {
		c.Log.Info("skipping clock resync: accountant saturated, bypassing to avoid a death spiral under load")
		return c.Clock.Offset(), nil
	}
	return c.Clock.Refresh(ctx)
}
