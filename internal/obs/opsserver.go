package obs

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/utilitywarehouse/go-operational/op"
)

const (
	appName        = "panzer-go"
	appDescription = "Rate-limit-aware, credential-vaulting REST gateway for a crypto exchange API."
)

// OpsServer serves /metrics and a go-operational /__/ status endpoint on
// a gorilla/mux router, the same shape as the teacher's sidecar
// webserver. It is entirely optional: nothing in the gateway's request
// path depends on it being started.
type OpsServer struct {
	listenAddress string
	metrics       *Metrics
	srv           *http.Server
}

// NewOpsServer returns an OpsServer that will listen on listenAddress
// once Start is called. An empty listenAddress means the caller does not
// want an ops server at all; Start is then a no-op.
func NewOpsServer(listenAddress string, metrics *Metrics) *OpsServer {
	return &OpsServer{listenAddress: listenAddress, metrics: metrics}
}

// Start runs the ops server in the foreground, blocking until it exits or
// the listener fails. Callers that want it in the background should call
// this from its own goroutine, same as the teacher's webserver.Start.
func (o *OpsServer) Start() error {
	if o.listenAddress == "" {
		return nil
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/__/", op.NewHandler(
		op.NewStatus(appName, appDescription).
			AddOwner("trading-platform", "#panzer").
			AddLink("readme", fmt.Sprintf("https://github.com/nand0san/%s/blob/main/README.md", appName)).
			ReadyAlways(),
	))

	o.srv = &http.Server{Addr: o.listenAddress, Handler: r}
	return o.srv.ListenAndServe()
}

// Stop shuts the server down, if it was started.
func (o *OpsServer) Stop() error {
	if o.srv == nil {
		return nil
	}
	return o.srv.Close()
}
