package obs

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// NewLogger returns a logr.Logger writing structured lines to os.Stderr.
// The teacher builds its logger from controller-runtime's Log global,
// which is unavailable once the Kubernetes stack is gone; funcr is the
// go-logr project's own reference sink and produces the same structured
// key/value shape without pulling in a scheduler we don't run.
func NewLogger(name string, verbosity int) logr.Logger {
	log := funcr.New(func(prefix, args string) {
		ts := time.Now().UTC().Format(time.RFC3339)
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", ts, prefix, args)
			return
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", ts, args)
	}, funcr.Options{
		Verbosity: verbosity,
	})
	return log.WithName(name)
}
