package cipher

import "runtime"

// fallbackBrandString is used when no richer platform probe succeeds.
func fallbackBrandString() string {
	return runtime.GOARCH + "/" + runtime.GOOS
}
