package ioc

import (
	"net/http"
	"time"

	"github.com/spf13/viper"
)

const defaultCallTimeoutSeconds = 10

// CallTimeout is the per-call budget shared by the monitor and every
// outbound HTTP client.
func CallTimeout() time.Duration {
	seconds := viper.GetInt("monitor.call_timeout_seconds")
	if seconds <= 0 {
		seconds = defaultCallTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// newHTTPClient bounds clients that take no per-request context
// (telegram, coinpaprika); without the client timeout a stalled call
// would pin a monitor worker past its context deadline.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: CallTimeout()}
}
