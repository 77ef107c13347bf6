package metrics

import "errors"

// ErrRegistrationFailed wraps a failure to register a Prometheus collector.
// PrometheusSink.Precheck returns it so a host can surface the failure at
// startup; Record has no error return and does not report it.
var ErrRegistrationFailed = errors.New("metrics: collector registration failed")
