// Package binder reconstructs call arguments from resolved command-line
// values and runs the target.
//
// A Plan is captured when the argument tree is built. At run time an
// Invocation binds the resolved values (PENDING -> BOUND), then calls the
// target (BOUND -> CALLED or FAILED). Bindings and call durations are
// recorded as Prometheus metrics:
//
//	simplifiedapp_bind_total{result}
//	simplifiedapp_call_duration_seconds{result}
package binder
