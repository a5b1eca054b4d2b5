// Package observability turns engine lifecycle hooks into Prometheus metrics and
// structured log lines.
//
// Usage:
//
//	m := observability.NewMetrics(prometheus.DefaultRegisterer)
//	svc := onboarding.New(onboarding.WithLifecycleHooks(observability.Hooks(m, logger)))
package observability
