/*
Package observability provides Prometheus metrics for the twolc compiler.

Metrics are fed by lifecycle hooks, so any Compiler can be instrumented:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	c := twolc.New(twolc.WithLifecycleHooks(m.Hooks()))
*/
package observability
