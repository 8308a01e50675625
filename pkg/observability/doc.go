/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	orch := lao.New(reg,
		lao.WithLifecycleHooks(metrics.Hooks()),
		lao.WithLifecycleHooks(observability.LogHooks(logger)),
	)
*/
package observability
