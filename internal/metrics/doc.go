// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package metrics defines the Prometheus collectors exported on /metrics.

Collectors are registered with the default registry through promauto when
the package is imported, so callers only record values:

	metrics.RecordAPIRequest("GET", "/api/v1/accounts", "200", time.Since(start))
	metrics.LogEntriesDropped.WithLabelValues("slow_subscriber").Inc()

# Families

  - api_*: request count, latency and in-flight gauge
  - store_*: repository call latency and failures
  - circuit_breaker_*: state, requests and transitions per breaker
  - automation_*: commands sent to the automation backend
  - logstream_*: upstream connection, ingested and dropped entries, SSE subscribers
  - websocket_*: connections and delivered/dropped messages
  - auth_*, authz_*: logins, sessions and authorization decisions
*/
package metrics
