/*
Package monitoring provides metrics collection for the whiteboard service.

# Overview

This package implements Prometheus-based metrics for HTTP traffic, AI
teaching sessions, upstream provider calls, the scene, and WebSocket
clients.

# Features

- HTTP request metrics (latency, throughput, size) keyed by route template
- Teaching sessions by outcome and duration
- Instructions applied per tag and protocol lines dropped
- Language model and speech call latency and status
- Scene primitive gauge and export counter
- WebSocket connection metrics
- Uptime

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()
	defer metrics.Close()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time upstream calls
	timer := monitoring.NewTimer(metrics, "openai")
	reply, err := completer.Complete(ctx, messages, 0.7)
	timer.Stop(monitoring.Status(err))

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

Tests should use NewMetricsWith(prometheus.NewRegistry()) so repeated
construction does not collide on the default registry.
*/
package monitoring
