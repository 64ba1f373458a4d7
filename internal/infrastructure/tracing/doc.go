/*
Package tracing provides lightweight request and lesson tracing.

Spans carry a trace ID shared by everything one request causes, and a
parent link, so a slow lesson can be broken down into its model call and
playback. Finished spans are written to the structured log by a background
collector.

# Usage

	tracer := tracing.New("whiteboard", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "teaching.complete")
	reply, err := completer.Complete(ctx, messages, 0.7)
	tracer.End(span, err)

# Propagation

X-Trace-ID and X-Span-ID request headers continue a caller's trace; the
same headers are set on every response.
*/
package tracing
